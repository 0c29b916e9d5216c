package housekeeping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/insurebot/frontdesk/screens"
)

type fakeStats struct {
	stats map[screens.Screen]int
	err   error
	calls int
}

func (f *fakeStats) Stats(context.Context) (map[screens.Screen]int, error) {
	f.calls++
	return f.stats, f.err
}

type fakeForgetter struct {
	cutoff time.Time
	calls  int
}

func (f *fakeForgetter) Forget(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 3, nil
}

func TestNewValidatesSchedule(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
		enabled bool
	}{
		{Config{}, false, false},
		{Config{StatsSchedule: "off"}, false, false},
		{Config{StatsSchedule: "@hourly"}, false, true},
		{Config{StatsSchedule: "*/15 * * * *"}, false, true},
		{Config{StatsSchedule: "every minute"}, true, false},
		{Config{StatsSchedule: "@daily", ForgetIdleAfter: -time.Hour}, true, false},
	}
	for _, tt := range tests {
		h, err := New(tt.cfg, &fakeStats{}, nil)
		if (err != nil) != tt.wantErr {
			t.Fatalf("New(%+v) err = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
		if err == nil && (h.cron != nil) != tt.enabled {
			t.Fatalf("New(%+v) enabled = %v", tt.cfg, h.cron != nil)
		}
	}
	if _, err := New(Config{}, nil, nil); err == nil {
		t.Fatal("expected error for nil stats source")
	}
}

func TestRunOnce(t *testing.T) {
	stats := &fakeStats{stats: map[screens.Screen]int{screens.Start: 2}}
	forget := &fakeForgetter{}
	h, err := New(Config{StatsSchedule: "@hourly", ForgetIdleAfter: 24 * time.Hour}, stats, forget)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	h.RunOnce(context.Background())
	if stats.calls != 1 || forget.calls != 1 {
		t.Fatalf("calls: stats=%d forget=%d", stats.calls, forget.calls)
	}
	if !forget.cutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("cutoff = %v", forget.cutoff)
	}

	stats.err = errors.New("db down")
	h.RunOnce(context.Background())
	if forget.calls != 2 {
		t.Fatal("forget should run even when stats fail")
	}
}

func TestStartAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := New(Config{StatsSchedule: "@every 1h"}, &fakeStats{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := h.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(h.cron.Entries()) != 1 {
		t.Fatalf("entries = %d", len(h.cron.Entries()))
	}
	cancel()
	h.Stop()

	disabled, _ := New(Config{}, &fakeStats{}, nil)
	if err := disabled.Start(context.Background()); err != nil {
		t.Fatalf("disabled start: %v", err)
	}
	disabled.Stop()
}

func TestFormatStats(t *testing.T) {
	got := FormatStats(map[screens.Screen]int{
		screens.Help:  1,
		screens.Start: 4,
		screens.Site:  0,
		"legacy":      2,
	})
	if got != "start=4,help=1,legacy=2" {
		t.Fatalf("FormatStats = %q", got)
	}
}

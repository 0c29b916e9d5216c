// Package housekeeping runs periodic maintenance: it reports how many users
// sit on each screen and, with a persistent store, forgets idle users.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/insurebot/core/logger"
	"github.com/m3rciful/insurebot/frontdesk/screens"
)

const component = "housekeeping"

// Config schedules the maintenance job.
type Config struct {
	// StatsSchedule is a standard cron expression or descriptor such as "@hourly".
	// "off" disables the job.
	StatsSchedule string `yaml:"stats_schedule" envconfig:"HOUSEKEEPING_STATS_SCHEDULE"`
	// ForgetIdleAfter drops users idle for longer than this; 0 keeps everyone.
	ForgetIdleAfter time.Duration `yaml:"forget_idle_after" envconfig:"HOUSEKEEPING_FORGET_IDLE_AFTER"`
}

// Enabled reports whether a schedule is configured.
func (c Config) Enabled() bool {
	s := strings.TrimSpace(c.StatsSchedule)
	return s != "" && !strings.EqualFold(s, "off")
}

// StatsSource reports users per screen.
type StatsSource interface {
	Stats(ctx context.Context) (map[screens.Screen]int, error)
}

// Forgetter removes users whose state is older than cutoff.
type Forgetter interface {
	Forget(ctx context.Context, cutoff time.Time) (int64, error)
}

// Housekeeper owns the cron scheduler.
type Housekeeper struct {
	cfg       Config
	stats     StatsSource
	forgetter Forgetter
	cron      *cron.Cron
	now       func() time.Time
}

// New validates the schedule. forgetter may be nil.
func New(cfg Config, stats StatsSource, forgetter Forgetter) (*Housekeeper, error) {
	if stats == nil {
		return nil, fmt.Errorf("housekeeping: nil stats source")
	}
	if cfg.ForgetIdleAfter < 0 {
		return nil, fmt.Errorf("housekeeping: forget_idle_after must be >= 0")
	}
	h := &Housekeeper{cfg: cfg, stats: stats, forgetter: forgetter, now: time.Now}
	if !cfg.Enabled() {
		return h, nil
	}
	if _, err := cron.ParseStandard(cfg.StatsSchedule); err != nil {
		return nil, fmt.Errorf("housekeeping: invalid stats_schedule %q: %w", cfg.StatsSchedule, err)
	}
	log := cronLogger{}
	h.cron = cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)))
	return h, nil
}

// Start schedules the job and stops it when ctx is done.
func (h *Housekeeper) Start(ctx context.Context) error {
	if h.cron == nil {
		logger.Info(ctx, component, "disabled")
		return nil
	}
	if _, err := h.cron.AddFunc(h.cfg.StatsSchedule, func() { h.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("housekeeping: schedule job: %w", err)
	}
	h.cron.Start()
	logger.Info(ctx, component, "started",
		slog.String("schedule", h.cfg.StatsSchedule),
		slog.Time("next_run", h.cron.Entries()[0].Next),
	)
	go func() {
		<-ctx.Done()
		h.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (h *Housekeeper) Stop() {
	if h.cron == nil {
		return
	}
	<-h.cron.Stop().Done()
}

// RunOnce reports screen statistics and forgets idle users once.
func (h *Housekeeper) RunOnce(ctx context.Context) {
	start := time.Now()
	stats, err := h.stats.Stats(ctx)
	if err != nil {
		logger.Error(ctx, component, "stats.fail", slog.String("status", "fail"), slog.String("err", err.Error()))
	} else {
		total := 0
		for _, n := range stats {
			total += n
		}
		logger.Info(ctx, component, "stats",
			slog.String("status", "ok"),
			slog.Int("users", total),
			slog.String("screens", FormatStats(stats)),
			slog.Duration("duration", time.Since(start)),
		)
	}

	if h.forgetter == nil || h.cfg.ForgetIdleAfter == 0 {
		return
	}
	cutoff := h.now().Add(-h.cfg.ForgetIdleAfter)
	n, err := h.forgetter.Forget(ctx, cutoff)
	if err != nil {
		logger.Error(ctx, component, "forget.fail", slog.String("status", "fail"), slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, component, "forget", slog.String("status", "ok"), slog.Int64("users", n))
}

// FormatStats renders counts as "screen=n" pairs in menu order, skipping empty screens.
func FormatStats(stats map[screens.Screen]int) string {
	parts := make([]string, 0, len(stats))
	for _, s := range screens.All() {
		if n := stats[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", s, n))
		}
	}
	var extra []string
	for s, n := range stats {
		if !s.Valid() && n > 0 {
			extra = append(extra, fmt.Sprintf("%s=%d", s, n))
		}
	}
	slices.Sort(extra)
	return strings.Join(append(parts, extra...), ",")
}

// cronLogger forwards robfig/cron's logs to the housekeeping component.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	if !logger.ShouldSampleDebug() {
		return
	}
	logger.Component(component).Debug(msg, append([]any{"event", "cron." + msg}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Component(component).Error(msg, append([]any{"event", "cron." + msg, "err", err.Error()}, keysAndValues...)...)
}

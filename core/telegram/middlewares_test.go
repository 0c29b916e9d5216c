package telegram

import (
	"testing"

	coreconfig "github.com/m3rciful/insurebot/core/config"
)

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, len(mws))
		for i, mw := range mws {
			out[i] = mw.Name
		}
		return out
	}

	got := names(DefaultMiddlewares(&coreconfig.Config{}, nil))
	want := []string{"recover", "logger", "metrics"}
	if len(got) != len(want) {
		t.Fatalf("middlewares = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("middlewares = %v, want %v", got, want)
		}
	}

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500}}
	if got := names(DefaultMiddlewares(cfg, nil)); len(got) != 4 || got[1] != "rate_limit" {
		t.Fatalf("middlewares with rate limit = %v", got)
	}
}

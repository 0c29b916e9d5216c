package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/insurebot/core/bootstrap"
	coreconfig "github.com/m3rciful/insurebot/core/config"
	coredatabase "github.com/m3rciful/insurebot/core/database"
	tg "github.com/m3rciful/insurebot/core/telegram"
	"github.com/m3rciful/insurebot/frontdesk/screens"

	tele "gopkg.in/telebot.v4"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insurebot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadReadsFrontdeskSection(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: file-token
  admin_id: 7
frontdesk:
  replies:
    fallback: " Позовите оператора "
  lemmatizer:
    kind: dictionary
  screens:
    texts:
      site: "Наш сайт: https://example.org"
  housekeeping:
    stats_schedule: "@hourly"
    forget_idle_after: 720h
`)
	t.Setenv("STORAGE_DRIVER", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	fd := cfg.Frontdesk
	if cfg.CoreConfig().Telegram.AdminID != 7 {
		t.Fatalf("admin id = %d", cfg.Telegram.AdminID)
	}
	if fd.Storage.Driver != StorageMemory {
		t.Fatalf("driver = %q", fd.Storage.Driver)
	}
	if fd.Replies.Fallback != "Позовите оператора" {
		t.Fatalf("fallback = %q", fd.Replies.Fallback)
	}
	if fd.Lemmatizer.Kind != "dictionary" || fd.Screens.Texts["site"] == "" {
		t.Fatalf("unexpected section %+v", fd)
	}
	if fd.Housekeeping.ForgetIdleAfter != 720*time.Hour {
		t.Fatalf("forget_idle_after = %v", fd.Housekeeping.ForgetIdleAfter)
	}
}

func TestLoadValidatesStorage(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "x")
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"unknown driver", "frontdesk:\n  storage:\n    driver: redis\n", false},
		{"postgres without database", "frontdesk:\n  storage:\n    driver: postgres\n", false},
		{"postgres", "frontdesk:\n  storage:\n    driver: Postgres\n  database:\n    name: insurebot\n    user: bot\n", true},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, tt.body))
		if (err == nil) != tt.ok {
			t.Fatalf("%s: err = %v", tt.name, err)
		}
		if tt.ok && cfg.Frontdesk.Storage.Driver != StoragePostgres {
			t.Fatalf("%s: driver = %q", tt.name, cfg.Frontdesk.Storage.Driver)
		}
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if _, err := Load(""); !errors.Is(err, coreconfig.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func noLogger(*coreconfig.Config) error { return nil }

func memoryConfig() *Config {
	cfg := &Config{}
	cfg.Telegram = coreconfig.TelegramConfig{Token: "x", AdminID: 1}
	cfg.Frontdesk.Storage.Driver = StorageMemory
	return cfg
}

func TestBootstrapMemory(t *testing.T) {
	a, err := BootstrapWith(memoryConfig(), bootstrap.Options{
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("memory storage must not connect")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer a.Close()

	if got := a.Resolver.Reply(context.Background(), "Здравствуйте!"); got != "Здравствуйте!" {
		t.Fatalf("reply = %q", got)
	}
	if _, err := a.Tracker.Enter(context.Background(), 3, screens.Site); err != nil {
		t.Fatalf("enter: %v", err)
	}
	stats, err := a.Tracker.Stats(context.Background())
	if err != nil || stats[screens.Site] != 1 {
		t.Fatalf("stats = %v, %v", stats, err)
	}
}

func TestBootstrapPostgresFailure(t *testing.T) {
	cfg := memoryConfig()
	cfg.Frontdesk.Storage.Driver = StoragePostgres
	cfg.Frontdesk.Database = coredatabase.Config{Name: "insurebot", User: "bot"}

	var seen coredatabase.Config
	_, err := BootstrapWith(cfg, bootstrap.Options{
		LoggerInit: noLogger,
		Connect: func(c coredatabase.Config) (*sqlx.DB, error) {
			seen = c
			return nil, errors.New("connection refused")
		},
	})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected connect error, got %v", err)
	}
	if seen.Name != "insurebot" || seen.Host != "localhost" {
		t.Fatalf("database config not passed through: %+v", seen)
	}
}

func TestBootstrapRejectsBadOverrides(t *testing.T) {
	cfg := memoryConfig()
	cfg.Frontdesk.Screens.Texts = map[string]string{"casino": "x"}
	if _, err := BootstrapWith(cfg, bootstrap.Options{LoggerInit: noLogger}); !errors.Is(err, screens.ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}

	cfg = memoryConfig()
	cfg.Frontdesk.Housekeeping.StatsSchedule = "every now and then"
	if _, err := BootstrapWith(cfg, bootstrap.Options{LoggerInit: noLogger}); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestTelegramRunOptions(t *testing.T) {
	a, err := BootstrapWith(memoryConfig(), bootstrap.Options{LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Config == nil || opts.Registry == nil {
		t.Fatal("config and registry must be set")
	}

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/start", "/help", "/stats", tele.OnCallback, tele.OnText, tele.OnDocument} {
		if !endpoints[want] {
			t.Fatalf("missing route %v", want)
		}
	}

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	if strings.Join(names, ",") != "recover,logger,metrics" {
		t.Fatalf("middlewares = %v", names)
	}

	if err := opts.OnStart(context.Background(), tg.Runtime{}); err != nil {
		t.Fatalf("on start: %v", err)
	}
	if err := opts.OnStop(context.Background(), tg.Runtime{}); err != nil {
		t.Fatalf("on stop: %v", err)
	}
}

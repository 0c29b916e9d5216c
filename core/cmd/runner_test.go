package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/insurebot/core/config"
	coretelegram "github.com/m3rciful/insurebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("INSUREBOT_TEST_VALUE=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_PATH", "")
	t.Cleanup(func() { os.Unsetenv("INSUREBOT_TEST_VALUE") })

	app := &fakeApp{}
	var loadedPath string
	started, stopped := false, false
	err := Run(Options{
		DefaultConfigPath: "configs/insurebot.yaml",
		DotEnvFiles:       []string{filepath.Join(dir, "missing.env"), envFile},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			if os.Getenv("INSUREBOT_TEST_VALUE") != "from-dotenv" {
				t.Fatal(".env must be loaded before config")
			}
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		Context:        context.Background(),
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loadedPath != "configs/insurebot.yaml" {
		t.Fatalf("config path = %q", loadedPath)
	}
	if !started || !stopped || !app.closed {
		t.Fatalf("started=%v stopped=%v closed=%v", started, stopped, app.closed)
	}
}

func TestRunErrors(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("expected error without LoadConfig")
	}
	loadErr := errors.New("no token")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, loadErr },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return &fakeApp{}, nil },
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

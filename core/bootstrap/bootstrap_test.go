package bootstrap

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/insurebot/core/config"
	coredatabase "github.com/m3rciful/insurebot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if connected || res.DB != nil {
		t.Fatal("database must not be touched without database config")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunAppliesDefaultsAndMigrates(t *testing.T) {
	var seen coredatabase.Config
	migrated := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{User: "bot", Name: "insure"},
		LoggerInit: noLogger,
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			seen = cfg
			return nil, nil
		},
		Migrate: func(coredatabase.Config) error { migrated = true; return nil },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if seen.Host != "localhost" || seen.Port != "5432" || !migrated {
		t.Fatalf("unexpected config %+v migrated=%v", seen, migrated)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"nil config", Options{}, "nil config"},
		{"logger", Options{Config: &coreconfig.Config{}, LoggerInit: func(*coreconfig.Config) error { return errors.New("disk") }}, "logger init"},
		{"invalid db", Options{Config: &coreconfig.Config{}, LoggerInit: noLogger, Database: &coredatabase.Config{}}, "database.name"},
		{"connect", Options{
			Config: &coreconfig.Config{}, LoggerInit: noLogger,
			Database: &coredatabase.Config{User: "u", Name: "n"},
			Connect:  func(coredatabase.Config) (*sqlx.DB, error) { return nil, errors.New("refused") },
		}, "database initialization"},
		{"migrate", Options{
			Config: &coreconfig.Config{}, LoggerInit: noLogger,
			Database: &coredatabase.Config{User: "u", Name: "n"},
			Connect:  func(coredatabase.Config) (*sqlx.DB, error) { return nil, nil },
			Migrate:  func(coredatabase.Config) error { return errors.New("dirty") },
		}, "migrations failed"},
	}
	for _, tt := range tests {
		_, err := Run(tt.opts)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: err = %v, want %q", tt.name, err, tt.want)
		}
	}
}

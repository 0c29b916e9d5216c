package app

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/insurebot/core/config"
	coredatabase "github.com/m3rciful/insurebot/core/database"
	"github.com/m3rciful/insurebot/frontdesk/housekeeping"
	"github.com/m3rciful/insurebot/frontdesk/replies"
)

// Storage drivers for the per-user screen.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// RepliesConfig points at the keyword table.
type RepliesConfig struct {
	// Path to a YAML reply table; empty uses the built-in table.
	Path     string `yaml:"path" envconfig:"REPLIES_PATH"`
	Fallback string `yaml:"fallback" envconfig:"REPLIES_FALLBACK"`
}

// ScreensConfig overrides screen texts keyed by screen id.
type ScreensConfig struct {
	Texts map[string]string `yaml:"texts" ignored:"true"`
}

// StorageConfig selects where user screens are kept.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// FrontdeskConfig holds the bot specific settings.
type FrontdeskConfig struct {
	Replies      RepliesConfig            `yaml:"replies"`
	Lemmatizer   replies.LemmatizerConfig `yaml:"lemmatizer"`
	Screens      ScreensConfig            `yaml:"screens"`
	Storage      StorageConfig            `yaml:"storage"`
	Database     coredatabase.Config      `yaml:"database"`
	Housekeeping housekeeping.Config      `yaml:"housekeeping"`
}

// Config is the full configuration of the bot.
type Config struct {
	coreconfig.Config `yaml:",inline"`
	Frontdesk         FrontdeskConfig `yaml:"frontdesk"`
}

// CoreConfig exposes the shared part to the core runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path (optional) and the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg.Frontdesk); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(fd *FrontdeskConfig) error {
	driver := strings.ToLower(strings.TrimSpace(fd.Storage.Driver))
	switch driver {
	case "":
		driver = StorageMemory
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("invalid frontdesk.storage.driver %q; allowed: memory, postgres", fd.Storage.Driver)
	}
	fd.Storage.Driver = driver

	if driver == StoragePostgres {
		if err := fd.Database.WithDefaults().Validate(); err != nil {
			return fmt.Errorf("frontdesk.%w", err)
		}
	}
	if fd.Housekeeping.ForgetIdleAfter < 0 {
		return fmt.Errorf("frontdesk.housekeeping.forget_idle_after must be >= 0")
	}
	fd.Replies.Path = strings.TrimSpace(fd.Replies.Path)
	fd.Replies.Fallback = strings.TrimSpace(fd.Replies.Fallback)
	return nil
}

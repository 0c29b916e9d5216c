// Package app wires the front-desk bot into the core runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/insurebot/core/bootstrap"
	"github.com/m3rciful/insurebot/core/logger"
	tg "github.com/m3rciful/insurebot/core/telegram"
	"github.com/m3rciful/insurebot/core/telegram/router"
	"github.com/m3rciful/insurebot/core/telegram/state"
	"github.com/m3rciful/insurebot/frontdesk/bot"
	"github.com/m3rciful/insurebot/frontdesk/housekeeping"
	"github.com/m3rciful/insurebot/frontdesk/replies"
	"github.com/m3rciful/insurebot/frontdesk/screens"
	"github.com/m3rciful/insurebot/frontdesk/storage"
)

// App holds everything built at startup.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	store    state.Store
	Resolver *replies.Resolver
	Tracker  *screens.Tracker
	Handlers *bot.Handlers
	House    *housekeeping.Housekeeper
}

// Bootstrap initializes logging, the optional database, and the bot services.
func Bootstrap(cfg *Config) (*App, error) {
	return BootstrapWith(cfg, bootstrap.Options{})
}

// BootstrapWith is Bootstrap with overridable infrastructure hooks.
// Config and Database in opts are filled from cfg.
func BootstrapWith(cfg *Config, opts bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts.Config = &cfg.Config
	opts.Database = nil
	if cfg.Frontdesk.Storage.Driver == StoragePostgres {
		db := cfg.Frontdesk.Database
		opts.Database = &db
	}
	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra}
	if err := a.build(); err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	fd := a.cfg.Frontdesk

	var forgetter housekeeping.Forgetter
	if a.infra.DB != nil {
		pg := storage.NewScreenStore(a.infra.DB)
		a.store, forgetter = pg, pg
	} else {
		a.store = state.NewMemoryStore()
	}

	table, err := replies.LoadTable(fd.Replies.Path)
	if err != nil {
		return fmt.Errorf("app: reply table: %w", err)
	}
	lem, err := replies.NewLemmatizer(fd.Lemmatizer)
	if err != nil {
		return fmt.Errorf("app: lemmatizer: %w", err)
	}
	if a.Resolver, err = replies.NewResolver(table, lem, fd.Replies.Fallback); err != nil {
		return fmt.Errorf("app: resolver: %w", err)
	}

	catalog, err := screens.NewCatalog(fd.Screens.Texts)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.Tracker = screens.NewTracker(a.store, catalog)
	a.Handlers = bot.New(a.Resolver, a.Tracker)

	if a.House, err = housekeeping.New(fd.Housekeeping, a.Tracker, forgetter); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	logger.Info(logger.Background(), "app", "bootstrap.done",
		slog.String("storage", fd.Storage.Driver),
		slog.Int("replies", table.Len()),
		slog.String("lemmatizer", lemmatizerKind(fd.Lemmatizer)),
	)
	return nil
}

func lemmatizerKind(cfg replies.LemmatizerConfig) string {
	if cfg.Kind == "" {
		return replies.KindDictionary
	}
	return cfg.Kind
}

// TelegramRunOptions registers handlers and builds the routes and middlewares.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.Handlers.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnknownDocument: a.Handlers.UnknownDocument(),
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, a.Handlers.OnRateLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			return a.House.Start(ctx)
		},
		OnStop: func(context.Context, tg.Runtime) error {
			a.House.Stop()
			return nil
		},
	}, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.infra.Close()
}

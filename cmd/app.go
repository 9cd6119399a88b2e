package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"git.skobk.in/skobkin/dota2-notify-bot/bot"
	"git.skobk.in/skobkin/dota2-notify-bot/checker"
	"git.skobk.in/skobkin/dota2-notify-bot/config"
	"git.skobk.in/skobkin/dota2-notify-bot/opendota"
	"git.skobk.in/skobkin/dota2-notify-bot/storage"
	"git.skobk.in/skobkin/dota2-notify-bot/storage/mongo"

	"github.com/mymmrac/telego"
)

// app holds everything both commands share. Close releases it.
type app struct {
	cfg     config.Config
	store   storage.Store
	api     *telego.Bot
	bot     *bot.Bot
	matches *opendota.Client
	checker *checker.Checker
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("main: Failed to load configuration", "error", err)
		return nil, err
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("main: Failed to initialize storage", "error", err, "driver", cfg.Storage.Driver)
		return nil, err
	}
	slog.Debug("main: Storage initialized successfully", "driver", cfg.Storage.Driver)

	api, err := bot.NewAPI(cfg.Telegram.Token, cfg.API.Timeout())
	if err != nil {
		_ = store.Close()
		slog.Error("main: Failed to initialize Telegram client", "error", err)
		return nil, fmt.Errorf("failed to create Telegram client: %w", err)
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		api:     api,
		bot:     bot.NewBot(api, store, cfg.Web.PublicBaseURL),
		matches: opendota.NewClient(cfg.API.OpenDotaBaseURL, cfg.API.Timeout()),
	}
	a.checker = checker.New(store, a.matches, a.bot, cfg.API.MatchDetailsURL, cfg.API.Timeout())

	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("main: Failed to close storage", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return storage.New(cfg.Driver, cfg.DSN())
	}
}

// Command notifyd runs the notification engine as a background daemon:
// it polls the restaurant platform API for the configured role and
// keeps durable read/deleted markers in a local SQLite store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/restaurant-notify/internal/credential"
	"github.com/nhle/restaurant-notify/internal/model"
	"github.com/nhle/restaurant-notify/internal/notify"
	"github.com/nhle/restaurant-notify/internal/source/rest"
	"github.com/nhle/restaurant-notify/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is not configured (see %s)", *configPath)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	token, err := credential.Get(cfg.API.CredentialKey)
	if err != nil {
		return fmt.Errorf("loading API token: %w", err)
	}

	kv, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening marker store: %w", err)
	}
	defer kv.Close()

	connector := rest.NewConnector(
		cfg.API.BaseURL,
		token,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
	)

	engine := notify.New(
		notify.Config{
			PollInterval: time.Duration(cfg.Engine.PollIntervalSec) * time.Second,
			FetchTimeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
		},
		notify.Sources{
			Orders:   connector,
			Messages: connector,
			Reviews:  connector,
			Users:    connector,
		},
		kv,
		log,
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	// The daemon has a fixed role from config; a fuller deployment
	// would feed this channel from the session layer.
	authCh := make(chan notify.AuthState, 1)
	authCh <- notify.AuthState{
		Role:          model.Role(cfg.Engine.Role),
		Authenticated: true,
	}

	log.Info().Str("role", cfg.Engine.Role).Str("api", cfg.API.BaseURL).
		Msg("notifyd started")

	engine.Run(ctx, authCh)

	log.Info().Msg("notifyd stopped")
	return nil
}

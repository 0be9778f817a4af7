package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaychat/relaychat-server/internal/config"
	"github.com/relaychat/relaychat-server/internal/core"
	"github.com/relaychat/relaychat-server/internal/store"
	"github.com/relaychat/relaychat-server/internal/store/sqlite"
	transporthttp "github.com/relaychat/relaychat-server/internal/transport/http"
	transporttcp "github.com/relaychat/relaychat-server/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	chat            *transporttcp.Server
	admin           *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	registry := core.NewRegistry(logger)
	dispatcher := core.NewDispatcher(registry, st, cfg.FileInboxDir, logger)
	chat := transporttcp.NewServer(cfg.ListenAddr, registry, dispatcher, cfg.MaxFileBytes, logger)
	admin := transporthttp.NewServer(cfg, logger)

	return &App{
		chat:            chat,
		admin:           admin,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts both servers and blocks until context cancellation or a fatal
// listen error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		serverErr <- a.chat.ListenAndServe(ctx)
	}()

	go func() {
		a.log.Info().Str("addr", a.admin.Addr).Msg("admin server listening")
		if err := a.admin.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			a.log.Error().Err(err).Msg("admin server failed")
		}
	}()

	select {
	case err := <-serverErr:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.log.Info().Msg("shutting down chat server")
		a.shutdown()
		return <-serverErr
	}
}

// shutdown stops both servers and closes the store.
func (a *App) shutdown() {
	a.chat.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.admin.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("failed to stop admin server")
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

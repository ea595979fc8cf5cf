package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kay0310/toolboxtalk-v27/internal/auth"
	"github.com/Kay0310/toolboxtalk-v27/internal/config"
	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/metrics"
	"github.com/Kay0310/toolboxtalk-v27/internal/service/minutes"
	"github.com/Kay0310/toolboxtalk-v27/internal/store"
	"github.com/Kay0310/toolboxtalk-v27/internal/store/sqlite"
	transporthttp "github.com/Kay0310/toolboxtalk-v27/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	archive         store.MinutesStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	var archive store.MinutesStore
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		archive = st
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("minutes archive enabled")
	} else {
		logger.Info().Msg("minutes archive disabled")
	}

	if cfg.JWTSecret == "" {
		logger.Warn().Msg("jwt_secret not set, sessions will not survive a restart")
	}
	tokens, err := auth.NewService(&auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.SessionTTL,
	})
	if err != nil {
		closeArchive(archive, logger)
		return nil, fmt.Errorf("init auth: %w", err)
	}

	loc, err := cfg.LoadLocation()
	if err != nil {
		logger.Warn().Err(err).Msg("unknown timezone, using UTC")
	}

	rooms := core.NewRoomStore(
		core.WithRejectOverwrite(cfg.RejectRoomOverwrite),
		core.WithLocation(loc),
		core.WithFooter(cfg.Footer),
	)
	hub := core.NewHub()
	m := metrics.New()

	svc := minutes.New(minutes.Deps{
		Rooms:          rooms,
		Hub:            hub,
		Archive:        archive,
		Tokens:         tokens,
		Metrics:        m,
		Log:            logger.With().Str("component", "minutes").Logger(),
		DefaultMembers: cfg.DefaultMembers,
	})

	server := transporthttp.NewServer(svc, tokens, m, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		archive:         archive,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the archive.
func (a *App) cleanup() {
	closeArchive(a.archive, a.log)
}

func closeArchive(archive store.MinutesStore, logger *zerolog.Logger) {
	if archive == nil {
		return
	}
	if err := archive.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close archive")
	} else {
		logger.Info().Msg("archive closed")
	}
}

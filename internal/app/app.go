package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tranducminh/quizsnap/internal/auth"
	"github.com/tranducminh/quizsnap/internal/config"
	"github.com/tranducminh/quizsnap/internal/generate"
	"github.com/tranducminh/quizsnap/internal/logging"
	"github.com/tranducminh/quizsnap/internal/server"
	"github.com/tranducminh/quizsnap/internal/session"
	"github.com/tranducminh/quizsnap/internal/store"
	ws "github.com/tranducminh/quizsnap/pkg/http/ws"
)

// Application aggregates shared infrastructure (store, machine, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	machine *session.Machine
	http    *http.Server

	redis  *redis.Client
	sqlite *store.SQLite
}

// New bootstraps the logger, persistence backend, quiz generator and the
// session machine, then wires the kiosk HTTP server around them.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	app := &Application{cfg: cfg, logger: logger}

	var st store.Store
	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemory()
	case "redis":
		app.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Store.RedisAddr,
			DB:   cfg.Store.RedisDB,
		})
		st = store.NewRedis(app.redis, cfg.Store.KeyPrefix, logger)
	case "sqlite":
		sq, err := store.OpenSQLite(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		app.sqlite = sq
		st = sq
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	gate, err := auth.NewGate(auth.GateConfig{
		Secret:   cfg.Teacher.Password,
		TokenKey: []byte(cfg.Teacher.TokenKey),
		TokenTTL: cfg.Teacher.TokenTTL,
		Issuer:   cfg.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("configure teacher gate: %w", err)
	}

	gen := generate.NewGemini(generate.GeminiConfig{
		APIKey:        cfg.Gemini.APIKey,
		Model:         cfg.Gemini.Model,
		Timeout:       cfg.Gemini.HTTPTimeout,
		QuestionCount: cfg.Gemini.QuestionCount,
	}, logger)

	hub := ws.NewHub(logger)

	machine := session.New(ctx, st, gen, logger, session.Options{
		SkipTeacherEntries: cfg.Session.SkipTeacherEntries,
		TeacherTestName:    cfg.Session.TeacherTestName,
		OnChange: func(snap session.Snapshot) {
			msg, err := server.StateMessage(snap)
			if err != nil {
				logger.Warn().Err(err).Msg("snapshot encode failed")
				return
			}
			hub.Broadcast(msg)
		},
	})
	app.machine = machine

	handler := server.NewHandler(machine, gate, hub, logger)
	app.http = server.NewHTTPServer(cfg, handler)

	return app, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.machine.Close()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.logger.Error().Err(err).Msg("sqlite shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// Package app assembles the tourism site from configuration: user store,
// session backend, auth service and HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api"
	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/core/ports"
	"github.com/tourismsite/tourism/internal/core/service"
	"github.com/tourismsite/tourism/internal/infrastructure/config"
	"github.com/tourismsite/tourism/internal/infrastructure/db/memory"
	"github.com/tourismsite/tourism/internal/infrastructure/db/mongo"
	"github.com/tourismsite/tourism/internal/infrastructure/db/postgres"
	"github.com/tourismsite/tourism/internal/infrastructure/db/redis"
)

const shutdownTimeout = 10 * time.Second

type userStore interface {
	ports.UserRepository
	ports.HealthChecker
}

type closer func(context.Context) error

type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	echo    *echo.Echo
	closers []closer
}

// New connects the configured backends and builds the router. On error every
// backend opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	users, err := a.openUserStore(ctx)
	if err != nil {
		return nil, err
	}
	checkers := []ports.HealthChecker{users}

	store, checker, err := a.openSessionStore(ctx)
	if err != nil {
		return nil, err
	}
	if checker != nil {
		checkers = append(checkers, checker)
	}

	scheme, err := service.NewPasswordScheme(cfg.PasswordScheme)
	if err != nil {
		return nil, err
	}
	if scheme.Name() == service.SchemePlain {
		log.Warn().Msg("PASSWORD_SCHEME=plain stores passwords as given; set PASSWORD_SCHEME=bcrypt to hash them")
	}

	authService := service.NewAuthService(users, scheme, log.With().Str("component", "auth").Logger())

	a.echo, err = api.NewRouter(api.Deps{
		Auth:           authService,
		Users:          users,
		SessionStore:   store,
		SessionName:    cfg.Session.Name,
		Checkers:       checkers,
		MetricsEnabled: cfg.MetricsEnabled,
		Log:            log,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_store", users.Name()).
		Str("session_backend", cfg.Session.Backend).
		Str("password_scheme", scheme.Name()).
		Msg("application initialised")
	return a, nil
}

func (a *App) openUserStore(ctx context.Context) (userStore, error) {
	switch a.cfg.UserStore {
	case config.StoreMemory:
		a.log.Warn().Msg("USER_STORE=memory keeps users in process memory only")
		return memory.NewUserRepository(), nil

	case config.StoreMongo:
		repo, disconnect, err := mongo.Open(ctx, mongo.Config{
			URI:      a.cfg.Mongo.URI,
			Database: a.cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, disconnect)
		return repo, nil

	default:
		db, err := postgres.Connect(ctx, postgres.Config{
			DSN:     a.cfg.Postgres.DSN,
			Migrate: a.cfg.Postgres.Migrate,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		return postgres.NewUserRepository(db), nil
	}
}

func (a *App) openSessionStore(ctx context.Context) (sessions.Store, ports.HealthChecker, error) {
	opts := session.CookieOptions(a.cfg.Session.MaxAge, !a.cfg.IsDevelopment())
	secret := []byte(a.cfg.Session.Secret)

	if a.cfg.Session.Backend != config.SessionRedis {
		return session.NewCookieStore(secret, opts), nil, nil
	}

	client, err := redis.Connect(ctx, redis.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })

	return redis.NewSessionStore(client, opts, secret), redis.NewChecker(client), nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.echo
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort("", a.cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("http server listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the backends in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

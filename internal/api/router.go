package api

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tourismsite/tourism/internal/api/handler"
	"github.com/tourismsite/tourism/internal/api/middleware"
	"github.com/tourismsite/tourism/internal/api/session"
	"github.com/tourismsite/tourism/internal/api/view"
	"github.com/tourismsite/tourism/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth           ports.AuthService
	Users          session.UserFinder
	SessionStore   sessions.Store
	SessionName    string
	Checkers       []ports.HealthChecker
	MetricsEnabled bool
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echosession.Middleware(d.SessionStore))

	if d.MetricsEnabled {
		mw, err := echoprometheus.MiddlewareConfig{
			Subsystem: "tourism",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}.ToMiddleware()
		if err != nil {
			return nil, fmt.Errorf("api: metrics middleware: %w", err)
		}
		e.Use(mw)
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	sessionManager := session.NewManager(d.SessionName, d.Users, d.Log)
	renderer, err := view.NewRenderer(sessionManager, d.Log)
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	authHandler := handler.NewAuthHandler(d.Auth, sessionManager, d.Log)
	pageHandler := handler.NewPageHandler(sessionManager)
	requireAuth := middleware.RequireLogin(sessionManager)

	// --- Pages ---
	e.GET("/", pageHandler.Root)
	e.GET("/home", pageHandler.Home, requireAuth)
	e.GET("/about", pageHandler.About)

	// --- Auth routes ---
	e.GET("/register", authHandler.ShowRegister)
	e.POST("/register", authHandler.Register)
	e.GET("/login", authHandler.ShowLogin)
	e.POST("/login", authHandler.Login)
	e.GET("/logout", authHandler.Logout, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checkers...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e, nil
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			level := zerolog.InfoLevel
			if v.Error != nil {
				level = zerolog.ErrorLevel
			}
			log.WithLevel(level).
				Err(v.Error).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, Redis client, Echo instance)
// and wires the auth plugin onto it.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/bestlab/internal/config"
	"github.com/keyxmakerx/bestlab/internal/middleware"
	"github.com/keyxmakerx/bestlab/internal/plugins/auth"
)

// serviceName is reported by the health endpoint.
const serviceName = "Best Lab API"

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool.
	DB *sql.DB

	// Redis is the Redis client. Nil when Redis is not configured and the
	// session store does not need it.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Reaper sweeps expired sessions. Set by RegisterRoutes; main runs it.
	Reaper *auth.Reaper
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP.
	if err := middleware.TrustedProxies(e, middleware.DefaultTrustedProxies); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
	}

	app.setupMiddleware()

	// Map AppErrors to the JSON envelope. Development shows internal causes.
	e.HTTPErrorHandler = middleware.ErrorHandler(cfg.IsDevelopment())

	return app, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request ID, echoed in X-Request-Id and logged with each request.
	a.Echo.Use(echomw.RequestID())

	// Request logging -- log every request with method, path, status, latency.
	a.Echo.Use(middleware.RequestLogger())

	// Security headers -- CSP, X-Frame-Options, X-Content-Type-Options, etc.
	a.Echo.Use(middleware.SecurityHeaders(a.Config.IsProduction()))

	// CORS -- the frontend may be served from a dev server or preview host.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   a.Config.AllowedOrigins,
		AllowCredentials: true,
	}))

	// Bound request bodies; auth payloads are tiny.
	a.Echo.Use(echomw.BodyLimit("64K"))
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Best Lab server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

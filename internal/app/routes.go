package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/keyxmakerx/bestlab/internal/config"
	"github.com/keyxmakerx/bestlab/internal/middleware"
	"github.com/keyxmakerx/bestlab/internal/plugins/auth"
)

// healthTimeout bounds each store ping in the health check.
const healthTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to the auth plugin's route registration function.
//
// This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	e.GET("/api/health", a.health)

	// --- Auth plugin ---
	sessions := a.sessionStore()
	creds := auth.NewCredentialStore(auth.NewUserRepository(a.DB), a.Config.Auth.BcryptCost)
	authService := auth.NewAuthService(creds, sessions, a.Config.Auth.SessionTTL)
	auth.RegisterRoutes(e, auth.NewHandler(authService), authService)

	if a.Config.Auth.SweepInterval > 0 {
		a.Reaper = auth.NewReaper(sessions, a.Config.Auth.SweepInterval)
	}

	a.registerFrontend()
}

// sessionStore builds the session backend selected by SESSION_STORE.
func (a *App) sessionStore() auth.SessionStore {
	if a.Config.Auth.SessionStore == config.SessionStoreRedis {
		return auth.NewRedisSessionStore(a.Redis)
	}
	return auth.NewSQLSessionStore(a.DB)
}

// healthResponse is the body of GET /api/health.
type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// health reports process liveness plus a ping of each backing store.
// Any failed ping turns the response into a 503.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Service:   serviceName,
		Checks:    map[string]string{},
	}
	code := http.StatusOK

	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			resp.Checks[name] = "down"
			resp.Status = "DEGRADED"
			code = http.StatusServiceUnavailable
			return
		}
		resp.Checks[name] = "up"
	}

	if a.DB != nil {
		check("mariadb", a.DB.PingContext)
	}
	if a.Redis != nil {
		check("redis", func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() })
	}

	return c.JSON(code, resp)
}

// registerFrontend serves the built SPA from StaticDir. Unknown non-API
// paths fall back to index.html so client-side routing works; unknown API
// paths stay JSON 404s.
func (a *App) registerFrontend() {
	dir := a.Config.StaticDir
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		slog.Info("no frontend build found, serving API only", slog.String("dir", dir))
		return
	}

	a.Echo.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  dir,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return middleware.IsAPIRequest(c)
		},
	}))
}

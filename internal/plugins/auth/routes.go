package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all auth routes under /api/auth. RequireAuth gates
// the profile endpoints; logout only needs a bearer token to be present.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	g := e.Group("/api/auth")

	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/session", h.Session, OptionalAuth(service))

	requireAuth := RequireAuth(service)
	g.GET("/profile", h.GetProfile, requireAuth)
	g.PUT("/profile", h.UpdateProfile, requireAuth)
}

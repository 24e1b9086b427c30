package auth

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// Context keys for storing the caller's identity in Echo context. Handlers
// use the exported getter functions below instead of reading them directly.
const (
	contextKeyIdentity = "auth_identity"
	contextKeyUserID   = "auth_user_id"
)

// RequireAuth returns middleware that resolves the bearer token to an
// identity and rejects the request with 401 when it cannot.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperror.NewUnauthorized("No token provided")
			}

			identity, err := service.ResolveToken(c.Request().Context(), token)
			if err != nil {
				return err
			}

			setIdentity(c, identity)
			return next(c)
		}
	}
}

// OptionalAuth returns middleware that attaches an identity when the bearer
// token resolves to one and otherwise lets the request through anonymous.
func OptionalAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return next(c)
			}

			identity, err := service.ResolveToken(c.Request().Context(), token)
			if err != nil {
				if apperror.SafeCode(err) >= 500 {
					slog.Warn("optional auth could not resolve token",
						slog.String("path", c.Path()),
						slog.Any("error", err),
					)
				}
				return next(c)
			}

			setIdentity(c, identity)
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, identity *Identity) {
	c.Set(contextKeyIdentity, identity)
	c.Set(contextKeyUserID, identity.UserID)
}

// --- Exported getters ---

// GetIdentity retrieves the authenticated caller from the Echo context.
// Returns nil if the request is not authenticated.
func GetIdentity(c echo.Context) *Identity {
	identity, ok := c.Get(contextKeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetToken returns the raw bearer token of the authenticated request, or
// empty string.
func GetToken(c echo.Context) string {
	if identity := GetIdentity(c); identity != nil {
		return identity.Token
	}
	return ""
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

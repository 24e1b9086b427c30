package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests. An entry "*.example.com" matches any http(s) origin whose
	// host is a subdomain of example.com. "*" allows every origin.
	// Example: ["http://localhost:5173", "*.vercel.app"]
	AllowedOrigins []string

	// AllowCredentials indicates whether the browser should include
	// credentials in cross-origin requests.
	AllowCredentials bool
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the frontend, which may be served from a different origin (local dev
// server, preview deployments) than the API.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	var suffixes []string
	for _, o := range cfg.AllowedOrigins {
		switch {
		case o == "*":
			allowAll = true
		case strings.HasPrefix(o, "*."):
			suffixes = append(suffixes, strings.ToLower(o[1:])) // keep the leading dot
		default:
			originSet[strings.TrimRight(o, "/")] = true
		}
	}

	// SECURITY: Wildcard origin with credentials is a dangerous misconfiguration.
	// It allows any website to make authenticated requests to the API. Refuse to
	// send credentials when the origin is a wildcard.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS misconfiguration: AllowedOrigins=['*'] with AllowCredentials=true is insecure; credentials will NOT be sent. Specify explicit origins instead.")
		cfg.AllowCredentials = false
	}

	allowed := func(origin string) bool {
		if allowAll || originSet[origin] {
			return true
		}
		return matchesSuffix(origin, suffixes)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get(echo.HeaderOrigin)

			// No Origin header means same-origin or non-browser request.
			if origin == "" {
				return next(c)
			}

			res.Header().Add(echo.HeaderVary, echo.HeaderOrigin)

			if !allowed(origin) {
				slog.Debug("CORS blocked origin", slog.String("origin", origin))
				// Proceed without CORS headers; the browser blocks the response.
				return next(c)
			}

			res.Header().Set(echo.HeaderAccessControlAllowOrigin, origin)
			if cfg.AllowCredentials {
				res.Header().Set(echo.HeaderAccessControlAllowCredentials, "true")
			}

			// Handle preflight OPTIONS requests.
			if req.Method == http.MethodOptions {
				res.Header().Set(echo.HeaderAccessControlAllowMethods,
					strings.Join([]string{
						http.MethodGet,
						http.MethodPost,
						http.MethodPut,
						http.MethodDelete,
						http.MethodOptions,
					}, ", "))

				res.Header().Set(echo.HeaderAccessControlAllowHeaders,
					strings.Join([]string{
						"Content-Type",
						"Authorization",
						"Accept",
						"Origin",
						"X-Requested-With",
					}, ", "))

				// Cache preflight response for 1 hour to reduce preflight requests.
				res.Header().Set(echo.HeaderAccessControlMaxAge, "3600")

				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}

// matchesSuffix reports whether origin is an http(s) URL whose host ends in
// one of the given ".domain" suffixes.
func matchesSuffix(origin string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range suffixes {
		if strings.HasSuffix(host, s) && len(host) > len(s) {
			return true
		}
	}
	return false
}

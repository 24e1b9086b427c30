package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a successful envelope with the given status code.
func Success(c echo.Context, statusCode int, message string, data any) error {
	return c.JSON(statusCode, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fail writes a failure envelope. errText is the short error class (usually
// the HTTP status text); message is the client-safe detail.
func Fail(c echo.Context, statusCode int, errText, message string) error {
	return c.JSON(statusCode, Envelope{
		Success: false,
		Error:   errText,
		Message: message,
	})
}

// IsAPIRequest returns true if the request targets the /api path.
func IsAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

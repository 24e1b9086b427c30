package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// ErrorHandler returns an Echo error handler that maps domain errors
// (AppError) to the JSON envelope. When exposeInternal is true (development),
// 500 responses carry the underlying cause in the message.
func ErrorHandler(exposeInternal bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't double-write if response is already committed.
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Something went wrong"
		var cause error

		var appErr *apperror.AppError
		var echoErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			code = appErr.Code
			message = appErr.Message
			cause = appErr.Internal

			// Log internal errors with the underlying cause.
			if appErr.Internal != nil {
				slog.Error("internal error",
					slog.String("type", appErr.Type),
					slog.String("message", appErr.Message),
					slog.Any("internal", appErr.Internal),
					slog.String("path", c.Request().URL.Path),
				)
			}

		case errors.As(err, &echoErr):
			// Echo's built-in HTTP errors (404 from router, 405, bind errors).
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}

		default:
			cause = err
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}

		if exposeInternal && code >= http.StatusInternalServerError && cause != nil {
			message = message + ": " + cause.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}

		// Unknown API routes echo the path and method back.
		if code == http.StatusNotFound && appErr == nil && IsAPIRequest(c) {
			_ = c.JSON(code, map[string]any{
				"success": false,
				"error":   "API Route not found",
				"path":    c.Request().URL.RequestURI(),
				"method":  c.Request().Method,
			})
			return
		}

		_ = Fail(c, code, http.StatusText(code), message)
	}
}

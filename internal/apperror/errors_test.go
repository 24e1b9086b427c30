package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
		typ  string
	}{
		{"validation", NewValidation("bad"), http.StatusBadRequest, TypeValidation},
		{"unauthorized", NewUnauthorized("nope"), http.StatusUnauthorized, TypeAuthentication},
		{"conflict", NewConflict("dup"), http.StatusConflict, TypeConflict},
		{"not found", NewNotFound("gone"), http.StatusNotFound, TypeNotFound},
		{"internal", NewInternal(errors.New("boom")), http.StatusInternalServerError, TypeInternal},
		{"store", NewStore("Login failed", errors.New("boom")), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.err.Code)
			}
			if tt.err.Type != tt.typ {
				t.Errorf("expected type %s, got %s", tt.typ, tt.err.Type)
			}
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")
	err := NewInternal(cause)

	if SafeMessage(err) == cause.Error() {
		t.Fatal("internal cause leaked into safe message")
	}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestSafeHelpers_NonAppError(t *testing.T) {
	err := errors.New("raw")

	if SafeCode(err) != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", SafeCode(err))
	}
	if SafeMessage(err) != "Something went wrong" {
		t.Errorf("unexpected message %q", SafeMessage(err))
	}
}

func TestIs_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("finding user: %w", NewNotFound("User not found"))

	if !IsNotFound(err) {
		t.Error("expected wrapped not-found to match")
	}
	if IsConflict(err) {
		t.Error("did not expect conflict match")
	}
	if SafeCode(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %d", SafeCode(err))
	}
}

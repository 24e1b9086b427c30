package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/bestlab/internal/apperror"
	"github.com/keyxmakerx/bestlab/internal/middleware"
)

// Handler handles HTTP requests for authentication. Handlers are thin: they
// bind the request, call the service, and write the envelope. No business
// logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// userData is the data payload of profile responses.
type userData struct {
	User PublicUser `json:"user"`
}

// sessionData is the data payload of GET /api/auth/session.
type sessionData struct {
	Authenticated bool        `json:"authenticated"`
	User          *PublicUser `json:"user,omitempty"`
}

// Register creates an account and returns a session (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	result, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return middleware.Success(c, http.StatusCreated, "Account created successfully", result)
}

// Login authenticates and returns a session (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	result, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return middleware.Success(c, http.StatusOK, "Login successful", result)
}

// GetProfile returns the caller's profile (GET /api/auth/profile).
func (h *Handler) GetProfile(c echo.Context) error {
	user, err := h.service.GetProfile(c.Request().Context(), GetUserID(c))
	if err != nil {
		return err
	}

	return middleware.Success(c, http.StatusOK, "", userData{User: *user})
}

// UpdateProfile changes the caller's names and username (PUT /api/auth/profile).
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), GetUserID(c), ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		return err
	}

	return middleware.Success(c, http.StatusOK, "Profile updated successfully", userData{User: *user})
}

// Logout deletes the session named by the bearer token (POST /api/auth/logout).
// The token does not have to resolve to a live session: a token whose
// session is already gone gets a 404 rather than a 401.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), bearerToken(c)); err != nil {
		return err
	}

	return middleware.Success(c, http.StatusOK, "Logged out successfully", nil)
}

// Session reports whether the bearer token is currently valid
// (GET /api/auth/session). Runs behind OptionalAuth.
func (h *Handler) Session(c echo.Context) error {
	identity := GetIdentity(c)
	if identity == nil {
		return middleware.Success(c, http.StatusOK, "", sessionData{})
	}

	user, err := h.service.GetProfile(c.Request().Context(), identity.UserID)
	if apperror.IsNotFound(err) {
		return middleware.Success(c, http.StatusOK, "", sessionData{})
	}
	if err != nil {
		return err
	}

	return middleware.Success(c, http.StatusOK, "", sessionData{Authenticated: true, User: user})
}

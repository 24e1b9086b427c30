package auth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// touchTimeout bounds the detached last-login update.
const touchTimeout = 5 * time.Second

// emailPattern is a structural check only: one @, non-empty local part, and
// a dotted domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the stores directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	ResolveToken(ctx context.Context, token string) (*Identity, error)
	GetProfile(ctx context.Context, userID string) (*PublicUser, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*PublicUser, error)
}

// authService implements AuthService over a credential store and a
// session store.
type authService struct {
	creds      *CredentialStore
	sessions   SessionStore
	sessionTTL time.Duration
	bcryptCost int
	now        func() time.Time

	// background runs best-effort work off the request path.
	background func(func())
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(creds *CredentialStore, sessions SessionStore, sessionTTL time.Duration) AuthService {
	return &authService{
		creds:      creds,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		bcryptCost: creds.bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
		background: func(f func()) { go f() },
	}
}

// Register creates a new account and signs it in. The existence check gives
// the friendly conflict message; the unique indexes catch the race where two
// registrations pass it concurrently.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Username == "" || input.Email == "" || input.Password == "" ||
		input.FirstName == "" || input.LastName == "" {
		return nil, apperror.NewValidation("All fields are required")
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, apperror.NewValidation("Invalid email format")
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, apperror.NewValidation(fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}

	exists, err := s.creds.Exists(ctx, input.Email, input.Username)
	if err != nil {
		return nil, apperror.NewStore("Registration failed", fmt.Errorf("checking existing user: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("User with this email or username already exists")
	}

	user, err := s.creds.Create(ctx, NewUser{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if apperror.IsConflict(err) || apperror.IsValidation(err) {
		return nil, err
	}
	if err != nil {
		return nil, apperror.NewStore("Registration failed", fmt.Errorf("creating user: %w", err))
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewStore("Registration failed", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{
		User:      s.creds.PublicView(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Login authenticates by email and password and mints a new session.
// Unknown email and wrong password produce the same error.
func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, apperror.NewValidation("Email and password are required")
	}

	user, err := s.creds.FindByEmail(ctx, input.Email)
	if apperror.IsNotFound(err) {
		burnPasswordCheck(input.Password, s.bcryptCost)
		return nil, apperror.NewUnauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, apperror.NewStore("Login failed", fmt.Errorf("finding user: %w", err))
	}

	if !s.creds.VerifyPassword(user, input.Password) {
		return nil, apperror.NewUnauthorized("Invalid credentials")
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewStore("Login failed", err)
	}

	s.touchLastLogin(user.ID)

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &AuthResult{
		User:      s.creds.PublicView(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout deletes the session for token. A token matching no session is
// reported as not found.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperror.NewUnauthorized("No token provided")
	}

	deleted, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		return apperror.NewStore("Logout failed", fmt.Errorf("deleting session: %w", err))
	}
	if !deleted {
		return apperror.NewNotFound("Session not found")
	}

	return nil
}

// ResolveToken maps a bearer token to the identity of its session's owner.
// All rejections are 401s; store faults are 500s.
func (s *authService) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("No token provided")
	}

	session, err := s.sessions.FindValidByToken(ctx, token)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewUnauthorized("Invalid or expired token")
	}
	if err != nil {
		return nil, apperror.NewStore("Authentication failed", fmt.Errorf("finding session: %w", err))
	}

	// Sessions hold a weak reference; the user may be gone.
	user, err := s.creds.FindByID(ctx, session.UserID)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewUnauthorized("User not found")
	}
	if err != nil {
		return nil, apperror.NewStore("Authentication failed", fmt.Errorf("finding session user: %w", err))
	}

	return &Identity{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		RoleID:    user.RoleID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Token:     token,
	}, nil
}

// GetProfile returns the public view of the given user.
func (s *authService) GetProfile(ctx context.Context, userID string) (*PublicUser, error) {
	user, err := s.creds.FindByID(ctx, userID)
	if apperror.IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, apperror.NewStore("Failed to get profile", fmt.Errorf("finding user: %w", err))
	}

	view := s.creds.PublicView(user)
	return &view, nil
}

// UpdateProfile changes first name, last name, and username. Keeping one's
// own username is not a conflict.
func (s *authService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*PublicUser, error) {
	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	update.Username = strings.TrimSpace(update.Username)

	if update.FirstName == "" || update.LastName == "" || update.Username == "" {
		return nil, apperror.NewValidation("First name, last name, and username are required")
	}

	owner, err := s.creds.FindByUsername(ctx, update.Username)
	switch {
	case err == nil && owner.ID != userID:
		return nil, apperror.NewConflict("Username already taken")
	case err != nil && !apperror.IsNotFound(err):
		return nil, apperror.NewStore("Failed to update profile", fmt.Errorf("checking username: %w", err))
	}

	user, err := s.creds.Update(ctx, userID, update)
	if apperror.IsNotFound(err) || apperror.IsConflict(err) {
		return nil, err
	}
	if err != nil {
		return nil, apperror.NewStore("Failed to update profile", fmt.Errorf("updating user: %w", err))
	}

	slog.Info("profile updated", slog.String("user_id", user.ID))

	view := s.creds.PublicView(user)
	return &view, nil
}

// issueSession mints a random token and persists a session expiring one
// TTL from now.
func (s *authService) issueSession(ctx context.Context, userID string) (*Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	session, err := s.sessions.Create(ctx, userID, token, s.now().Add(s.sessionTTL))
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return session, nil
}

// touchLastLogin updates the user's last-login timestamp off the request
// path. Failures are logged and dropped.
func (s *authService) touchLastLogin(userID string) {
	s.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := s.creds.TouchLastLogin(ctx, userID); err != nil {
			slog.Warn("failed to update last login",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	})
}

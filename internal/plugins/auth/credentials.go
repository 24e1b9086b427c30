package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// CredentialStore owns user identity records. It normalizes emails, hashes
// passwords on create, and verifies candidates against stored hashes. The
// repository below it only ever sees lowercase emails and bcrypt hashes.
type CredentialStore struct {
	repo       UserRepository
	bcryptCost int
	now        func() time.Time
}

// NewCredentialStore creates a credential store hashing at bcryptCost.
func NewCredentialStore(repo UserRepository, bcryptCost int) *CredentialStore {
	return &CredentialStore{
		repo:       repo,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// FindByEmail looks up a user by email, ignoring case.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

// FindByUsername looks up a user by exact username.
func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// FindByID looks up a user by ID.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Exists reports whether either the email or the username is taken.
func (s *CredentialStore) Exists(ctx context.Context, email, username string) (bool, error) {
	return s.repo.Exists(ctx, normalizeEmail(email), username)
}

// Create hashes the password, assigns an ID and the default role, and
// persists the record. The returned user includes the hash.
func (s *CredentialStore) Create(ctx context.Context, in NewUser) (*User, error) {
	hash, err := hashPassword(in.Password, s.bcryptCost)
	if isPasswordTooLong(err) {
		return nil, apperror.NewValidation(fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		RoleID:       DefaultRoleID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Update changes first name, last name, and username and returns a new
// snapshot of the record. Existing *User values are never mutated.
func (s *CredentialStore) Update(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	return s.repo.Update(ctx, id, update, s.now())
}

// TouchLastLogin advances the user's updated-at timestamp.
func (s *CredentialStore) TouchLastLogin(ctx context.Context, id string) error {
	return s.repo.TouchLastLogin(ctx, id, s.now())
}

// VerifyPassword reports whether candidate matches the user's stored hash.
func (s *CredentialStore) VerifyPassword(user *User, candidate string) bool {
	return verifyPassword(user.PasswordHash, candidate)
}

// PublicView returns the client-safe projection of user.
func (s *CredentialStore) PublicView(user *User) PublicUser {
	return user.Public()
}

// normalizeEmail lowercases and trims an email for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

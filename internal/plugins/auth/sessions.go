package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// ErrSweepNotSupported is returned by SessionStore.DeleteExpired when the
// backend expires records on its own and cannot enumerate expired ones.
// It is a capability gap, not a count of zero.
var ErrSweepNotSupported = errors.New("session store does not support expiry sweeps")

// SessionStore persists sessions keyed by token. Implementations store a
// SHA-256 hash of the token, never the token itself.
type SessionStore interface {
	// Create stores a new session for userID and returns it with Token set.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*Session, error)

	// FindValidByToken returns the session for token if it has not expired.
	// Returns apperror.NotFound when there is no unexpired match.
	FindValidByToken(ctx context.Context, token string) (*Session, error)

	// DeleteByToken deletes every session matching token and reports
	// whether anything was deleted.
	DeleteByToken(ctx context.Context, token string) (bool, error)

	// DeleteExpired removes expired sessions and returns how many were
	// removed, or ErrSweepNotSupported.
	DeleteExpired(ctx context.Context) (int64, error)
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashToken returns the hex SHA-256 of a session token. Deterministic, so
// it can be used as a lookup key.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

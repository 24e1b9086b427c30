package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// rather than silently truncated.
const maxPasswordBytes = 72

// hashPassword creates a salted bcrypt hash of password at the given cost.
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// verifyPassword checks a plaintext candidate against a stored bcrypt hash.
// The comparison is constant-time in the hash output. Malformed hashes and
// candidates past bcrypt's input limit never match; bcrypt would otherwise
// compare only their first 72 bytes.
func verifyPassword(encodedHash, candidate string) bool {
	if len(candidate) > maxPasswordBytes {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(candidate))
	return err == nil
}

// dummyHash is compared against when a login email has no account, so the
// unknown-email path spends the same bcrypt work as a wrong password.
var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

func burnPasswordCheck(candidate string, cost int) {
	if len(candidate) > maxPasswordBytes {
		return
	}
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
		if err == nil {
			dummyHash = h
		}
	})
	if dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(candidate))
	}
}

// isPasswordTooLong reports whether err came from bcrypt's length limit.
func isPasswordTooLong(err error) bool {
	return errors.Is(err, bcrypt.ErrPasswordTooLong)
}

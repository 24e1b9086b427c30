package auth

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("my-secure-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !verifyPassword(hash, "my-secure-password") {
		t.Error("expected password to verify")
	}
	if verifyPassword(hash, "my-secure-passwordX") {
		t.Error("expected different password to fail")
	}
	if verifyPassword(hash, "") {
		t.Error("expected empty password to fail")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	for _, hash := range []string{"", "not-a-hash", "$2a$10$short", "my-secure-password"} {
		if verifyPassword(hash, "my-secure-password") {
			t.Errorf("expected malformed hash %q to never match", hash)
		}
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, _ := hashPassword("same-password", bcrypt.MinCost)
	h2, _ := hashPassword("same-password", bcrypt.MinCost)
	if h1 == h2 {
		t.Error("expected different hashes for the same password")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := hashPassword(strings.Repeat("a", maxPasswordBytes+1), bcrypt.MinCost)
	if !isPasswordTooLong(err) {
		t.Errorf("expected password-too-long error, got %v", err)
	}
}

func TestVerifyPassword_RejectsLongerCandidate(t *testing.T) {
	password := strings.Repeat("a", maxPasswordBytes)
	hash, err := hashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !verifyPassword(hash, password) {
		t.Error("expected 72-byte password to verify")
	}
	for _, suffix := range []string{"a", "-anything", strings.Repeat("z", 100)} {
		if verifyPassword(hash, password+suffix) {
			t.Errorf("expected candidate with suffix %q to fail", suffix)
		}
	}
}

func TestBurnPasswordCheck_DoesNotPanic(t *testing.T) {
	burnPasswordCheck("anything", bcrypt.MinCost)
	burnPasswordCheck("", bcrypt.MinCost)
	burnPasswordCheck(strings.Repeat("a", maxPasswordBytes+1), bcrypt.MinCost)
}

func TestCredentialStore_CreateAndVerify(t *testing.T) {
	var stored *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			stored = user
			return nil
		},
	}
	creds := NewCredentialStore(repo, bcrypt.MinCost)

	user, err := creds.Create(context.Background(), NewUser{
		Username:  "bob",
		Email:     "  Bob@Example.COM ",
		Password:  "hunter22",
		FirstName: "Bob",
		LastName:  "Builder",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored != user {
		t.Error("expected the created record to be passed to the repository")
	}
	if user.Email != "bob@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if user.ID == "" || user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Errorf("expected id and matching timestamps, got %+v", user)
	}
	if !creds.VerifyPassword(user, "hunter22") || creds.VerifyPassword(user, "hunter23") {
		t.Error("password verification mismatch")
	}

	view := creds.PublicView(user)
	if view.UserID != user.ID || view.Email != user.Email {
		t.Errorf("unexpected public view: %+v", view)
	}
}

func TestCredentialStore_CreateRejectsLongPassword(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			t.Error("repository must not be reached")
			return nil
		},
	}
	creds := NewCredentialStore(repo, bcrypt.MinCost)

	_, err := creds.Create(context.Background(), NewUser{Password: strings.Repeat("p", 100)})
	assertAppError(t, err, 400)
}

func TestCredentialStore_FindByEmailNormalizes(t *testing.T) {
	var got string
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			got = email
			return &User{ID: "u"}, nil
		},
	}
	creds := NewCredentialStore(repo, bcrypt.MinCost)

	if _, err := creds.FindByEmail(context.Background(), " MiXeD@Case.Org"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "mixed@case.org" {
		t.Errorf("expected normalized lookup, got %q", got)
	}
}

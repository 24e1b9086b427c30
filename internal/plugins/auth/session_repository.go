package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// sqlSessionStore implements SessionStore on the MariaDB sessions table.
type sqlSessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLSessionStore creates a session store backed by the given DB pool.
func NewSQLSessionStore(db *sql.DB) SessionStore {
	return &sqlSessionStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a session row holding the hash of token.
func (s *sqlSessionStore) Create(ctx context.Context, userID, token string, expiresAt time.Time) (session *Session, err error) {
	defer observeStore(ctx, "sessions.create", time.Now(), &err)

	session = &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		CreatedAt: s.now(),
		ExpiresAt: expiresAt.UTC(),
	}

	query := `INSERT INTO sessions (session_id, user_id, token_hash, created_at, expires_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		hashToken(token),
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	return session, nil
}

// FindValidByToken returns the unexpired session for token. Expiry is
// checked in the query so an expired row is indistinguishable from a
// missing one.
func (s *sqlSessionStore) FindValidByToken(ctx context.Context, token string) (session *Session, err error) {
	defer observeStore(ctx, "sessions.find_valid", time.Now(), &err)

	query := `SELECT session_id, user_id, created_at, expires_at
	          FROM sessions
	          WHERE token_hash = ? AND expires_at > ?
	          LIMIT 1`

	session = &Session{}
	err = s.db.QueryRowContext(ctx, query, hashToken(token), s.now()).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	return session, nil
}

// DeleteByToken removes the session row for token, expired or not.
func (s *sqlSessionStore) DeleteByToken(ctx context.Context, token string) (deleted bool, err error) {
	defer observeStore(ctx, "sessions.delete", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hashToken(token))
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}

	return n > 0, nil
}

// DeleteExpired removes every session whose expiry has passed.
func (s *sqlSessionStore) DeleteExpired(ctx context.Context) (n int64, err error) {
	defer observeStore(ctx, "sessions.delete_expired", time.Now(), &err)

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	n, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}

	return n, nil
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// redisSession is the JSON value stored under a session key.
type redisSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// redisSessionStore implements SessionStore on Redis. Each session is one
// key whose TTL matches the session expiry, so Redis drops expired
// sessions itself.
type redisSessionStore struct {
	redis *redis.Client
	now   func() time.Time
}

// NewRedisSessionStore creates a session store backed by the given client.
func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{
		redis: rdb,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores the session under the hash of token with a TTL ending at
// expiresAt. A key collision is reported as an error, never overwritten.
func (s *redisSessionStore) Create(ctx context.Context, userID, token string, expiresAt time.Time) (session *Session, err error) {
	defer observeStore(ctx, "sessions.create", time.Now(), &err)

	now := s.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil, fmt.Errorf("session expiry %s is not in the future", expiresAt)
	}

	session = &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt.UTC(),
	}

	data, err := json.Marshal(redisSession{
		ID:        session.ID,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling session: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, sessionKeyPrefix+hashToken(token), data, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("storing session in Redis: %w", err)
	}
	if !ok {
		return nil, errors.New("session token collision")
	}

	return session, nil
}

// FindValidByToken reads the session for token. Expiry is rechecked on
// read because Redis expiry has millisecond resolution and may lag.
func (s *redisSessionStore) FindValidByToken(ctx context.Context, token string) (session *Session, err error) {
	defer observeStore(ctx, "sessions.find_valid", time.Now(), &err)

	data, err := s.redis.Get(ctx, sessionKeyPrefix+hashToken(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewNotFound("Session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("reading session from Redis: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}

	session = &Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}
	if !session.ValidAt(s.now()) {
		return nil, apperror.NewNotFound("Session not found")
	}

	return session, nil
}

// DeleteByToken removes the session key for token.
func (s *redisSessionStore) DeleteByToken(ctx context.Context, token string) (deleted bool, err error) {
	defer observeStore(ctx, "sessions.delete", time.Now(), &err)

	n, err := s.redis.Del(ctx, sessionKeyPrefix+hashToken(token)).Result()
	if err != nil {
		return false, fmt.Errorf("deleting session from Redis: %w", err)
	}

	return n > 0, nil
}

// DeleteExpired is not supported; Redis key TTLs already expire sessions.
func (s *redisSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, ErrSweepNotSupported
}

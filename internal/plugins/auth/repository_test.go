package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

var userRowColumns = []string{
	"user_id", "username", "email", "password_hash", "role_id",
	"firstname", "lastname", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func userRow(id string) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, "alice", "alice@example.com", "$2a$10$hash", 1, "Alice", "Liddell", now, now)
}

func duplicateEntry() error {
	return &mysql.MySQLError{Number: mysqlErrDuplicateEntry, Message: "Duplicate entry"}
}

// --- User repository ---

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u-1", "alice", "alice@example.com", "hash", 1, "Alice", "Liddell", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &User{
		ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: "hash",
		RoleID: 1, FirstName: "Alice", LastName: "Liddell",
	})
	require.NoError(t, err)
}

func TestUserRepository_CreateDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(duplicateEntry())

	err := repo.Create(context.Background(), &User{ID: "u-1"})
	assert.True(t, apperror.IsConflict(err), "got %v", err)
	assert.Equal(t, "User with this email or username already exists", apperror.SafeMessage(err))
}

func TestUserRepository_CreateFaultIsNotConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &User{ID: "u-1"})
	require.Error(t, err)
	assert.False(t, apperror.IsConflict(err))
	assert.False(t, apperror.IsNotFound(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE email = \?`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow("u-1"))

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "Liddell", user.LastName)
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE user_id = \?`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestUserRepository_FindByUsernameFault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE username = \?`).
		WithArgs("alice").
		WillReturnError(errors.New("bad connection"))

	_, err := repo.FindByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.False(t, apperror.IsNotFound(err), "store faults must not read as not-found")
}

func TestUserRepository_Exists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@b.com", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "a@b.com", "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_UpdateReturnsFreshRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE users\s+SET firstname = \?, lastname = \?, username = \?`).
		WithArgs("Alice", "Liddell", "alice", at, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM users WHERE user_id = \?`).
		WithArgs("u-1").
		WillReturnRows(userRow("u-1"))

	user, err := repo.Update(context.Background(), "u-1", ProfileUpdate{
		FirstName: "Alice", LastName: "Liddell", Username: "alice",
	}, at)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUserRepository_UpdateDuplicateUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users`).WillReturnError(duplicateEntry())

	_, err := repo.Update(context.Background(), "u-1", ProfileUpdate{Username: "bob"}, time.Now())
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, "Username already taken", apperror.SafeMessage(err))
}

func TestUserRepository_UpdateMissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM users WHERE user_id = \?`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "ghost", ProfileUpdate{Username: "x"}, time.Now())
	assert.True(t, apperror.IsNotFound(err))
}

func TestUserRepository_TouchLastLoginIsMonotonic(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec(`SET updated_at = GREATEST\(updated_at, \?\)`).
		WithArgs(at, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastLogin(context.Background(), "u-1", at))
}

// --- SQL session store ---

func newTestSQLSessionStore(t *testing.T, now time.Time) (*sqlSessionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	store := NewSQLSessionStore(db).(*sqlSessionStore)
	store.now = func() time.Time { return now }
	return store, mock
}

func TestSQLSessionStore_CreateStoresHash(t *testing.T) {
	now := time.Now().UTC()
	store, mock := newTestSQLSessionStore(t, now)
	expires := now.Add(24 * time.Hour)

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(sqlmock.AnyArg(), "u-1", hashToken("raw-token"), now, expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session, err := store.Create(context.Background(), "u-1", "raw-token", expires)
	require.NoError(t, err)
	assert.Equal(t, "raw-token", session.Token)
	assert.Equal(t, "u-1", session.UserID)
	assert.NotEmpty(t, session.ID)
}

func TestSQLSessionStore_FindValidPushesExpiryIntoQuery(t *testing.T) {
	now := time.Now().UTC()
	store, mock := newTestSQLSessionStore(t, now)

	mock.ExpectQuery(`WHERE token_hash = \? AND expires_at > \?`).
		WithArgs(hashToken("tok"), now).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "user_id", "created_at", "expires_at"}).
			AddRow("s-1", "u-1", now, now.Add(time.Hour)))

	session, err := store.FindValidByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Empty(t, session.Token, "stored sessions never carry the raw token")
}

func TestSQLSessionStore_FindValidNone(t *testing.T) {
	store, mock := newTestSQLSessionStore(t, time.Now().UTC())

	mock.ExpectQuery(`FROM sessions`).WillReturnError(sql.ErrNoRows)

	_, err := store.FindValidByToken(context.Background(), "tok")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSQLSessionStore_DeleteByToken(t *testing.T) {
	store, mock := newTestSQLSessionStore(t, time.Now().UTC())

	mock.ExpectExec(`DELETE FROM sessions WHERE token_hash = \?`).
		WithArgs(hashToken("tok")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE token_hash = \?`).
		WithArgs(hashToken("tok")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := store.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSQLSessionStore_DeleteExpired(t *testing.T) {
	now := time.Now().UTC()
	store, mock := newTestSQLSessionStore(t, now)

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \?`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestSQLSessionStore_DeleteExpiredFault(t *testing.T) {
	store, mock := newTestSQLSessionStore(t, time.Now().UTC())

	mock.ExpectExec(`DELETE FROM sessions`).WillReturnError(errors.New("lock wait timeout"))

	_, err := store.DeleteExpired(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSweepNotSupported)
}

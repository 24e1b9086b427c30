package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/bestlab/internal/apperror"
)

// mysqlErrDuplicateEntry is MariaDB/MySQL error 1062 (ER_DUP_ENTRY).
const mysqlErrDuplicateEntry = 1062

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
// Lookups return apperror.NotFound when no row matches; callers pass
// emails already normalized to lowercase.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Exists(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, id string, update ProfileUpdate, at time.Time) (*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `user_id, username, email, password_hash, role_id,
	                 firstname, lastname, created_at, updated_at`

// Create inserts a new user row. A duplicate email or username surfaces as
// apperror.Conflict, which is the real guard against concurrent
// registrations that both passed the existence check.
func (r *userRepository) Create(ctx context.Context, user *User) (err error) {
	defer observeStore(ctx, "users.create", time.Now(), &err)

	query := `INSERT INTO users (user_id, username, email, password_hash, role_id,
	                             firstname, lastname, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return apperror.NewConflict("User with this email or username already exists")
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their UUID.
func (r *userRepository) FindByID(ctx context.Context, id string) (user *User, err error) {
	defer observeStore(ctx, "users.find_by_id", time.Now(), &err)
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
}

// FindByEmail retrieves a user by their (lowercased) email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (user *User, err error) {
	defer observeStore(ctx, "users.find_by_email", time.Now(), &err)
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
}

// FindByUsername retrieves a user by their username.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (user *User, err error) {
	defer observeStore(ctx, "users.find_by_username", time.Now(), &err)
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`, username)
}

// Exists returns true if a user already holds the given email or username.
func (r *userRepository) Exists(ctx context.Context, email, username string) (exists bool, err error) {
	defer observeStore(ctx, "users.exists", time.Now(), &err)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? OR username = ?)`

	if err = r.db.QueryRowContext(ctx, query, email, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}

	return exists, nil
}

// Update sets the three mutable profile fields and advances updated_at,
// then reads the row back so the caller gets a fresh snapshot.
// GREATEST keeps updated_at monotonic even if clocks disagree.
func (r *userRepository) Update(ctx context.Context, id string, update ProfileUpdate, at time.Time) (user *User, err error) {
	defer observeStore(ctx, "users.update", time.Now(), &err)

	query := `UPDATE users
	          SET firstname = ?, lastname = ?, username = ?,
	              updated_at = GREATEST(updated_at, ?)
	          WHERE user_id = ?`

	_, err = r.db.ExecContext(ctx, query,
		update.FirstName,
		update.LastName,
		update.Username,
		at,
		id,
	)
	if isDuplicateEntry(err) {
		return nil, apperror.NewConflict("Username already taken")
	}
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
}

// TouchLastLogin advances updated_at for the given user.
func (r *userRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) (err error) {
	defer observeStore(ctx, "users.touch_last_login", time.Now(), &err)

	query := `UPDATE users SET updated_at = GREATEST(updated_at, ?) WHERE user_id = ?`

	if _, err = r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// findOne runs a single-row user query and scans the result.
func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return user, nil
}

// isDuplicateEntry reports whether err is a unique-key violation.
func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}

// observeStore logs a store call with its operation name and duration.
// Faults are logged at error; not-found and conflicts are expected outcomes
// and only show up at debug.
func observeStore(ctx context.Context, op string, start time.Time, errp *error) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.Duration("duration", time.Since(start)),
	}

	err := *errp
	if err == nil || apperror.IsNotFound(err) || apperror.IsConflict(err) {
		if err != nil {
			attrs = append(attrs, slog.String("outcome", apperror.SafeMessage(err)))
		}
		slog.LogAttrs(ctx, slog.LevelDebug, "store call", attrs...)
		return
	}

	attrs = append(attrs, slog.Any("error", err))
	slog.LogAttrs(ctx, slog.LevelError, "store call failed", attrs...)
}

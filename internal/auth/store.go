package auth

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/gatehouse/gatehouse/internal/apperror"
)

// mysqlErrDuplicateEntry is the MySQL error number for a violated UNIQUE
// constraint (ER_DUP_ENTRY). The users.email unique index surfaces
// concurrent double-registrations through this code.
const mysqlErrDuplicateEntry = 1062

// filterableColumns is the closed set of attributes FindUserBy accepts.
// Anything else is a structurally invalid query.
var filterableColumns = map[string]bool{
	"id":          true,
	"email":       true,
	"session_id":  true,
	"reset_token": true,
}

// updatableColumns is the closed set of attributes UpdateUser accepts.
// The id is immutable and created_at is store-assigned.
var updatableColumns = map[string]bool{
	"email":           true,
	"hashed_password": true,
	"session_id":      true,
	"reset_token":     true,
}

// UserStore defines the persistence contract consumed by the auth service.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserStore interface {
	// AddUser creates and persists a new user record and returns it with
	// the store-assigned id. A violated email uniqueness constraint is
	// reported as an already_exists error.
	AddUser(ctx context.Context, email string, hashedPassword []byte) (*User, error)

	// FindUserBy returns the first record matching all equality filters,
	// in storage order. Unknown filter attributes and empty filter sets
	// are invalid_query errors; no match is a not_found error.
	FindUserBy(ctx context.Context, filters map[string]any) (*User, error)

	// UpdateUser mutates only the named fields of the identified user in a
	// single statement and persists synchronously before returning.
	// Unknown field names are invalid_attribute errors; an unknown userID
	// is a not_found error.
	UpdateUser(ctx context.Context, userID int64, attrs map[string]any) error
}

// userStore implements UserStore with hand-written MariaDB queries.
type userStore struct {
	db *sql.DB
}

// NewUserStore creates a user store backed by the given DB pool.
func NewUserStore(db *sql.DB) UserStore {
	return &userStore{db: db}
}

// AddUser inserts a new user row and reads back the assigned id.
func (s *userStore) AddUser(ctx context.Context, email string, hashedPassword []byte) (*User, error) {
	query := `INSERT INTO users (email, hashed_password) VALUES (?, ?)`

	res, err := s.db.ExecContext(ctx, query, email, hashedPassword)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return nil, apperror.NewAlreadyExists("email already registered")
		}
		return nil, storeError("inserting user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeError("reading inserted user id", err)
	}

	return &User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
	}, nil
}

// FindUserBy retrieves the first user matching all given equality filters.
func (s *userStore) FindUserBy(ctx context.Context, filters map[string]any) (*User, error) {
	if len(filters) == 0 {
		return nil, apperror.NewInvalidQuery("at least one filter attribute is required")
	}

	// Sorted keys keep the generated SQL deterministic.
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if !filterableColumns[k] {
			return nil, apperror.NewInvalidQuery(fmt.Sprintf("unknown filter attribute %q", k))
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = k + " = ?"
		args[i] = filters[k]
	}

	// ORDER BY id reflects insertion order, so "first match" is stable.
	query := `SELECT id, email, hashed_password, session_id, reset_token, created_at
	          FROM users WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id LIMIT 1`

	user := &User{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.SessionID,
		&user.ResetToken,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, storeError("querying user", err)
	}

	return user, nil
}

// UpdateUser applies a partial update to the named fields of one user.
// All fields go into a single UPDATE, so multi-field updates (e.g. setting
// the new password hash while clearing the reset token) are atomic.
func (s *userStore) UpdateUser(ctx context.Context, userID int64, attrs map[string]any) error {
	if len(attrs) == 0 {
		return apperror.NewInvalidAttribute("at least one attribute is required")
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if !updatableColumns[k] {
			return apperror.NewInvalidAttribute(fmt.Sprintf("%q is not a valid user attribute", k))
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets[i] = k + " = ?"
		args = append(args, attrs[k])
	}
	args = append(args, userID)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return apperror.NewAlreadyExists("email already registered")
		}
		return storeError("updating user", err)
	}

	// MySQL reports changed rows, not matched rows, so a zero here means
	// either no row matched or the values were already set (e.g. clearing
	// an already-empty session). Only the former is not_found.
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("reading affected rows", err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists); err != nil {
			return storeError("checking user existence", err)
		}
		if !exists {
			return apperror.NewNotFound("user not found")
		}
	}

	return nil
}

// storeError classifies an unexpected database error. Connection-level
// failures become backend_unavailable so callers can distinguish "the store
// said no" from "the store is unreachable"; everything else is internal.
func storeError(op string, err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewBackendUnavailable(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.NewInternal(fmt.Errorf("%s: %w", op, err))
}

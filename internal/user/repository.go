package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user persistence.
type Repository interface {
	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// List retrieves all users.
	List(ctx context.Context) ([]User, error)

	// ListAdminsWithPhone retrieves admin users that have a phone number
	// on record. These are the security alert recipients.
	ListAdminsWithPhone(ctx context.Context) ([]User, error)

	// Create inserts a new user, generating an ID if unset.
	Create(ctx context.Context, u *User) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed user repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a user by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT id, name, role, phone, created_at FROM users WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return u, nil
}

// List retrieves all users ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]User, error) {
	query := `SELECT id, name, role, phone, created_at FROM users ORDER BY name`
	return r.queryUsers(ctx, query)
}

// ListAdminsWithPhone retrieves admin users with a phone number on record.
func (r *SQLiteRepository) ListAdminsWithPhone(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, name, role, phone, created_at
		FROM users
		WHERE role = ? AND phone IS NOT NULL AND phone != ''
		ORDER BY name`
	return r.queryUsers(ctx, query, RoleAdmin)
}

// Create inserts a new user.
func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	if u == nil || u.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidUser)
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (id, name, role, phone, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Role,
		nullableString(u.Phone),
		u.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// Delete removes a user by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// queryUsers executes a query and returns a slice of users.
func (r *SQLiteRepository) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser scans a row or rows result into a User.
func scanUser(scanner rowScanner) (*User, error) {
	var u User
	var phone sql.NullString
	var createdAt string

	err := scanner.Scan(&u.ID, &u.Name, &u.Role, &phone, &createdAt)
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		u.Phone = &phone.String
	}

	var parseErr error
	u.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}

	return &u, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

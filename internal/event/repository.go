package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for event log persistence.
type Repository interface {
	// Append inserts a new event, generating ID and timestamp if unset.
	// The log is capped: oldest events are trimmed once the configured
	// maximum is exceeded.
	Append(ctx context.Context, ev *Event) error

	// ListRecent retrieves the most recent events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)

	// ListByDevice retrieves recent events for one device, newest first.
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]Event, error)

	// CountByDeviceSince counts events of the given types for a device
	// created at or after the since timestamp. Used to derive failed
	// unlock attempt counts inside the lockout window.
	CountByDeviceSince(ctx context.Context, deviceID string, types []string, since time.Time) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
//
// The event log is append-only with a size cap. Every insert trims the
// oldest rows beyond maxEvents, which keeps the table bounded without a
// background job.
type SQLiteRepository struct {
	db        *sql.DB
	maxEvents int
}

// NewSQLiteRepository creates a new SQLite-backed event repository.
// maxEvents <= 0 disables trimming.
func NewSQLiteRepository(db *sql.DB, maxEvents int) *SQLiteRepository {
	return &SQLiteRepository{db: db, maxEvents: maxEvents}
}

// Append inserts a new event and trims the log to the configured cap.
func (r *SQLiteRepository) Append(ctx context.Context, ev *Event) error {
	if ev == nil || ev.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	dataJSON := "{}"
	if ev.Data != nil {
		b, err := json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("marshalling event data: %w", err)
		}
		dataJSON = string(b)
	}

	query := `
		INSERT INTO events (id, type, device_id, package_id, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		ev.ID,
		ev.Type,
		nullableString(ev.DeviceID),
		nullableString(ev.PackageID),
		dataJSON,
		ev.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return r.trim(ctx)
}

// trim deletes the oldest events beyond the configured cap.
func (r *SQLiteRepository) trim(ctx context.Context) error {
	if r.maxEvents <= 0 {
		return nil
	}

	query := `
		DELETE FROM events
		WHERE id NOT IN (
			SELECT id FROM events ORDER BY created_at DESC, id DESC LIMIT ?
		)`

	if _, err := r.db.ExecContext(ctx, query, r.maxEvents); err != nil {
		return fmt.Errorf("trimming events: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent events, newest first.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, type, device_id, package_id, data, created_at
		FROM events
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	return r.queryEvents(ctx, query, limit)
}

// ListByDevice retrieves recent events for one device, newest first.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, type, device_id, package_id, data, created_at
		FROM events
		WHERE device_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	return r.queryEvents(ctx, query, deviceID, limit)
}

// CountByDeviceSince counts events of the given types for a device
// created at or after the since timestamp.
func (r *SQLiteRepository) CountByDeviceSince(ctx context.Context, deviceID string, types []string, since time.Time) (int, error) {
	if len(types) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(types))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM events
		WHERE device_id = ? AND type IN (%s) AND created_at >= ?`, placeholders)

	args := make([]any, 0, len(types)+2)
	args = append(args, deviceID)
	for _, t := range types {
		args = append(args, t)
	}
	args = append(args, since.UTC().Format(time.RFC3339))

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// queryEvents executes a query and returns a slice of events.
func (r *SQLiteRepository) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// scanEvent scans a rows result into an Event.
func scanEvent(rows *sql.Rows) (*Event, error) {
	var ev Event
	var deviceID, packageID sql.NullString
	var dataJSON, createdAt string

	err := rows.Scan(
		&ev.ID,
		&ev.Type,
		&deviceID,
		&packageID,
		&dataJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if deviceID.Valid {
		ev.DeviceID = &deviceID.String
	}
	if packageID.Valid {
		ev.PackageID = &packageID.String
	}

	if dataJSON != "" && dataJSON != "{}" {
		if err := json.Unmarshal([]byte(dataJSON), &ev.Data); err != nil {
			return nil, fmt.Errorf("unmarshalling event data: %w", err)
		}
	}

	var parseErr error
	ev.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}

	return &ev, nil
}

// nullableString returns a sql.NullString for optional string pointers.
func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

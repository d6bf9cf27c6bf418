package event

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// openTestDB creates a temporary SQLite database with the events table.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			device_id TEXT,
			package_id TEXT,
			data TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating events table: %v", err)
	}

	return db
}

func TestAppendAndListRecent(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db, 0)
	ctx := context.Background()

	deviceID := "box-42"
	ev := &Event{
		Type:     TypeUnlock,
		DeviceID: &deviceID,
		Data:     map[string]any{"method": "keypad"},
	}

	if err := repo.Append(ctx, ev); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if ev.ID == "" {
		t.Error("Append() did not generate event ID")
	}
	if ev.CreatedAt.IsZero() {
		t.Error("Append() did not set CreatedAt")
	}

	events, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("ListRecent() count = %d, want 1", len(events))
	}
	if events[0].Type != TypeUnlock {
		t.Errorf("Type = %q, want %q", events[0].Type, TypeUnlock)
	}
	if events[0].Data["method"] != "keypad" {
		t.Errorf("Data[method] = %v, want keypad", events[0].Data["method"])
	}
}

func TestAppendMissingType(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db, 0)

	err := repo.Append(context.Background(), &Event{})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Append() error = %v, want ErrInvalidEvent", err)
	}
}

func TestAppendTrimsToCap(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db, 3)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		ev := &Event{
			Type:      TypeLockStatus,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	events, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("ListRecent() count = %d, want 3 after trim", len(events))
	}

	// The newest three survive
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt.After(events[i-1].CreatedAt) {
			t.Error("ListRecent() not ordered newest first")
		}
	}
}

func TestListByDevice(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db, 0)
	ctx := context.Background()

	box1, box2 := "box-1", "box-2"
	for _, ev := range []*Event{
		{Type: TypeLock, DeviceID: &box1},
		{Type: TypeUnlock, DeviceID: &box2},
		{Type: TypeUnlockDenied, DeviceID: &box1},
	} {
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	events, err := repo.ListByDevice(ctx, "box-1", 10)
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("ListByDevice() count = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.DeviceID == nil || *ev.DeviceID != "box-1" {
			t.Errorf("ListByDevice() returned event for %v", ev.DeviceID)
		}
	}
}

func TestCountByDeviceSince(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db, 0)
	ctx := context.Background()

	deviceID := "box-1"
	now := time.Now().UTC()

	// Two recent denials, one old denial, one recent unlock
	for _, ev := range []*Event{
		{Type: TypeUnlockDenied, DeviceID: &deviceID, CreatedAt: now.Add(-5 * time.Minute)},
		{Type: TypeUnlockDenied, DeviceID: &deviceID, CreatedAt: now.Add(-2 * time.Minute)},
		{Type: TypeUnlockDenied, DeviceID: &deviceID, CreatedAt: now.Add(-2 * time.Hour)},
		{Type: TypeUnlock, DeviceID: &deviceID, CreatedAt: now.Add(-1 * time.Minute)},
	} {
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	count, err := repo.CountByDeviceSince(ctx, deviceID, []string{TypeUnlockDenied}, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("CountByDeviceSince() error = %v", err)
	}

	if count != 2 {
		t.Errorf("CountByDeviceSince() = %d, want 2", count)
	}
}

func TestCountByDeviceSinceNoTypes(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db, 0)

	count, err := repo.CountByDeviceSince(context.Background(), "box-1", nil, time.Now())
	if err != nil {
		t.Fatalf("CountByDeviceSince() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountByDeviceSince() = %d, want 0", count)
	}
}

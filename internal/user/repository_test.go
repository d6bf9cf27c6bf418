package user

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// openTestDB creates a temporary SQLite database with the users table.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			phone TEXT,
			created_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating users table: %v", err)
	}

	return db
}

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	u := &User{Name: "Alice", Role: RoleAdmin, Phone: strPtr("+447700900001")}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if u.ID == "" {
		t.Error("Create() did not generate user ID")
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", got.Name)
	}
	if got.Phone == nil || *got.Phone != "+447700900001" {
		t.Errorf("Phone = %v, want +447700900001", got.Phone)
	}
}

func TestCreateDefaultsRole(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)

	u := &User{Name: "Bob"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if u.Role != RoleUser {
		t.Errorf("Role = %q, want %q", u.Role, RoleUser)
	}
}

func TestCreateMissingName(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.Create(context.Background(), &User{})
	if !errors.Is(err, ErrInvalidUser) {
		t.Errorf("Create() error = %v, want ErrInvalidUser", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestListAdminsWithPhone(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	users := []*User{
		{Name: "Admin With Phone", Role: RoleAdmin, Phone: strPtr("+447700900001")},
		{Name: "Admin No Phone", Role: RoleAdmin},
		{Name: "Member With Phone", Role: RoleUser, Phone: strPtr("+447700900002")},
	}
	for _, u := range users {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create(%s) error = %v", u.Name, err)
		}
	}

	admins, err := repo.ListAdminsWithPhone(ctx)
	if err != nil {
		t.Fatalf("ListAdminsWithPhone() error = %v", err)
	}

	if len(admins) != 1 {
		t.Fatalf("ListAdminsWithPhone() count = %d, want 1", len(admins))
	}
	if admins[0].Name != "Admin With Phone" {
		t.Errorf("ListAdminsWithPhone() name = %q, want Admin With Phone", admins[0].Name)
	}
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	u := &User{Name: "Temp"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := repo.GetByID(ctx, u.ID)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteRepository(db)

	err := repo.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Delete() error = %v, want ErrUserNotFound", err)
	}
}

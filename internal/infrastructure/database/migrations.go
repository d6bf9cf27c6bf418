package database

import (
	"context"
	"fmt"
)

// schema contains the full database schema, applied idempotently at startup.
//
// Three tables back the bus:
//   - devices: one row per parcel box, written by the reconciler
//   - events: append-only audit trail, capped by the event repository
//   - users: alert recipients (admin role + phone number)
var schema = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'unknown',
		last_seen        TIMESTAMP,
		firmware_version TEXT,
		lock_pin         TEXT,
		pin_updated_by   TEXT,
		pin_updated_at   TIMESTAMP,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id         TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		device_id  TEXT,
		package_id TEXT,
		data       TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_device_created
		ON events(device_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created
		ON events(created_at)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'user',
		phone      TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_role
		ON users(role)`,
}

// Migrate applies the database schema.
//
// All statements are idempotent (CREATE ... IF NOT EXISTS), so Migrate is
// safe to run on every startup.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If any schema statement fails
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

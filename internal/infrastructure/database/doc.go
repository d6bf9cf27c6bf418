// Package database provides the SQLite persistence layer for Parcel Core.
//
// It wraps database/sql with lifecycle management (directory creation,
// WAL mode, busy timeout, file permissions), idempotent schema migration,
// and health checks.
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// The repositories in internal/device, internal/event and internal/user
// operate on the embedded *sql.DB.
package database

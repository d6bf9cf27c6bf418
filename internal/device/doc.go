// Package device provides parcel box registry and persistence for Parcel Core.
//
// # Overview
//
// A Device is a single parcel box controller in the field. Boxes are not
// provisioned up front: the first MQTT message received from an unknown
// device ID creates the record (self-registration), with a default name
// the operator can change later.
//
// # Architecture
//
// The package follows a layered design:
//
//	Registry (cache + orchestration)
//	    ↓
//	Repository (interface)
//	    ↓
//	SQLiteRepository (persistence)
//
// The Registry holds an in-memory cache of all devices, refreshed on
// startup and kept in sync by write operations. Reads are served from
// the cache where possible; all returned devices are deep copies, so
// callers can modify them freely.
//
// # Reserved Identifiers
//
// Device IDs come straight from MQTT topic segments. The "system" and
// "lock" subtrees carry system traffic in the same namespace, so those
// names are reserved and never become device records.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.Conn())
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(logger)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Self-registration on first message
//	d, err := registry.EnsureDevice(ctx, "box-42")
//
//	// Status updates from inbound messages
//	err = registry.SetDeviceStatus(ctx, "box-42", device.StatusOnline)
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use from multiple
// goroutines.
package device

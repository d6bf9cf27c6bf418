package event

import "time"

// Event types recorded by the core.
//
// Lock-related events come from the shared lock controller; device events
// are appended when commands are issued or alerts raised.
const (
	TypeLock          = "LOCK"
	TypeUnlock        = "UNLOCK"
	TypeUnlockDenied  = "UNLOCK_DENIED"
	TypeSecurityAlert = "SECURITY_ALERT"
	TypeLockStatus    = "LOCK_STATUS"
	TypePinChanged    = "PIN_CHANGED"
)

// Event is a single entry in the append-only event log.
type Event struct {
	// ID is a generated UUID.
	ID string `json:"id"`

	// Type is one of the Type* constants, or a firmware-reported type.
	Type string `json:"type"`

	// DeviceID links the event to a parcel box, when applicable.
	DeviceID *string `json:"device_id,omitempty"`

	// PackageID links the event to a tracked parcel, when applicable.
	PackageID *string `json:"package_id,omitempty"`

	// Data holds arbitrary event details (method, user, alert kind).
	Data map[string]any `json:"data,omitempty"`

	// CreatedAt is when the event was recorded.
	CreatedAt time.Time `json:"created_at"`
}

package device

import "time"

// Status represents the connectivity status of a parcel box.
type Status string

// Status values reported by box firmware (or derived from LWT messages).
const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusUnknown Status = "unknown"
)

// IsValid checks if the status is a recognised value.
func (s Status) IsValid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusUnknown:
		return true
	}
	return false
}

// Device represents a parcel box known to the core.
//
// Boxes self-register: the first message received on any topic under a
// device's namespace creates the record. Most fields are therefore
// optional and filled in as the box reports them.
type Device struct {
	// ID is the unique identifier from the MQTT topic (e.g., "box-42").
	ID string `json:"id"`

	// Name is the human-readable name, defaulted on self-registration.
	Name string `json:"name"`

	// Status is the last reported connectivity status.
	Status Status `json:"status"`

	// LastSeen is the time of the most recent message from this box.
	LastSeen *time.Time `json:"last_seen,omitempty"`

	// FirmwareVersion as reported in status messages.
	FirmwareVersion *string `json:"firmware_version,omitempty"`

	// LockPIN is the current keypad PIN for this box's lock.
	LockPIN *string `json:"-"` // never serialised to API responses

	// PINUpdatedBy records who last changed the PIN.
	PINUpdatedBy *string `json:"pin_updated_by,omitempty"`

	// PINUpdatedAt records when the PIN was last changed.
	PINUpdatedAt *time.Time `json:"pin_updated_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy returns a deep copy of the device.
// Used by the registry cache to prevent external mutation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	clone := *d

	if d.LastSeen != nil {
		t := *d.LastSeen
		clone.LastSeen = &t
	}
	if d.FirmwareVersion != nil {
		s := *d.FirmwareVersion
		clone.FirmwareVersion = &s
	}
	if d.LockPIN != nil {
		s := *d.LockPIN
		clone.LockPIN = &s
	}
	if d.PINUpdatedBy != nil {
		s := *d.PINUpdatedBy
		clone.PINUpdatedBy = &s
	}
	if d.PINUpdatedAt != nil {
		t := *d.PINUpdatedAt
		clone.PINUpdatedAt = &t
	}

	return &clone
}

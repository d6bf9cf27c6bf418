package device

import (
	"fmt"
	"strings"
)

// Validation limits.
const (
	maxIDLength   = 64
	maxNameLength = 128
	minPINLength  = 4
	maxPINLength  = 8
)

// reservedIDs are topic subtrees under the device namespace that carry
// system traffic rather than device messages. They must never become
// device records.
var reservedIDs = map[string]bool{
	"system": true,
	"lock":   true,
}

// IsReservedID reports whether an ID belongs to a reserved topic subtree.
func IsReservedID(id string) bool {
	return reservedIDs[id]
}

// ValidateID checks that a device ID is usable as a topic segment.
//
// IDs come straight from MQTT topics, so they must not contain the
// separator or wildcard characters, and reserved subtree names are
// rejected.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidID, maxIDLength)
	}
	if strings.ContainsAny(id, "/+#") {
		return fmt.Errorf("%w: contains topic separator or wildcard", ErrInvalidID)
	}
	if IsReservedID(id) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidID, id)
	}
	return nil
}

// ValidatePIN checks that a lock PIN is numeric and within length limits.
func ValidatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return fmt.Errorf("%w: length must be %d-%d digits", ErrInvalidPIN, minPINLength, maxPINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: must be numeric", ErrInvalidPIN)
		}
	}
	return nil
}

// ValidateDevice checks all device fields for consistency.
func ValidateDevice(d *Device) error {
	if d == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}

	if err := ValidateID(d.ID); err != nil {
		return err
	}

	if d.Name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidName, maxNameLength)
	}

	if !d.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}

	if d.LockPIN != nil {
		if err := ValidatePIN(*d.LockPIN); err != nil {
			return err
		}
	}

	return nil
}

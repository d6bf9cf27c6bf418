package device

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid simple", id: "box-42", wantErr: false},
		{name: "valid alphanumeric", id: "ParcelBox01", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "contains slash", id: "box/42", wantErr: true},
		{name: "contains plus wildcard", id: "box+42", wantErr: true},
		{name: "contains hash wildcard", id: "box#", wantErr: true},
		{name: "reserved system", id: "system", wantErr: true},
		{name: "reserved lock", id: "lock", wantErr: true},
		{name: "too long", id: strings.Repeat("a", maxIDLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidID) {
				t.Errorf("ValidateID(%q) error = %v, want ErrInvalidID", tt.id, err)
			}
		})
	}
}

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{name: "valid four digits", pin: "0000", wantErr: false},
		{name: "valid eight digits", pin: "12345678", wantErr: false},
		{name: "too short", pin: "123", wantErr: true},
		{name: "too long", pin: "123456789", wantErr: true},
		{name: "non-numeric", pin: "12ab", wantErr: true},
		{name: "empty", pin: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePIN(tt.pin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePIN(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPIN) {
				t.Errorf("ValidatePIN(%q) error = %v, want ErrInvalidPIN", tt.pin, err)
			}
		})
	}
}

func TestValidateDevice(t *testing.T) {
	validPIN := "1234"
	badPIN := "xy"

	tests := []struct {
		name    string
		device  *Device
		wantErr error
	}{
		{
			name:    "valid",
			device:  &Device{ID: "box-1", Name: "Box", Status: StatusUnknown},
			wantErr: nil,
		},
		{
			name:    "valid with pin",
			device:  &Device{ID: "box-1", Name: "Box", Status: StatusOnline, LockPIN: &validPIN},
			wantErr: nil,
		},
		{
			name:    "nil device",
			device:  nil,
			wantErr: ErrInvalidDevice,
		},
		{
			name:    "empty id",
			device:  &Device{Name: "Box", Status: StatusUnknown},
			wantErr: ErrInvalidID,
		},
		{
			name:    "empty name",
			device:  &Device{ID: "box-1", Status: StatusUnknown},
			wantErr: ErrInvalidName,
		},
		{
			name:    "bad status",
			device:  &Device{ID: "box-1", Name: "Box", Status: "sleeping"},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "bad pin",
			device:  &Device{ID: "box-1", Name: "Box", Status: StatusUnknown, LockPIN: &badPIN},
			wantErr: ErrInvalidPIN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDevice(tt.device)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDevice() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDevice() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeepCopy(t *testing.T) {
	pin := "1234"
	d := &Device{ID: "box-1", Name: "Box", Status: StatusOnline, LockPIN: &pin}

	clone := d.DeepCopy()
	*clone.LockPIN = "9999"
	clone.Name = "Other"

	if *d.LockPIN != "1234" {
		t.Errorf("original LockPIN = %q, want 1234", *d.LockPIN)
	}
	if d.Name != "Box" {
		t.Errorf("original Name = %q, want Box", d.Name)
	}
}

func TestDeepCopyNil(t *testing.T) {
	var d *Device
	if d.DeepCopy() != nil {
		t.Error("DeepCopy() on nil device should return nil")
	}
}

package mqtt

import "fmt"

// TopicPrefix is the root namespace for all parcel box topics.
//
// Inbound device messages use the shape:
//
//	parcelbox/{deviceId}/{messageType}[/{subType}]
//
// where messageType is one of: status, event, sensor, distance, control,
// settings, lock. Outbound command topics live in the same namespace, so
// the "lock" and "system" subtrees are reserved and never treated as
// device identifiers.
const TopicPrefix = "parcelbox"

// Topics provides builders for parcel box MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.LockSet("box-42")
//	// Returns: "parcelbox/box-42/lock/set"
type Topics struct{}

// =============================================================================
// Outbound Command Topics
// =============================================================================

// LampSet returns the topic for lamp relay commands. Payload: "ON" / "OFF".
//
// Example: parcelbox/box-42/lamp/set
func (Topics) LampSet(deviceID string) string {
	return fmt.Sprintf("%s/%s/lamp/set", TopicPrefix, deviceID)
}

// LockSet returns the topic for lock relay commands. Payload: "LOCK" / "UNLOCK".
//
// Example: parcelbox/box-42/lock/set
func (Topics) LockSet(deviceID string) string {
	return fmt.Sprintf("%s/%s/lock/set", TopicPrefix, deviceID)
}

// CmdCapture returns the topic for photo capture commands. Payload: "CAPTURE".
//
// Example: parcelbox/box-42/cmd/capture
func (Topics) CmdCapture(deviceID string) string {
	return fmt.Sprintf("%s/%s/cmd/capture", TopicPrefix, deviceID)
}

// BuzzerTrigger returns the topic for buzzer commands.
// Payload: duration in seconds as text.
//
// Example: parcelbox/box-42/buzzer/trigger
func (Topics) BuzzerTrigger(deviceID string) string {
	return fmt.Sprintf("%s/%s/buzzer/trigger", TopicPrefix, deviceID)
}

// LockControl returns the shared lock control topic.
// Payload: {"action":"unlock","pin":...,"timestamp":...}.
//
// This is a narrower, security-sensitive channel distinct from per-device
// relay commands.
//
// Example: parcelbox/lock/control
func (Topics) LockControl() string {
	return fmt.Sprintf("%s/lock/control", TopicPrefix)
}

// LockPin returns the lock PIN synchronisation topic.
// Payload: {"pin":...,"timestamp":...}.
//
// Example: parcelbox/lock/pin
func (Topics) LockPin() string {
	return fmt.Sprintf("%s/lock/pin", TopicPrefix)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the core online/offline status topic (also the LWT topic).
//
// Example: parcelbox/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllDevices returns a pattern matching every topic in the device namespace.
// The bus subscribes to this on connect and resubscribes on every reconnect;
// unrecognised message types are ignored by the reconciler.
//
// Pattern: parcelbox/#
func (Topics) AllDevices() string {
	return TopicPrefix + "/#"
}

// Package bus routes inbound MQTT messages to device state.
//
// # Overview
//
// The core holds one wildcard subscription over the whole device
// namespace (parcelbox/#). Every message flows:
//
//	topic + payload → ParseMessage → Serializer (per-device lane) → Reconciler
//
// The Reconciler applies the message to the device record, appends
// events, emits real-time fan-out to connected observers, and raises
// security alerts into the notification queue.
//
// # Ordering
//
// Processing order is guaranteed per device, never globally: the
// Serializer chains tasks that share a device ID and runs unrelated
// devices in parallel. A slow or failing message for one box never
// delays another box.
//
// # Failure Semantics
//
// Handling a message never returns an error to the transport. Malformed
// payloads decode via a plain-text fallback, and any failure while
// processing one message is logged and isolated from its successors.
//
// # Security Alerts
//
// Lock messages carrying a method of keypad_failed, keypad_lockout or
// remote_denied raise one SECURITY_ALERT event and one queued
// notification per recipient. Recipients are admin users with phones
// plus the recipients file, combined without deduplication.
package bus

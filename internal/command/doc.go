// Package command publishes outbound commands to parcel boxes.
//
// Commands are fire-and-forget MQTT publishes on per-device topics
// (lamp/set, lock/set, cmd/capture, buzzer/trigger) plus the shared
// lock controller topics (lock/control, lock/pin). Boxes acknowledge
// asynchronously through their own topics, which the bus reconciler
// picks up.
//
// Relay payloads are plain text (ON/OFF, LOCK/UNLOCK); the shared lock
// controller takes JSON with an RFC3339 timestamp.
package command

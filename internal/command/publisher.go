package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boxgrid/parcel-core/internal/device"
	"github.com/boxgrid/parcel-core/internal/infrastructure/mqtt"
)

// Relay names addressable on a parcel box.
const (
	RelayLamp = "lamp"
	RelayLock = "lock"
)

// Buzzer duration limits in seconds.
const (
	minBuzzerSeconds = 1
	maxBuzzerSeconds = 60
)

// Transport is the MQTT surface the publisher needs.
// Satisfied by *mqtt.Client.
type Transport interface {
	PublishString(topic string, payload string, qos byte, retained bool) error
	IsConnected() bool
}

// Logger defines the logging interface used by the Publisher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Publisher sends commands to parcel boxes over MQTT.
//
// Commands are fire-and-forget: a successful publish means the broker
// accepted the message, not that the box acted on it. Boxes acknowledge
// through their own control/settings topics, which flow back through
// the bus reconciler.
type Publisher struct {
	transport Transport
	topics    mqtt.Topics
	qos       byte
	logger    Logger
}

// NewPublisher creates a command publisher.
func NewPublisher(transport Transport, qos byte) *Publisher {
	return &Publisher{
		transport: transport,
		qos:       qos,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// SetRelay switches a named relay on a box.
//
// The lamp relay takes ON/OFF; the lock relay takes LOCK/UNLOCK (on
// means locked).
func (p *Publisher) SetRelay(deviceID string, relay string, on bool) error {
	if err := device.ValidateID(deviceID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDeviceID, deviceID)
	}

	var topic, payload string
	switch relay {
	case RelayLamp:
		topic = p.topics.LampSet(deviceID)
		payload = "OFF"
		if on {
			payload = "ON"
		}
	case RelayLock:
		topic = p.topics.LockSet(deviceID)
		payload = "UNLOCK"
		if on {
			payload = "LOCK"
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRelay, relay)
	}

	return p.publish(topic, payload)
}

// SetLamp switches the lamp relay on a box.
func (p *Publisher) SetLamp(deviceID string, on bool) error {
	return p.SetRelay(deviceID, RelayLamp, on)
}

// SetLock locks or unlocks a box's relay-driven lock.
func (p *Publisher) SetLock(deviceID string, locked bool) error {
	return p.SetRelay(deviceID, RelayLock, locked)
}

// NormalizeLockState converts the lock state shapes accepted on the API
// and reported by firmware into a locked/unlocked boolean.
//
// Accepted values: booleans (true = locked), "lock"/"unlock",
// "locked"/"unlocked", and the firmware's door terms "closed"/"open"
// (closed = locked). Matching is case-insensitive.
func NormalizeLockState(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "lock", "locked", "closed", "true", "on":
			return true, nil
		case "unlock", "unlocked", "open", "false", "off":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q", ErrInvalidLockState, v)
	default:
		return false, fmt.Errorf("%w: %T", ErrInvalidLockState, value)
	}
}

// unlockRequest is the JSON payload for the shared lock controller.
type unlockRequest struct {
	Action    string `json:"action"`
	PIN       string `json:"pin"`
	Timestamp string `json:"timestamp"`
}

// UnlockDoor asks the shared lock controller to unlock, carrying the
// current PIN so the controller can verify it matches.
func (p *Publisher) UnlockDoor(pin string) error {
	payload, err := json.Marshal(unlockRequest{
		Action:    "unlock",
		PIN:       pin,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling unlock request: %w", err)
	}

	return p.publish(p.topics.LockControl(), string(payload))
}

// pinSync is the JSON payload for PIN synchronisation.
type pinSync struct {
	PIN       string `json:"pin"`
	Timestamp string `json:"timestamp"`
}

// SyncLockPin pushes a new PIN to the shared lock controller so keypad
// entry stays in step with the stored PIN.
func (p *Publisher) SyncLockPin(pin string) error {
	payload, err := json.Marshal(pinSync{
		PIN:       pin,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling pin sync: %w", err)
	}

	return p.publish(p.topics.LockPin(), string(payload))
}

// CapturePhoto asks a box's camera to take a photo.
func (p *Publisher) CapturePhoto(deviceID string) error {
	if err := device.ValidateID(deviceID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDeviceID, deviceID)
	}

	return p.publish(p.topics.CmdCapture(deviceID), "CAPTURE")
}

// TriggerBuzzer sounds a box's buzzer for the given number of seconds.
func (p *Publisher) TriggerBuzzer(deviceID string, seconds int) error {
	if err := device.ValidateID(deviceID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDeviceID, deviceID)
	}
	if seconds < minBuzzerSeconds || seconds > maxBuzzerSeconds {
		return fmt.Errorf("%w: %d seconds (must be %d-%d)", ErrInvalidDuration, seconds, minBuzzerSeconds, maxBuzzerSeconds)
	}

	return p.publish(p.topics.BuzzerTrigger(deviceID), strconv.Itoa(seconds))
}

// publish sends a command payload. A disconnected broker is an expected
// failure mode: the command is dropped with a logged warning and nil is
// returned. No queueing or retry happens at this layer.
func (p *Publisher) publish(topic string, payload string) error {
	if !p.transport.IsConnected() {
		p.logger.Warn("command dropped, broker disconnected", "topic", topic)
		return nil
	}

	if err := p.transport.PublishString(topic, payload, p.qos, false); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}

	p.logger.Debug("command published", "topic", topic, "payload", payload)
	return nil
}

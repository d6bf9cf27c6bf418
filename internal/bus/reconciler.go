package bus

import (
	"context"
	"time"

	"github.com/boxgrid/parcel-core/internal/device"
	"github.com/boxgrid/parcel-core/internal/event"
	"github.com/boxgrid/parcel-core/internal/notify"
	"github.com/boxgrid/parcel-core/internal/user"
)

// Logger defines the logging interface used by the bus.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceStore is the device registry surface the reconciler needs.
// Satisfied by *device.Registry.
type DeviceStore interface {
	EnsureDevice(ctx context.Context, id string) (*device.Device, error)
	SetDeviceStatus(ctx context.Context, id string, status device.Status) error
}

// EventStore is the event log surface the reconciler needs.
// Satisfied by *event.SQLiteRepository.
type EventStore interface {
	Append(ctx context.Context, ev *event.Event) error
	CountByDeviceSince(ctx context.Context, deviceID string, types []string, since time.Time) (int, error)
}

// UserStore supplies admin users for security alert fan-out.
// Satisfied by *user.SQLiteRepository.
type UserStore interface {
	ListAdminsWithPhone(ctx context.Context) ([]user.User, error)
}

// RecipientSource supplies extra alert recipients from configuration.
// Satisfied by *notify.FileRecipientSource.
type RecipientSource interface {
	Recipients() ([]string, error)
}

// Enqueuer queues outbound notifications.
// Satisfied by *notify.Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, n *notify.Notification) (string, error)
}

// Sink receives real-time fan-out emissions.
// Satisfied by *api.Hub.
type Sink interface {
	Emit(eventName string, payload any)
}

// TelemetryWriter records numeric device telemetry.
// Satisfied by *influxdb.Client. May be nil (telemetry disabled).
type TelemetryWriter interface {
	WriteDeviceMetric(deviceID string, measurement string, value float64)
}

// Fan-out event names emitted to connected observers.
const (
	FanoutDeviceStatus   = "device.status"
	FanoutDeviceEvent    = "device.event"
	FanoutDeviceDistance = "device.distance"
	FanoutDeviceAck      = "device.ack"
	FanoutLockStatus     = "lock.status"
	FanoutLockAlert      = "lock.alert"
)

// Reconciler applies inbound bus messages to device state.
//
// All processing for one device runs through the per-device serializer,
// so messages for the same box are handled strictly in arrival order
// while unrelated boxes proceed in parallel. Any failure while handling
// a single message is logged and swallowed; the bus favours staying up
// over delivering every derived side effect.
type Reconciler struct {
	devices    DeviceStore
	events     EventStore
	users      UserStore
	recipients RecipientSource
	queue      Enqueuer
	sink       Sink
	telemetry  TelemetryWriter

	serializer *Serializer
	logger     Logger

	// failedWindow is how far back UNLOCK_DENIED events count towards
	// the failed-attempt number in keypad alerts.
	failedWindow time.Duration
}

// ReconcilerDeps bundles the collaborators for NewReconciler.
type ReconcilerDeps struct {
	Devices    DeviceStore
	Events     EventStore
	Users      UserStore
	Recipients RecipientSource
	Queue      Enqueuer
	Sink       Sink
	Telemetry  TelemetryWriter // optional
	Logger     Logger          // optional
}

// NewReconciler creates a device state reconciler.
func NewReconciler(deps ReconcilerDeps, failedWindow time.Duration) *Reconciler {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	serializer := NewSerializer()
	serializer.SetLogger(logger)

	return &Reconciler{
		devices:      deps.Devices,
		events:       deps.Events,
		users:        deps.Users,
		recipients:   deps.Recipients,
		queue:        deps.Queue,
		sink:         deps.Sink,
		telemetry:    deps.Telemetry,
		serializer:   serializer,
		logger:       logger,
		failedWindow: failedWindow,
	}
}

// HandleMessage is the MQTT entry point for the whole device namespace.
// It matches mqtt.MessageHandler and returns after chaining the message
// onto the device's lane; processing itself is asynchronous.
func (r *Reconciler) HandleMessage(topic string, payload []byte) error {
	msg := ParseMessage(topic, payload)

	// Unroutable or system traffic: the reserved lock/system subtrees
	// share the namespace with device topics.
	if msg.DeviceID == "" || msg.Type == "" || device.IsReservedID(msg.DeviceID) {
		r.logger.Debug("message skipped", "topic", topic, "device_id", msg.DeviceID)
		return nil
	}

	r.serializer.Submit(msg.DeviceID, func() {
		r.process(context.Background(), msg)
	})
	return nil
}

// process handles one message. Runs inside the device's serializer lane.
func (r *Reconciler) process(ctx context.Context, msg Message) {
	// Self-registration: any message from an unseen box creates it.
	if _, err := r.devices.EnsureDevice(ctx, msg.DeviceID); err != nil {
		r.logger.Error("device lookup failed",
			"device_id", msg.DeviceID,
			"error", err,
		)
		return
	}

	switch msg.Type {
	case TypeStatus:
		r.processStatus(ctx, msg)
	case TypeEvent:
		r.processEvent(ctx, msg)
	case TypeSensor, TypeDistance:
		r.processDistance(msg)
	case TypeControl, TypeSettings:
		r.processAck(msg)
	case TypeLock:
		r.processLock(ctx, msg)
	default:
		r.logger.Debug("unrecognised message type",
			"device_id", msg.DeviceID,
			"type", msg.Type,
		)
	}
}

// processStatus applies a connectivity status message.
func (r *Reconciler) processStatus(ctx context.Context, msg Message) {
	status, _ := msg.Payload["status"].(string)

	switch device.Status(status) {
	case device.StatusOnline, device.StatusOffline:
		if err := r.devices.SetDeviceStatus(ctx, msg.DeviceID, device.Status(status)); err != nil {
			r.logger.Error("status update failed",
				"device_id", msg.DeviceID,
				"status", status,
				"error", err,
			)
		}
	default:
		r.logger.Warn("unrecognised device status",
			"device_id", msg.DeviceID,
			"status", status,
		)
	}

	// Full payload passes through so observers see metrics like rssi
	r.emit(FanoutDeviceStatus, map[string]any{
		"device_id": msg.DeviceID,
		"status":    status,
		"payload":   msg.Payload,
	})

	if rssi, ok := numericField(msg.Payload, "rssi"); ok {
		r.writeMetric(msg.DeviceID, "rssi", rssi)
	}
}

// processEvent records a firmware-reported detection event.
func (r *Reconciler) processEvent(ctx context.Context, msg Message) {
	eventType, _ := msg.Payload["type"].(string)
	if eventType == "" {
		eventType = "DEVICE_EVENT"
	}

	deviceID := msg.DeviceID
	if err := r.events.Append(ctx, &event.Event{
		Type:     eventType,
		DeviceID: &deviceID,
		Data:     msg.Payload,
	}); err != nil {
		r.logger.Error("event append failed",
			"device_id", msg.DeviceID,
			"type", eventType,
			"error", err,
		)
	}

	r.emit(FanoutDeviceEvent, map[string]any{
		"device_id": msg.DeviceID,
		"type":      eventType,
		"payload":   msg.Payload,
	})
}

// processDistance handles ultrasonic distance readings.
// Firmware sends two equivalent wire shapes: {"distance": n} or {"cm": n}.
func (r *Reconciler) processDistance(msg Message) {
	distance, ok := numericField(msg.Payload, "distance")
	if !ok {
		distance, ok = numericField(msg.Payload, "cm")
	}
	if !ok {
		r.logger.Warn("distance message without reading", "device_id", msg.DeviceID)
		return
	}

	r.emit(FanoutDeviceDistance, map[string]any{
		"device_id":   msg.DeviceID,
		"distance_cm": distance,
	})

	r.writeMetric(msg.DeviceID, "distance_cm", distance)
}

// processAck passes control/settings acknowledgments through to
// observers. Acks never mutate device state.
func (r *Reconciler) processAck(msg Message) {
	r.emit(FanoutDeviceAck, map[string]any{
		"device_id": msg.DeviceID,
		"channel":   msg.Type,
		"sub":       msg.SubType,
		"payload":   msg.Payload,
	})
}

// processLock handles lock status and alert messages.
func (r *Reconciler) processLock(ctx context.Context, msg Message) {
	switch msg.SubType {
	case SubStatus:
		deviceID := msg.DeviceID
		if err := r.events.Append(ctx, &event.Event{
			Type:     event.TypeLockStatus,
			DeviceID: &deviceID,
			Data:     msg.Payload,
		}); err != nil {
			r.logger.Error("lock status append failed",
				"device_id", msg.DeviceID,
				"error", err,
			)
		}

		r.emit(FanoutLockStatus, map[string]any{
			"device_id": msg.DeviceID,
			"payload":   msg.Payload,
		})

	case SubAlert:
		r.emit(FanoutLockAlert, map[string]any{
			"device_id": msg.DeviceID,
			"payload":   msg.Payload,
		})

	default:
		r.logger.Debug("unrecognised lock subtype",
			"device_id", msg.DeviceID,
			"sub", msg.SubType,
		)
		return
	}

	// Both subtypes may carry a qualifying security method
	if method, _ := msg.Payload["method"].(string); isSecurityMethod(method) {
		r.raiseSecurityAlert(ctx, msg.DeviceID, method, msg.Payload)
	}
}

// emit sends a fan-out event if a sink is attached.
func (r *Reconciler) emit(eventName string, payload any) {
	if r.sink == nil {
		return
	}
	r.sink.Emit(eventName, payload)
}

// writeMetric records telemetry if a writer is attached.
func (r *Reconciler) writeMetric(deviceID, measurement string, value float64) {
	if r.telemetry == nil {
		return
	}
	r.telemetry.WriteDeviceMetric(deviceID, measurement, value)
}

// numericField extracts a float64 field from a decoded payload.
// JSON numbers decode as float64; integers sent as strings do not count.
func numericField(payload map[string]any, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

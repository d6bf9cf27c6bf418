package bus

import (
	"encoding/json"
	"strings"

	"github.com/boxgrid/parcel-core/internal/infrastructure/mqtt"
)

// Inbound message types carried on the device namespace.
const (
	TypeStatus   = "status"
	TypeEvent    = "event"
	TypeSensor   = "sensor"
	TypeDistance = "distance"
	TypeControl  = "control"
	TypeSettings = "settings"
	TypeLock     = "lock"
)

// Subtypes seen on control, settings and lock topics.
const (
	SubAck     = "ack"
	SubCurrent = "cur"
	SubStatus  = "status"
	SubAlert   = "alert"
)

// ParseTopic decodes a device namespace topic into its parts.
//
// Topic shape: parcelbox/{deviceId}/{messageType}[/{subType}]
//
// Parsing never fails: missing segments come back as empty strings and
// the caller decides whether the message is routable. Extra segments
// beyond the subtype are ignored.
func ParseTopic(topic string) (deviceID, messageType, subType string) {
	segments := strings.Split(topic, "/")

	// Segment 0 is the namespace; bare "{deviceId}/{type}" topics
	// without it still decode.
	if len(segments) > 0 && segments[0] == mqtt.TopicPrefix {
		segments = segments[1:]
	}

	if len(segments) > 0 {
		deviceID = segments[0]
	}
	if len(segments) > 1 {
		messageType = segments[1]
	}
	if len(segments) > 2 {
		subType = segments[2]
	}
	return deviceID, messageType, subType
}

// DecodePayload converts raw payload bytes into a map.
//
// A JSON object payload decodes as-is. Anything else (bare strings like
// "online", malformed JSON, JSON arrays or scalars) is wrapped as
// {"status": <text>} — some box firmware sends plain text on status
// topics and the reconciler treats both shapes alike.
func DecodePayload(payload []byte) map[string]any {
	text := strings.TrimSpace(string(payload))

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err == nil && decoded != nil {
		return decoded
	}

	return map[string]any{"status": text}
}

// Message is a parsed inbound bus message.
type Message struct {
	DeviceID string
	Type     string
	SubType  string
	Payload  map[string]any
}

// ParseMessage decodes a topic and payload into a Message.
func ParseMessage(topic string, payload []byte) Message {
	deviceID, messageType, subType := ParseTopic(topic)
	return Message{
		DeviceID: deviceID,
		Type:     messageType,
		SubType:  subType,
		Payload:  DecodePayload(payload),
	}
}

package bus

import (
	"reflect"
	"testing"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		wantDevice string
		wantType   string
		wantSub    string
	}{
		{
			name:       "status",
			topic:      "parcelbox/box-42/status",
			wantDevice: "box-42",
			wantType:   "status",
		},
		{
			name:       "lock with subtype",
			topic:      "parcelbox/box-42/lock/alert",
			wantDevice: "box-42",
			wantType:   "lock",
			wantSub:    "alert",
		},
		{
			name:       "settings current",
			topic:      "parcelbox/box-42/settings/cur",
			wantDevice: "box-42",
			wantType:   "settings",
			wantSub:    "cur",
		},
		{
			name:       "device only",
			topic:      "parcelbox/box-42",
			wantDevice: "box-42",
		},
		{
			name:  "namespace only",
			topic: "parcelbox",
		},
		{
			name:  "empty",
			topic: "",
		},
		{
			name:       "extra segments ignored",
			topic:      "parcelbox/box-42/lock/status/extra/junk",
			wantDevice: "box-42",
			wantType:   "lock",
			wantSub:    "status",
		},
		{
			name:       "reserved lock subtree",
			topic:      "parcelbox/lock/control",
			wantDevice: "lock",
			wantType:   "control",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deviceID, messageType, subType := ParseTopic(tt.topic)
			if deviceID != tt.wantDevice {
				t.Errorf("deviceID = %q, want %q", deviceID, tt.wantDevice)
			}
			if messageType != tt.wantType {
				t.Errorf("messageType = %q, want %q", messageType, tt.wantType)
			}
			if subType != tt.wantSub {
				t.Errorf("subType = %q, want %q", subType, tt.wantSub)
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    map[string]any
	}{
		{
			name:    "json object",
			payload: `{"status":"online","rssi":-61}`,
			want:    map[string]any{"status": "online", "rssi": float64(-61)},
		},
		{
			name:    "bare string",
			payload: "offline",
			want:    map[string]any{"status": "offline"},
		},
		{
			name:    "bare string with whitespace",
			payload: "  online\n",
			want:    map[string]any{"status": "online"},
		},
		{
			name:    "malformed json",
			payload: `{"status":`,
			want:    map[string]any{"status": `{"status":`},
		},
		{
			name:    "json array wrapped",
			payload: `[1,2,3]`,
			want:    map[string]any{"status": "[1,2,3]"},
		},
		{
			name:    "json scalar wrapped",
			payload: `42`,
			want:    map[string]any{"status": "42"},
		},
		{
			name:    "empty",
			payload: "",
			want:    map[string]any{"status": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodePayload([]byte(tt.payload))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodePayload(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	msg := ParseMessage("parcelbox/box-42/lock/status", []byte(`{"method":"keypad","state":"locked"}`))

	if msg.DeviceID != "box-42" {
		t.Errorf("DeviceID = %q, want box-42", msg.DeviceID)
	}
	if msg.Type != TypeLock {
		t.Errorf("Type = %q, want lock", msg.Type)
	}
	if msg.SubType != SubStatus {
		t.Errorf("SubType = %q, want status", msg.SubType)
	}
	if msg.Payload["method"] != "keypad" {
		t.Errorf("Payload[method] = %v, want keypad", msg.Payload["method"])
	}
}

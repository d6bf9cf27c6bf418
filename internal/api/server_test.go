package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boxgrid/parcel-core/internal/command"
	"github.com/boxgrid/parcel-core/internal/device"
	"github.com/boxgrid/parcel-core/internal/event"
	"github.com/boxgrid/parcel-core/internal/infrastructure/config"
	"github.com/boxgrid/parcel-core/internal/infrastructure/logging"
	"github.com/boxgrid/parcel-core/internal/notify"
)

// =============================================================================
// Fakes
// =============================================================================

// stubDeviceRepo is an in-memory device.Repository.
type stubDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*device.Device
}

func newStubDeviceRepo() *stubDeviceRepo {
	return &stubDeviceRepo{devices: make(map[string]*device.Device)}
}

func (r *stubDeviceRepo) GetByID(_ context.Context, id string) (*device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

func (r *stubDeviceRepo) List(_ context.Context) ([]device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]device.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d.DeepCopy())
	}
	return out, nil
}

func (r *stubDeviceRepo) Create(_ context.Context, d *device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[d.ID]; ok {
		return device.ErrDeviceExists
	}
	r.devices[d.ID] = d.DeepCopy()
	return nil
}

func (r *stubDeviceRepo) Update(_ context.Context, d *device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[d.ID]; !ok {
		return device.ErrDeviceNotFound
	}
	r.devices[d.ID] = d.DeepCopy()
	return nil
}

func (r *stubDeviceRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return device.ErrDeviceNotFound
	}
	delete(r.devices, id)
	return nil
}

func (r *stubDeviceRepo) UpdateStatus(_ context.Context, id string, status device.Status, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return device.ErrDeviceNotFound
	}
	d.Status = status
	d.LastSeen = &lastSeen
	return nil
}

func (r *stubDeviceRepo) UpdateLockPIN(_ context.Context, id string, pin string, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return device.ErrDeviceNotFound
	}
	d.LockPIN = &pin
	d.PINUpdatedBy = &updatedBy
	return nil
}

// stubTransport records published commands.
type stubTransport struct {
	mu        sync.Mutex
	connected bool
	topics    []string
	payloads  []string
}

func (t *stubTransport) PublishString(topic, payload string, _ byte, _ bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topics = append(t.topics, topic)
	t.payloads = append(t.payloads, payload)
	return nil
}

func (t *stubTransport) IsConnected() bool { return t.connected }

func (t *stubTransport) published() ([]string, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.topics...), append([]string(nil), t.payloads...)
}

// stubEventRepo records appended events and serves canned listings.
type stubEventRepo struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *stubEventRepo) Append(_ context.Context, ev *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *stubEventRepo) ListRecent(_ context.Context, limit int) ([]event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) > limit {
		return append([]event.Event(nil), r.events[:limit]...), nil
	}
	return append([]event.Event(nil), r.events...), nil
}

func (r *stubEventRepo) ListByDevice(_ context.Context, deviceID string, limit int) ([]event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, ev := range r.events {
		if ev.DeviceID != nil && *ev.DeviceID == deviceID && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *stubEventRepo) CountByDeviceSince(_ context.Context, _ string, _ []string, _ time.Time) (int, error) {
	return 0, nil
}

func (r *stubEventRepo) lastType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ""
	}
	return r.events[len(r.events)-1].Type
}

// dropNotifier always fails, keeping queued notifications pending.
type dropNotifier struct{}

func (dropNotifier) Send(context.Context, *notify.Notification) error {
	return notify.ErrSendFailed
}

// =============================================================================
// Fixture
// =============================================================================

type apiFixture struct {
	server    *Server
	handler   http.Handler
	repo      *stubDeviceRepo
	transport *stubTransport
	events    *stubEventRepo
	queue     *notify.Queue
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	repo := newStubDeviceRepo()
	registry := device.NewRegistry(repo)

	transport := &stubTransport{connected: true}
	commands := command.NewPublisher(transport, 1)

	events := &stubEventRepo{}
	queue := notify.NewQueue(dropNotifier{}, time.Hour, 100)

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	server, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:       config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Logger:   logger,
		Registry: registry,
		Commands: commands,
		Events:   events,
		Queue:    queue,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	server.hub = NewHub(server.wsCfg, logger)

	return &apiFixture{
		server:    server,
		handler:   server.buildRouter(),
		repo:      repo,
		transport: transport,
		events:    events,
		queue:     queue,
	}
}

func (f *apiFixture) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) seedDevice(t *testing.T, id string) {
	t.Helper()
	err := f.repo.Create(context.Background(), &device.Device{
		ID:     id,
		Name:   "Parcel Box " + id,
		Status: device.StatusOnline,
	})
	if err != nil {
		t.Fatalf("seeding device: %v", err)
	}
}

// =============================================================================
// Health and Devices
// =============================================================================

func TestHandleHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v, want status ok version test", body)
	}
}

func TestGetDevice(t *testing.T) {
	f := newAPIFixture(t)
	f.seedDevice(t, "box-1")

	rec := f.request(t, http.MethodGet, "/api/v1/devices/box-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var dev device.Device
	if err := json.Unmarshal(rec.Body.Bytes(), &dev); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if dev.ID != "box-1" {
		t.Errorf("device id = %q, want box-1", dev.ID)
	}
}

func TestGetDeviceNotFound(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/devices/no-such-box", "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListDevices(t *testing.T) {
	f := newAPIFixture(t)
	f.seedDevice(t, "box-1")
	f.seedDevice(t, "box-2")

	rec := f.request(t, http.MethodGet, "/api/v1/devices", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestDeleteDevice(t *testing.T) {
	f := newAPIFixture(t)
	f.seedDevice(t, "box-1")

	rec := f.request(t, http.MethodDelete, "/api/v1/devices/box-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = f.request(t, http.MethodDelete, "/api/v1/devices/box-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Commands
// =============================================================================

func TestSetLampPublishes(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/devices/box-1/lamp", `{"on":true}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	topics, payloads := f.transport.published()
	if len(topics) != 1 || topics[0] != "parcelbox/box-1/lamp/set" {
		t.Errorf("published topics = %v, want [parcelbox/box-1/lamp/set]", topics)
	}
	if payloads[0] != "ON" {
		t.Errorf("payload = %q, want ON", payloads[0])
	}
}

func TestSetLockSemanticState(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/devices/box-1/lock", `{"state":"open"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	_, payloads := f.transport.published()
	if len(payloads) != 1 || payloads[0] != "UNLOCK" {
		t.Errorf("payloads = %v, want [UNLOCK]", payloads)
	}

	// The transition is recorded in the event log
	if got := f.events.lastType(); got != event.TypeUnlock {
		t.Errorf("last event type = %q, want UNLOCK", got)
	}
}

func TestSetLockInvalidState(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/devices/box-1/lock", `{"state":"ajar"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBuzzerOutOfRange(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/devices/box-1/buzzer", `{"seconds":900}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUnlockDoorValidPin(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/lock/unlock", `{"pin":"1234","user":"alice"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	topics, payloads := f.transport.published()
	if len(topics) != 1 || topics[0] != "parcelbox/lock/control" {
		t.Fatalf("published topics = %v, want [parcelbox/lock/control]", topics)
	}

	var msg map[string]any
	if err := json.Unmarshal([]byte(payloads[0]), &msg); err != nil {
		t.Fatalf("decoding unlock payload: %v", err)
	}
	if msg["action"] != "unlock" || msg["pin"] != "1234" {
		t.Errorf("unlock payload = %v", msg)
	}

	if got := f.events.lastType(); got != event.TypeUnlock {
		t.Errorf("last event type = %q, want UNLOCK", got)
	}
}

func TestUnlockDoorBadPin(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/v1/lock/unlock", `{"pin":"12"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	topics, _ := f.transport.published()
	if len(topics) != 0 {
		t.Errorf("bad pin still published: %v", topics)
	}
}

func TestSetPinStoresAndSyncs(t *testing.T) {
	f := newAPIFixture(t)
	f.seedDevice(t, "box-1")

	rec := f.request(t, http.MethodPut, "/api/v1/lock/pin",
		`{"device_id":"box-1","pin":"4321","updated_by":"alice"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	// Stored on the device record
	dev, err := f.repo.GetByID(context.Background(), "box-1")
	if err != nil {
		t.Fatalf("getting device: %v", err)
	}
	if dev.LockPIN == nil || *dev.LockPIN != "4321" {
		t.Errorf("stored pin = %v, want 4321", dev.LockPIN)
	}

	// Broadcast to the lock controller
	topics, _ := f.transport.published()
	if len(topics) != 1 || topics[0] != "parcelbox/lock/pin" {
		t.Errorf("published topics = %v, want [parcelbox/lock/pin]", topics)
	}

	if got := f.events.lastType(); got != event.TypePinChanged {
		t.Errorf("last event type = %q, want PIN_CHANGED", got)
	}
}

func TestCommandTransportDisconnected(t *testing.T) {
	f := newAPIFixture(t)
	f.transport.connected = false

	// Fire-and-forget: a disconnected broker drops the command with a
	// logged warning rather than failing the request
	rec := f.request(t, http.MethodPost, "/api/v1/devices/box-1/lamp", `{"on":true}`)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}

	topics, _ := f.transport.published()
	if len(topics) != 0 {
		t.Errorf("published while disconnected: %v", topics)
	}
}

// =============================================================================
// Notifications
// =============================================================================

func TestNotificationLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	id, err := f.queue.Enqueue(context.Background(), &notify.Notification{
		Type:      notify.TypeStatusUpdate,
		Recipient: "+447700900001",
		Message:   "box-1 offline",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rec := f.request(t, http.MethodGet, "/api/v1/notifications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var body struct {
		Count    int  `json:"count"`
		Draining bool `json:"draining"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("pending count = %d, want 1", body.Count)
	}
	if body.Draining {
		t.Error("draining = true with no drain in progress")
	}

	rec = f.request(t, http.MethodGet, "/api/v1/notifications/"+id, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}

	rec = f.request(t, http.MethodDelete, "/api/v1/notifications/"+id, "")
	if rec.Code != http.StatusOK {
		t.Errorf("cancel status = %d, want 200", rec.Code)
	}

	rec = f.request(t, http.MethodDelete, "/api/v1/notifications/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second cancel status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Events
// =============================================================================

func TestListEventsByDevice(t *testing.T) {
	f := newAPIFixture(t)

	deviceID := "box-1"
	for i := 0; i < 3; i++ {
		if err := f.events.Append(context.Background(), &event.Event{
			Type:     event.TypeLockStatus,
			DeviceID: &deviceID,
		}); err != nil {
			t.Fatalf("appending event: %v", err)
		}
	}

	rec := f.request(t, http.MethodGet, "/api/v1/events?device_id=box-1&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestListEventsBadLimit(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/events?limit=nope", "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

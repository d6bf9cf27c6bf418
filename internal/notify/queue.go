package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	TypePackage      = "package"
	TypeStatusUpdate = "status_update"
)

// Notification is a pending delivery in the retry queue.
type Notification struct {
	// ID is a generated UUID identifying this queue entry.
	ID string `json:"id"`

	// Type is TypePackage or TypeStatusUpdate.
	Type string `json:"type"`

	// Recipient is the phone number or address to deliver to.
	Recipient string `json:"recipient"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// DeviceID links the notification to a parcel box, when applicable.
	DeviceID string `json:"device_id,omitempty"`

	// PackageID links the notification to a parcel, when applicable.
	PackageID string `json:"package_id,omitempty"`

	// Attempts counts delivery attempts made so far.
	Attempts int `json:"attempts"`

	// NextRetryAt is when the entry is next due for a delivery attempt.
	// Set to the enqueue time initially and pushed out by one retry
	// interval after each failed attempt.
	NextRetryAt time.Time `json:"next_retry_at"`

	// LastError holds the most recent delivery failure, if any.
	LastError string `json:"last_error,omitempty"`

	// CreatedAt is when the notification was enqueued.
	CreatedAt time.Time `json:"created_at"`

	// LastAttemptAt is when delivery was last attempted.
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

// Logger defines the logging interface used by the Queue.
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

// Queue is an in-memory notification retry queue.
//
// Enqueue adds an entry and immediately attempts a drain; Run drains on
// a fixed interval as a safety net. A drain only attempts entries whose
// NextRetryAt has passed, so a failed entry waits out the retry
// interval no matter how many drains run in between. Entries leave the
// queue on successful delivery, on attempt exhaustion, or via Cancel.
// Queue contents do not survive a restart.
//
// All methods are safe for concurrent use.
type Queue struct {
	notifier    Notifier
	interval    time.Duration
	maxAttempts int
	logger      Logger

	mu      sync.Mutex
	pending map[string]*Notification
	// order preserves FIFO drain order for queued entries.
	order []string
	// draining guards against reentrant drains: an eager drain triggered
	// by Enqueue may overlap the periodic one.
	draining bool

	// now is injectable for tests.
	now func() time.Time
}

// NewQueue creates a notification retry queue.
//
// Parameters:
//   - notifier: Delivery backend (webhook, test fake)
//   - interval: Periodic drain interval (e.g. 30s)
//   - maxAttempts: Delivery attempts before an entry is dropped
func NewQueue(notifier Notifier, interval time.Duration, maxAttempts int) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Queue{
		notifier:    notifier,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      noopLogger{},
		pending:     make(map[string]*Notification),
		now:         time.Now,
	}
}

// SetLogger sets the logger for the queue.
func (q *Queue) SetLogger(logger Logger) {
	q.logger = logger
}

// Enqueue adds a notification and immediately attempts delivery.
//
// The ID is generated if unset and returned for later Status/Cancel
// calls. The eager drain is synchronous, so on return the entry has
// either been delivered (and removed) or remains queued for retry.
func (q *Queue) Enqueue(ctx context.Context, n *Notification) (string, error) {
	if n == nil || n.Recipient == "" || n.Message == "" {
		return "", fmt.Errorf("%w: recipient and message required", ErrInvalidNotification)
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = TypeStatusUpdate
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = q.now().UTC()
	}
	if n.NextRetryAt.IsZero() {
		n.NextRetryAt = q.now().UTC()
	}

	q.mu.Lock()
	if _, exists := q.pending[n.ID]; exists {
		// Re-enqueueing a queued ID is a no-op; the original entry keeps
		// its attempt history and position.
		q.mu.Unlock()
		return n.ID, nil
	}
	q.pending[n.ID] = n
	q.order = append(q.order, n.ID)
	q.mu.Unlock()

	q.logger.Debug("notification enqueued",
		"id", n.ID,
		"type", n.Type,
		"recipient", n.Recipient,
	)

	q.Drain(ctx)
	return n.ID, nil
}

// Drain attempts delivery of every due notification, in FIFO order.
// Entries whose NextRetryAt is still in the future are skipped and keep
// their queue position.
//
// If a drain is already running the call returns immediately; the
// running drain will pick up newly queued entries on the next pass.
func (q *Queue) Drain(ctx context.Context) {
	now := q.now().UTC()

	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true

	batch := make([]*Notification, 0, len(q.order))
	for _, id := range q.order {
		n, ok := q.pending[id]
		if !ok || n.NextRetryAt.After(now) {
			continue
		}
		batch = append(batch, n)
	}
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	for _, n := range batch {
		select {
		case <-ctx.Done():
			return
		default:
		}
		q.attempt(ctx, n)
	}
}

// attempt makes one delivery attempt and updates queue state.
func (q *Queue) attempt(ctx context.Context, n *Notification) {
	now := q.now().UTC()

	err := q.notifier.Send(ctx, n)

	q.mu.Lock()
	defer q.mu.Unlock()

	// Cancelled while the send was in flight
	if _, ok := q.pending[n.ID]; !ok {
		return
	}

	n.Attempts++
	n.LastAttemptAt = &now

	if err == nil {
		q.remove(n.ID)
		q.logger.Info("notification delivered",
			"id", n.ID,
			"recipient", n.Recipient,
			"attempts", n.Attempts,
		)
		return
	}

	n.LastError = err.Error()
	n.NextRetryAt = now.Add(q.interval)

	if n.Attempts >= q.maxAttempts {
		q.remove(n.ID)
		q.logger.Error("notification dropped after max attempts",
			"id", n.ID,
			"recipient", n.Recipient,
			"attempts", n.Attempts,
			"error", err,
		)
		return
	}

	q.logger.Warn("notification delivery failed, will retry",
		"id", n.ID,
		"recipient", n.Recipient,
		"attempt", n.Attempts,
		"error", err,
	)
}

// remove deletes an entry from the map and order slice. Caller holds mu.
func (q *Queue) remove(id string) {
	delete(q.pending, id)
	for i, queued := range q.order {
		if queued == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Run drains the queue on the configured interval until ctx is cancelled.
// Call this in a goroutine at startup.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Drain(ctx)
		}
	}
}

// Status returns the queued notification with the given ID.
// Returns ErrNotificationNotFound if delivered, dropped, or never queued.
func (q *Queue) Status(id string) (*Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n, ok := q.pending[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}

	copy := *n
	return &copy, nil
}

// QueueStatus is a point-in-time view of the queue.
type QueueStatus struct {
	// Depth is the number of queued notifications.
	Depth int `json:"depth"`

	// Draining reports whether a drain pass is currently running.
	Draining bool `json:"draining"`

	// Entries are the queued notifications in FIFO order, with their
	// per-entry attempt counters.
	Entries []Notification `json:"entries"`
}

// Snapshot returns the queue depth, the in-progress drain flag, and
// every queued entry.
func (q *Queue) Snapshot() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]Notification, 0, len(q.order))
	for _, id := range q.order {
		if n, ok := q.pending[id]; ok {
			entries = append(entries, *n)
		}
	}

	return QueueStatus{
		Depth:    len(entries),
		Draining: q.draining,
		Entries:  entries,
	}
}

// List returns all queued notifications in FIFO order.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, 0, len(q.order))
	for _, id := range q.order {
		if n, ok := q.pending[id]; ok {
			out = append(out, *n)
		}
	}
	return out
}

// Cancel removes a queued notification before delivery.
// Returns ErrNotificationNotFound if the ID is not queued.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[id]; !ok {
		return ErrNotificationNotFound
	}

	q.remove(id)
	q.logger.Info("notification cancelled", "id", id)
	return nil
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

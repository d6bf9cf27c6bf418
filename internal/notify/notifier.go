package notify

import "context"

// Notifier delivers a single notification to its recipient.
//
// Implementations must be safe for concurrent use. A non-nil error marks
// the attempt as failed; the queue retries until attempts are exhausted.
type Notifier interface {
	Send(ctx context.Context, n *Notification) error
}

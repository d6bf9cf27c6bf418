package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// webhookPayload is the JSON body posted to the webhook endpoint.
type webhookPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	DeviceID  string `json:"device_id,omitempty"`
	PackageID string `json:"package_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// WebhookNotifier delivers notifications by POSTing JSON to an external
// gateway (SMS bridge, push relay). One POST per notification.
//
// Retries are handled by the Queue, not here: a single attempt either
// succeeds (2xx) or returns an error.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a webhook-backed notifier.
//
// An empty url is permitted so the core can run without a gateway
// configured; Send then fails every attempt and queued notifications
// exhaust their retries.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		client: client,
		url:    url,
	}
}

// Send posts the notification to the webhook endpoint.
func (w *WebhookNotifier) Send(ctx context.Context, n *Notification) error {
	if w.url == "" {
		return ErrWebhookNotConfigured
	}

	payload := webhookPayload{
		ID:        n.ID,
		Type:      n.Type,
		Recipient: n.Recipient,
		Message:   n.Message,
		DeviceID:  n.DeviceID,
		PackageID: n.PackageID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: webhook returned %d", ErrSendFailed, resp.StatusCode())
	}

	return nil
}

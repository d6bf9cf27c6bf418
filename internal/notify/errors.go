package notify

import "errors"

// Domain errors for the notify package.
var (
	// ErrNotificationNotFound is returned when a notification ID is not queued.
	ErrNotificationNotFound = errors.New("notify: notification not found")

	// ErrInvalidNotification is returned when a notification fails validation.
	ErrInvalidNotification = errors.New("notify: invalid notification")

	// ErrWebhookNotConfigured is returned when no webhook URL is set.
	ErrWebhookNotConfigured = errors.New("notify: webhook url not configured")

	// ErrSendFailed is returned when a delivery attempt fails.
	ErrSendFailed = errors.New("notify: send failed")
)

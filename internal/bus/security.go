package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/boxgrid/parcel-core/internal/event"
	"github.com/boxgrid/parcel-core/internal/notify"
)

// Lock alert methods that raise a security alert.
const (
	MethodKeypadFailed  = "keypad_failed"
	MethodKeypadLockout = "keypad_lockout"
	MethodRemoteDenied  = "remote_denied"
)

// isSecurityMethod reports whether a lock method warrants an alert.
func isSecurityMethod(method string) bool {
	switch method {
	case MethodKeypadFailed, MethodKeypadLockout, MethodRemoteDenied:
		return true
	}
	return false
}

// raiseSecurityAlert records one SECURITY_ALERT event and queues one
// notification per configured recipient.
//
// Recipients come from two sources: admin users with a phone number in
// the database, and the recipients file. Both lookups are best-effort
// (a failing source contributes zero recipients) and the lists are NOT
// deduplicated, so a number present in both receives two notifications.
func (r *Reconciler) raiseSecurityAlert(ctx context.Context, deviceID, method string, payload map[string]any) {
	message := r.alertMessage(ctx, deviceID, method, payload)

	if err := r.events.Append(ctx, &event.Event{
		Type:     event.TypeSecurityAlert,
		DeviceID: &deviceID,
		Data: map[string]any{
			"method":  method,
			"message": message,
			"payload": payload,
		},
	}); err != nil {
		r.logger.Error("security alert append failed",
			"device_id", deviceID,
			"method", method,
			"error", err,
		)
	}

	r.logger.Warn("security alert raised",
		"device_id", deviceID,
		"method", method,
	)

	for _, recipient := range r.alertRecipients(ctx) {
		if _, err := r.queue.Enqueue(ctx, &notify.Notification{
			Type:      notify.TypeStatusUpdate,
			Recipient: recipient,
			Message:   message,
			DeviceID:  deviceID,
		}); err != nil {
			r.logger.Error("security alert enqueue failed",
				"device_id", deviceID,
				"recipient", recipient,
				"error", err,
			)
		}
	}
}

// alertMessage composes the human-readable alert text for each method.
func (r *Reconciler) alertMessage(ctx context.Context, deviceID, method string, payload map[string]any) string {
	switch method {
	case MethodKeypadFailed:
		attempts := r.failedAttempts(ctx, deviceID, payload)
		return fmt.Sprintf("Security alert: failed keypad attempt on %s (%d recent failed attempts)", deviceID, attempts)

	case MethodKeypadLockout:
		attempts := r.failedAttempts(ctx, deviceID, payload)
		if seconds, ok := numericField(payload, "lockout_seconds"); ok {
			return fmt.Sprintf("Security alert: keypad locked out on %s for %d seconds after %d failed attempts", deviceID, int(seconds), attempts)
		}
		return fmt.Sprintf("Security alert: keypad locked out on %s after %d failed attempts", deviceID, attempts)

	case MethodRemoteDenied:
		if reason, _ := payload["reason"].(string); reason != "" {
			return fmt.Sprintf("Security alert: remote unlock denied on %s (%s)", deviceID, reason)
		}
		return fmt.Sprintf("Security alert: remote unlock denied on %s", deviceID)
	}

	return fmt.Sprintf("Security alert on %s (%s)", deviceID, method)
}

// failedAttempts derives the failed attempt count for alert text.
// Firmware usually reports it in the payload; if absent, recent denial
// events inside the configured window are counted instead.
func (r *Reconciler) failedAttempts(ctx context.Context, deviceID string, payload map[string]any) int {
	if attempts, ok := numericField(payload, "attempts"); ok {
		return int(attempts)
	}

	since := time.Now().UTC().Add(-r.failedWindow)
	count, err := r.events.CountByDeviceSince(ctx, deviceID,
		[]string{event.TypeUnlockDenied, event.TypeLockStatus}, since)
	if err != nil {
		r.logger.Warn("failed attempt scan failed",
			"device_id", deviceID,
			"error", err,
		)
		return 0
	}
	return count
}

// alertRecipients gathers the combined recipient list, best-effort.
func (r *Reconciler) alertRecipients(ctx context.Context) []string {
	var recipients []string

	if r.users != nil {
		admins, err := r.users.ListAdminsWithPhone(ctx)
		if err != nil {
			r.logger.Warn("admin recipient lookup failed", "error", err)
		} else {
			for _, admin := range admins {
				if admin.Phone != nil && *admin.Phone != "" {
					recipients = append(recipients, *admin.Phone)
				}
			}
		}
	}

	if r.recipients != nil {
		extra, err := r.recipients.Recipients()
		if err != nil {
			r.logger.Warn("recipients file lookup failed", "error", err)
		} else {
			recipients = append(recipients, extra...)
		}
	}

	return recipients
}

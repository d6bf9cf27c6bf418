// Package notify provides outbound notifications for Parcel Core.
//
// # Overview
//
// Notifications (package arrivals, security alerts) are delivered
// through an external webhook gateway. Delivery is unreliable by
// nature, so all sends go through an in-memory retry queue:
//
//	Enqueue → eager drain → (failure) → periodic drain → ... → max attempts
//
// Entries leave the queue on successful delivery, on attempt
// exhaustion, or when cancelled. The queue is not persisted; pending
// notifications are lost on restart.
//
// # Recipients
//
// Security alerts fan out to two recipient sources: admin users with a
// phone number in the database, and numbers listed in the recipients
// file (notifications.recipients_file in config.yaml). The sources are
// combined without deduplication.
//
// # Usage
//
//	notifier := notify.NewWebhookNotifier(cfg.Notifications.Webhook.URL, cfg.Notifications.GetWebhookTimeout())
//	queue := notify.NewQueue(notifier, cfg.Notifications.GetRetryInterval(), cfg.Notifications.MaxAttempts)
//	queue.SetLogger(logger)
//	go queue.Run(ctx)
//
//	id, err := queue.Enqueue(ctx, &notify.Notification{
//	    Type:      notify.TypePackage,
//	    Recipient: "+447700900001",
//	    Message:   "Package delivered to Front Door Box",
//	    DeviceID:  "box-42",
//	})
package notify

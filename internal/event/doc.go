// Package event provides the append-only event log for Parcel Core.
//
// Events record what happened and when: lock and unlock actions, denied
// attempts, security alerts, PIN changes, and firmware-reported lock
// status. The log backs the activity feed in the operator UI and the
// failed-attempt window used for keypad lockout detection.
//
// The log is capped (database.max_events in config.yaml): every insert
// trims the oldest rows beyond the cap, so the table stays bounded
// without a background job.
package event

// Package logging provides structured logging for Parcel Core.
//
// It wraps the standard library's log/slog with configuration-driven
// setup (level, format, destination) and default fields identifying the
// service and version.
//
// # Usage
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("mqtt connected", "broker", addr)
//
//	// Component-scoped logger
//	busLog := log.With("component", "bus")
//
// Before configuration is available, use logging.Default().
package logging

// Package influxdb provides InfluxDB connectivity for Parcel Core.
//
// It wraps the official influxdb-client-go v2 library with Parcel Core
// patterns for connection management, telemetry writing, and health
// monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Parcel box signal strength (RSSI) from status messages
//   - Ultrasonic distance readings (parcel presence detection)
//   - Arbitrary sensor fields (temperature, battery, humidity)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDeviceMetric("box-42", "rssi", -67)
//	client.WriteDeviceMetric("box-42", "distance_cm", 18.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a
// callback. Telemetry is best-effort: failures never block or fail
// device message processing.
package influxdb

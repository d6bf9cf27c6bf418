package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceMetric writes a single device measurement to InfluxDB.
//
// This is the primary method for recording parcel box telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the parcel box (e.g., "box-42")
//   - measurement: The metric name (e.g., "rssi", "distance_cm", "battery_pct")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteDeviceMetric("box-42", "rssi", -67)
//	client.WriteDeviceMetric("box-42", "distance_cm", 18.5)
func (c *Client) WriteDeviceMetric(deviceID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_metrics",
		map[string]string{
			"device_id":   deviceID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSensorReading writes a named sensor field reported by a box.
//
// Sensor payloads carry arbitrary numeric fields (temperature, humidity,
// battery). Each field becomes its own point under the "sensor" measurement
// so dashboards can select fields independently.
//
// Parameters:
//   - deviceID: Parcel box identifier
//   - field: Sensor field name as reported in the payload
//   - value: The reading
func (c *Client) WriteSensorReading(deviceID string, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor",
		map[string]string{
			"device_id": deviceID,
			"field":     field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

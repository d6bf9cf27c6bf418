// Package mqtt provides MQTT client connectivity for Parcel Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Parcel Core uses MQTT as the message bus connecting the core to the
// parcel box controllers in the field. The broker (Mosquitto) decouples
// the core from device firmware specifics.
//
//	Parcel Core ↔ MQTT Broker ↔ Parcel Box Controllers
//
// The core holds a single wildcard subscription (parcelbox/#) and routes
// every inbound device message through the bus reconciler. Outbound
// commands (lamp, lock, capture, buzzer) are published fire-and-forget
// on per-device topics.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to the whole device namespace
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.AllDevices(), byte(cfg.MQTT.QoS), handleMessage)
//
//	// Publish a lock command
//	client.PublishString(topics.LockSet("box-42"), "UNLOCK", byte(cfg.MQTT.QoS), false)
package mqtt

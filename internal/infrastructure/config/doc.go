// Package config provides configuration loading for Parcel Core.
//
// Configuration is loaded from a YAML file with three layers of precedence:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. YAML file values
//  3. PARCELCORE_* environment variable overrides
//
// Secrets (MQTT credentials, InfluxDB token, webhook URL) should be supplied
// via environment variables rather than committed to the config file.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config

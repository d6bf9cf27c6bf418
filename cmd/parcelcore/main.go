// Parcel Core - Device Telemetry & Command Bus
//
// This is the main entry point for the Parcel Core application. It runs
// the message bus for a fleet of IoT parcel boxes:
//   - One wildcard MQTT subscription over the device namespace
//   - Per-device in-order message processing
//   - SQLite-backed device, event, and user stores
//   - Security alerts fanned out through the notification retry queue
//   - HTTP API and WebSocket feed for operator interfaces
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/boxgrid/parcel-core/internal/api"
	"github.com/boxgrid/parcel-core/internal/bus"
	"github.com/boxgrid/parcel-core/internal/command"
	"github.com/boxgrid/parcel-core/internal/device"
	"github.com/boxgrid/parcel-core/internal/event"
	"github.com/boxgrid/parcel-core/internal/infrastructure/config"
	"github.com/boxgrid/parcel-core/internal/infrastructure/database"
	"github.com/boxgrid/parcel-core/internal/infrastructure/influxdb"
	"github.com/boxgrid/parcel-core/internal/infrastructure/logging"
	"github.com/boxgrid/parcel-core/internal/infrastructure/mqtt"
	"github.com/boxgrid/parcel-core/internal/notify"
	"github.com/boxgrid/parcel-core/internal/user"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Parcel Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise stores
	deviceRepo := device.NewSQLiteRepository(db.DB)
	eventRepo := event.NewSQLiteRepository(db.DB, cfg.Database.MaxEvents)
	userRepo := user.NewSQLiteRepository(db.DB)

	registry := device.NewRegistry(deviceRepo)
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", registry.GetDeviceCount())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Notification retry queue with the webhook delivery backend
	notifier := notify.NewWebhookNotifier(cfg.Notifications.Webhook.URL, cfg.GetWebhookTimeout())
	queue := notify.NewQueue(notifier, cfg.GetRetryInterval(), cfg.Notifications.MaxAttempts)
	queue.SetLogger(log)
	go queue.Run(ctx)
	log.Info("notification queue started",
		"retry_interval", cfg.GetRetryInterval(),
		"max_attempts", cfg.Notifications.MaxAttempts,
	)

	recipients := notify.NewFileRecipientSource(cfg.Notifications.RecipientsFile)

	// Command publisher (fire-and-forget over MQTT)
	commands := command.NewPublisher(mqttClient, byte(cfg.MQTT.QoS))
	commands.SetLogger(log)

	// API server; its WebSocket hub doubles as the bus fan-out sink
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		Commands: commands,
		Events:   eventRepo,
		Queue:    queue,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	hub := apiServer.Hub()

	// Bus reconciler: one handler behind the namespace-wide subscription
	reconcilerDeps := bus.ReconcilerDeps{
		Devices:    registry,
		Events:     eventRepo,
		Users:      userRepo,
		Recipients: recipients,
		Queue:      queue,
		Sink:       hub,
		Logger:     log,
	}
	if influxClient != nil {
		reconcilerDeps.Telemetry = influxClient
	}
	reconciler := bus.NewReconciler(reconcilerDeps, cfg.GetFailedAttemptWindow())

	topic := mqtt.Topics{}.AllDevices()
	if subErr := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), reconciler.HandleMessage); subErr != nil {
		return fmt.Errorf("subscribing to device namespace: %w", subErr)
	}
	log.Info("device namespace subscribed", "topic", topic)

	// Start the API server
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Parcel Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PARCELCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PARCELCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

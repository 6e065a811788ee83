package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bookingwatch/internal/app"
	"bookingwatch/internal/auth"
	"bookingwatch/internal/backend"
	"bookingwatch/internal/config"
	"bookingwatch/internal/handler"
	internalRedis "bookingwatch/internal/redis"
	"bookingwatch/internal/repository/postgres"
	"bookingwatch/internal/service"
	"bookingwatch/internal/stream"
)

func main() {
	// Load .env if present, then configuration.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Hydrate the session store from persisted storage.
	authStore := auth.NewStore()
	if err := authStore.Init(cfg.Auth.SessionFile); err != nil {
		log.Fatalf("failed to hydrate session store: %v", err)
	}

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Transition observers: journal and stream are both optional.
	var observers []service.TransitionObserver

	if cfg.Database.Enabled() {
		db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("Connected to PostgreSQL, transition journal enabled")

		observers = append(observers, service.NewJournalObserver(postgres.NewTransitionRepository(db)))
	}

	if cfg.Kafka.Enabled() {
		publisher := stream.NewTransitionPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		log.Printf("Transition stream enabled: topic=%s", cfg.Kafka.Topic)

		observers = append(observers, publisher)
	}

	// Wire dependencies.
	server, manager := wireServer(redisClient, nrApp, authStore, observers, cfg)
	defer manager.StopAll()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting gateway on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down gateway...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Gateway exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// session manager (so shutdown can stop every poller).
func wireServer(
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	authStore *auth.Store,
	observers []service.TransitionObserver,
	cfg *config.Config,
) (*http.Server, *service.Manager) {
	// Initialize Redis stores.
	snapshotStore := internalRedis.NewSnapshotStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Booking Store client.
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, authStore)

	// Event fan-out: WebSocket subscribers plus the process log.
	hub := handler.NewHub()
	sink := service.MultiSink{hub, service.LogSink{}}

	// Session manager.
	manager := service.NewManager(client, sink, observers, snapshotStore, lockStore, authStore, service.ManagerConfig{
		ListInterval:           cfg.Poll.ListInterval,
		RiderTrackingInterval:  cfg.Poll.RiderTrackingInterval,
		DriverTrackingInterval: cfg.Poll.DriverTrackingInterval,
		LiveInterval:           cfg.Poll.LiveInterval,
		MaxBackoff:             cfg.Poll.MaxBackoff,
		NavigateDelay:          cfg.Poll.NavigateDelay,
		TrackingLockTTL:        cfg.Poll.TrackingLockTTL,
	})

	// Initialize handlers.
	sessionHandler := handler.NewSessionHandler(manager)
	wsHandler := handler.NewWSHandler(hub, manager)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		SessionHandler: sessionHandler,
		WSHandler:      wsHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, manager
}

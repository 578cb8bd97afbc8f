package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"guardshift-agent/config"
	"guardshift-agent/internal/api"
	"guardshift-agent/internal/backend"
	"guardshift-agent/internal/db"
	"guardshift-agent/internal/engine"
	"guardshift-agent/internal/eval"
	"guardshift-agent/internal/location"
	"guardshift-agent/internal/poll"
	"guardshift-agent/internal/session"
	"guardshift-agent/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "guardshiftd ", log.LstdFlags)

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	token := os.Getenv("GUARDSHIFT_TOKEN")
	if token == "" {
		logger.Fatalf("GUARDSHIFT_TOKEN must be set; the agent never stores credentials itself")
	}

	// An invalidated session is fatal for the daemon; the supervising shell
	// restarts it with a fresh token after re-authentication.
	sess := session.New(session.StaticTokenSource(token), func(reason string) {
		logger.Printf("session invalidated: %s", reason)
	})

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("local cache database initialized")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	client := backend.NewClient(&cfg.Platform, sess)

	gateway := location.NewGateway(
		location.GrantedPermission{},
		location.StaticPosition{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude},
		cfg.Location.Timeout,
	)

	eng := engine.NewService(appStore, client, gateway, cfg.Platform.UserID)

	pool := eval.NewWorkerPool(cfg.WorkerPool.Size, appStore)
	pool.Start(ctx)
	logger.Printf("match evaluation pool started with %d workers", cfg.WorkerPool.Size)

	// Run the platform sync loop in the background
	pollSvc := poll.NewService(cfg, appStore, client, pool)
	go pollSvc.Run(ctx)

	// Initialize router
	router := api.NewRouter(api.NewHandler(eng, appStore, pool), cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("local API listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Agent gracefully stopped")
}

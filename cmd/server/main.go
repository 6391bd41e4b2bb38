/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Skyward status engine server. Handles
  configuration, dependency wiring, the recompute scheduler, and
  graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env honored)
  2. Parse command-line flags (flags override environment)
  3. Configure logging
  4. Open SQLite store
  5. Build engine, handler, router
  6. Start recompute scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or status.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  PORT, DB_PATH, LOG_LEVEL, LOG_JSON, RECOMPUTE_CRON, CORS_ORIGINS
  (see config/config.go)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the recompute scheduler, waiting out a running sweep
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/skyward.db"

  # Run with in-memory database and verbose logs
  LOG_LEVEL=debug ./server -db=":memory:"

SEE ALSO:
  - config/config.go: environment variables
  - api/server.go: router configuration
  - api/scheduler.go: the recompute sweep
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skyward/status-engine/api"
	"github.com/skyward/status-engine/config"
	"github.com/skyward/status-engine/logger"
	"github.com/skyward/status-engine/qualification"
	"github.com/skyward/status-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logrus.WithField("component", "server")

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	engine, err := qualification.NewEngine(qualification.DefaultRuleset())
	if err != nil {
		log.Fatalf("Invalid ruleset: %v", err)
	}
	handler := api.NewHandler(store, qualification.NewCachedEngine(engine, 0))
	router := api.NewRouter(handler, cfg.CORSOrigins)

	sched := api.NewRecomputeScheduler(store, handler, cfg.RecomputeCron)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr": cfg.Addr(),
			"db":   cfg.DBPath,
		}).Info("🚀 status engine listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}

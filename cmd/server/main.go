/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the worktime server. Handles configuration,
  logging, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load optional .env file
  2. Parse command-line flags (defaults from environment)
  3. Configure logging
  4. Initialize SQLite store
  5. Create API handler and router
  6. Start server with graceful shutdown

CONFIGURATION:
  Flag            Environment             Default
  -port           WORKTIME_PORT           8080
  -db             WORKTIME_DB             worktime.db (":memory:" for in-memory)
  -log-level      WORKTIME_LOG_LEVEL      info
  -allow-future   WORKTIME_ALLOW_FUTURE   false
  -cors-origins   WORKTIME_CORS_ORIGINS   localhost dev frontends (comma separated)

  Flags override environment; environment overrides defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/worktime.db"

  # Run with in-memory database and debug logs
  WORKTIME_LOG_LEVEL=debug ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/verk/worktime/api"
	"github.com/verk/worktime/store/sqlite"
)

func main() {
	// A missing .env is fine; the environment and flags still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to read .env")
	}

	// Flags
	port := flag.Int("port", envInt("WORKTIME_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("WORKTIME_DB", "worktime.db"), "SQLite database path")
	logLevel := flag.String("log-level", envString("WORKTIME_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	allowFuture := flag.Bool("allow-future", envBool("WORKTIME_ALLOW_FUTURE", false), "Accept records dated after today")
	origins := flag.String("cors-origins", envString("WORKTIME_CORS_ORIGINS", ""), "Comma separated CORS origins")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.WithError(err).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	handler.AllowFuture = *allowFuture

	router := api.NewRouter(handler, splitList(*origins))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{"port": *port, "db": *dbPath}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server stopped")
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(envString(key, ""))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

/*
config.go - Environment-driven service configuration

PURPOSE:
  Loads the service configuration from environment variables, with a
  .env file as a convenience for local development. Every variable has
  a default; a bare `go run ./cmd/server` starts a working instance.

VARIABLES:
  PORT            HTTP listen port (default: 8080)
  DB_PATH         SQLite database path, ":memory:" works (default: status.db)
  LOG_LEVEL       logrus level name (default: info)
  LOG_JSON        "true" switches log output to JSON (default: false)
  RECOMPUTE_CRON  cron spec for the snapshot sweep; set empty to
                  disable it (default: 0 * * * *)
  CORS_ORIGINS    comma-separated allowed origins (default: *)

USAGE:
  cfg, err := config.Load()
  if err != nil { ... }
  server := &http.Server{Addr: cfg.Addr(), ...}

SEE ALSO:
  - logger/logger.go: consumes LogLevel and LogJSON
  - cmd/server/main.go: wires the rest
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start.
type Config struct {
	Port          int
	DBPath        string
	LogLevel      string
	LogJSON       bool
	RecomputeCron string
	CORSOrigins   []string
}

// Load reads configuration from the environment. A .env file in the
// working directory is read first; it never overrides real variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("PORT %d out of range", port)
	}
	cfg.Port = port

	cfg.DBPath = os.Getenv("DB_PATH")
	if cfg.DBPath == "" {
		cfg.DBPath = "status.db"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if jsonStr := os.Getenv("LOG_JSON"); jsonStr != "" {
		logJSON, err := strconv.ParseBool(jsonStr)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_JSON %q: %w", jsonStr, err)
		}
		cfg.LogJSON = logJSON
	}

	// LookupEnv so an explicitly empty value disables the sweep while an
	// unset variable keeps the hourly default.
	if spec, ok := os.LookupEnv("RECOMPUTE_CRON"); ok {
		cfg.RecomputeCron = strings.TrimSpace(spec)
	} else {
		cfg.RecomputeCron = "0 * * * *"
	}

	cfg.CORSOrigins = splitOrigins(os.Getenv("CORS_ORIGINS"))

	return cfg, nil
}

// Addr returns the listen address for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

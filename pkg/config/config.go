// Package config loads dashboard configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the dashboard needs to reach the monitoring
// backend plus the timing policy knobs. The reconnect/poll values are part of
// the observed backend contract; they live here so tuning them never touches
// the connection logic.
type Config struct {
	APIBaseURL string // REST base, e.g. http://localhost:8000
	WSBaseURL  string // WebSocket base, e.g. ws://localhost:8000

	ReconnectAttempts int           // live channel retry budget
	ReconnectDelay    time.Duration // fixed delay between retries, not backoff
	PollInterval      time.Duration // snapshot re-fetch cadence without a live channel
	ProbeTimeout      time.Duration // single direct service probe
	CheckTimeout      time.Duration // aggregate probe / check-now trigger

	ListenAddr string // view server bind address
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present (missing file is fine).
func Load() Config {
	_ = godotenv.Load(".env")
	return Config{
		APIBaseURL:        getenv("API_BASE_URL", "http://localhost:8000"),
		WSBaseURL:         getenv("WS_URL", "ws://localhost:8000"),
		ReconnectAttempts: getenvInt("WS_RECONNECT_ATTEMPTS", 10),
		ReconnectDelay:    getenvDuration("WS_RECONNECT_DELAY", 3*time.Second),
		PollInterval:      getenvDuration("POLL_INTERVAL", 30*time.Second),
		ProbeTimeout:      getenvDuration("PROBE_TIMEOUT", 3*time.Second),
		CheckTimeout:      getenvDuration("CHECK_TIMEOUT", 5*time.Second),
		ListenAddr:        getenv("LISTEN_ADDR", ":8090"),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func getenvDuration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return d
	}
	return dur
}

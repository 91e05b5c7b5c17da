package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgnsrekt/tabswipe/internal/counters"
)

// Driver names accepted by TABSWIPE_CDP_DRIVER.
const (
	DriverRaw      = "raw"
	DriverChromedp = "chromedp"
)

// Config holds all configuration for the tabswipe controller.
type Config struct {
	// CDP connection settings
	CDPAddress       string
	CDPPort          int
	CDPDriver        string
	CommandTimeoutMS int

	// Browser launch
	LaunchBrowser bool
	ProfileDir    string

	// HTTP API
	BindAddr           string
	PortCandidates     []string
	PortAutoFallback   bool
	RateLimitPerMinute int
	CORSOrigins        []string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// Persistence and rules
	CountersBackend string
	CountersDir     string
	RulesPath       string

	// Session summary notification; empty disables it.
	NotifyEndpoint string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:         getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:            getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		CDPDriver:          strings.ToLower(getEnvOrDefault("TABSWIPE_CDP_DRIVER", DriverRaw)),
		CommandTimeoutMS:   getEnvIntOrDefault("TABSWIPE_COMMAND_TIMEOUT_MS", 5000),
		LaunchBrowser:      getEnvBoolOrDefault("TABSWIPE_LAUNCH_BROWSER", false),
		ProfileDir:         getEnvOrDefault("TABSWIPE_PROFILE_DIR", "./browser_profile"),
		BindAddr:           getEnvOrDefault("TABSWIPE_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:     getEnvListOrDefault("TABSWIPE_PORT_CANDIDATES", []string{"127.0.0.1:8191", "127.0.0.1:8192"}),
		PortAutoFallback:   getEnvBoolOrDefault("TABSWIPE_PORT_AUTO_FALLBACK", true),
		RateLimitPerMinute: getEnvIntOrDefault("TABSWIPE_RATE_LIMIT", 120),
		CORSOrigins:        getEnvListOrDefault("TABSWIPE_CORS_ORIGINS", nil),
		LogLevel:           strings.ToLower(getEnvOrDefault("TABSWIPE_LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnvOrDefault("TABSWIPE_LOG_FORMAT", "text")),
		LogFile:            getEnvOrDefault("TABSWIPE_LOG_FILE", "logs/tabswipe.log"),
		CountersBackend:    strings.ToLower(getEnvOrDefault("TABSWIPE_COUNTERS_BACKEND", counters.BackendFile)),
		CountersDir:        getEnvOrDefault("TABSWIPE_COUNTERS_DIR", counters.DefaultDir()),
		RulesPath:          getEnvOrDefault("TABSWIPE_RULES", "./config/tabswipe.yaml"),
		NotifyEndpoint:     getEnvOrDefault("TABSWIPE_NTFY_ENDPOINT", ""),
	}
	if cfg.CommandTimeoutMS < 1000 {
		cfg.CommandTimeoutMS = 1000
	}

	switch cfg.CDPDriver {
	case DriverRaw, DriverChromedp:
	default:
		return nil, fmt.Errorf("config: TABSWIPE_CDP_DRIVER must be %q or %q, got %q", DriverRaw, DriverChromedp, cfg.CDPDriver)
	}
	switch cfg.CountersBackend {
	case counters.BackendFile, counters.BackendSQLite:
	default:
		return nil, fmt.Errorf("config: TABSWIPE_COUNTERS_BACKEND must be %q or %q, got %q", counters.BackendFile, counters.BackendSQLite, cfg.CountersBackend)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("config: TABSWIPE_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// CDPURL returns the DevTools HTTP endpoint.
func (c *Config) CDPURL() string {
	return "http://" + c.CDPAddress + ":" + strconv.Itoa(c.CDPPort)
}

func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

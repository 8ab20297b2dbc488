package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

const (
	defaultManagementURI = "http://127.0.0.1:15580"
	defaultAPIVersion    = "2019-01-30"
	defaultHTTPTimeout   = 30 * time.Second
	defaultLogFormat     = "json"

	defaultSimListenAddr  = ":15580"
	defaultSimDBPath      = "mgmtsim.db"
	defaultSimCORSOrigins = "*"

	envManagementURI = "EDGE_MANAGEMENT_URI"
	envAPIVersion    = "EDGE_API_VERSION"
	envHTTPTimeout   = "EDGE_HTTP_TIMEOUT"
	envLogLevel      = "EDGE_LOG_LEVEL"
	envLogFormat     = "EDGE_LOG_FORMAT"
	envOTLPEndpoint  = "EDGE_OTLP_ENDPOINT"

	envSimListenAddr  = "EDGE_SIM_LISTEN_ADDR"
	envSimDBPath      = "EDGE_SIM_DB_PATH"
	envSimFaults      = "EDGE_SIM_FAULTS"
	envSimCORSOrigins = "EDGE_SIM_CORS_ORIGINS"
)

// Config holds client settings loaded from environment variables.
type Config struct {
	ManagementURI string
	APIVersion    string
	HTTPTimeout   time.Duration
	LogLevel      slog.Level
	LogFormat     string
	// OTLPEndpoint is the OTLP/HTTP traces URL of a collector, such as
	// http://localhost:4318/v1/traces. Tracing is off when it is empty.
	OTLPEndpoint string
}

// SimConfig holds settings for the management endpoint simulator.
type SimConfig struct {
	ListenAddr  string
	DBPath      string
	Faults      int
	CORSOrigins []string
	LogLevel    slog.Level
	LogFormat   string
}

// Load reads client configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ManagementURI: defaultManagementURI,
		APIVersion:    defaultAPIVersion,
		HTTPTimeout:   defaultHTTPTimeout,
		LogLevel:      slog.LevelInfo,
		LogFormat:     defaultLogFormat,
	}

	if v := os.Getenv(envManagementURI); v != "" {
		cfg.ManagementURI = v
	}
	if v := os.Getenv(envAPIVersion); v != "" {
		cfg.APIVersion = v
	}
	if v := os.Getenv(envHTTPTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}
	cfg.OTLPEndpoint = os.Getenv(envOTLPEndpoint)
	cfg.LogLevel, cfg.LogFormat = loadLogging()

	return cfg
}

// LoadSim reads simulator configuration from environment variables.
func LoadSim() SimConfig {
	cfg := SimConfig{
		ListenAddr:  defaultSimListenAddr,
		DBPath:      defaultSimDBPath,
		CORSOrigins: []string{defaultSimCORSOrigins},
	}

	if v := os.Getenv(envSimListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envSimDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envSimFaults); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Faults = n
		}
	}
	if v := os.Getenv(envSimCORSOrigins); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.LogLevel, cfg.LogFormat = loadLogging()

	return cfg
}

func loadLogging() (slog.Level, string) {
	level := slog.LevelInfo
	if v := os.Getenv(envLogLevel); v != "" {
		level = parseLogLevel(v)
	}
	format := defaultLogFormat
	if v := strings.ToLower(os.Getenv(envLogFormat)); v == "text" {
		format = v
	}
	return level, format
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

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured logger writing to w at the configured level.
// format "text" gives colorized human output; anything else gives JSON.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if format == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// BackendConfig points at the study backend.
type BackendConfig struct {
	BaseURL     string
	Timeout     time.Duration
	SummaryTopK int
	QueryTopK   int
}

// UploadConfig selects and tunes the upload backend.
type UploadConfig struct {
	Backend        string // "simulated"|"s3"
	SimulatedDelay time.Duration
	S3Bucket       string
	S3Prefix       string
	S3PartSizeMB   int64
	MaxMB          int
}

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	Port           string
	AllowedOrigin  string
	RequestTimeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Backend BackendConfig
	Upload  UploadConfig
	Gateway GatewayConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/studydesk.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_studydesk",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Backend = BackendConfig{
		BaseURL:     strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://127.0.0.1:8000"), "/"),
		Timeout:     parseDuration(getEnv("BACKEND_TIMEOUT", "60s"), 60*time.Second),
		SummaryTopK: parseInt(getEnv("SUMMARY_TOP_K", "3"), 3),
		QueryTopK:   parseInt(getEnv("QUERY_TOP_K", "5"), 5),
	}

	cfg.Upload = UploadConfig{
		Backend:        strings.ToLower(getEnv("UPLOAD_BACKEND", "simulated")),
		SimulatedDelay: parseDuration(getEnv("UPLOAD_SIMULATED_DELAY", "800ms"), 800*time.Millisecond),
		S3Bucket:       getEnv("AWS_S3_BUCKET", ""),
		S3Prefix:       getEnv("UPLOAD_S3_PREFIX", "uploads"),
		S3PartSizeMB:   int64(parseInt(getEnv("UPLOAD_S3_PART_SIZE_MB", "0"), 0)),
		MaxMB:          parseInt(getEnv("UPLOAD_MAX_MB", "25"), 25),
	}

	cfg.Gateway = GatewayConfig{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		RequestTimeout: parseDuration(getEnv("GATEWAY_REQUEST_TIMEOUT", "2m"), 2*time.Minute),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}

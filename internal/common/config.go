package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Tokens   TokensConfig
	Render   RenderConfig
	Queue    QueueConfig
	Inbox    InboxConfig
	Export   ExportConfig
}

// DatabaseConfig holds database-related configuration.
// DSN is either a postgres:// URL or a sqlite DSN.
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// TokensConfig drives the token-stream collaborators (text layer, OCR, HEIC conversion).
type TokensConfig struct {
	TesseractLang    string
	TessdataDir      string
	HeicConverter    string
	ArtifactCacheDir string
	MinConfidence    float64 // OCR words below this confidence (0-100) are dropped
}

// RenderConfig holds annotation rendering configuration
type RenderConfig struct {
	PDFToPPM       string
	DPI            int
	OutputDir      string
	HighlightColor string
	BalloonColor   string
}

// QueueConfig sizes the document worker pool
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// InboxConfig configures the optional watched drop directory. Empty Dir disables it.
type InboxConfig struct {
	Dir         string
	Debounce    time.Duration
	InitialScan bool
}

// ExportConfig selects the spreadsheet column layout.
type ExportConfig struct {
	Layout string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Tokens: TokensConfig{
			TesseractLang:    getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
			MinConfidence:    getEnvAsFloat("TESSERACT_MIN_CONFIDENCE", 30),
		},
		Render: RenderConfig{
			PDFToPPM:       getEnv("PDFTOPPM", "pdftoppm"),
			DPI:            getEnvAsInt("RENDER_DPI", 150),
			OutputDir:      getEnv("OUTPUT_DIR", "./outputs"),
			HighlightColor: getEnv("HIGHLIGHT_COLOR", "#FFFF00"),
			BalloonColor:   getEnv("BALLOON_COLOR", "#FF0000"),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Inbox: InboxConfig{
			Dir:         getEnv("INBOX_DIR", ""),
			Debounce:    getEnvAsDuration("INBOX_DEBOUNCE", 500*time.Millisecond),
			InitialScan: getEnvAsBool("INBOX_INITIAL_SCAN", true),
		},
		Export: ExportConfig{
			Layout: strings.ToLower(getEnv("EXPORT_LAYOUT", "extended")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings the daemon cannot start without.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Render.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "RENDER_DPI must be positive", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_WORKERS and QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	switch c.Export.Layout {
	case "basic", "extended":
	default:
		return NewAppError("CONFIG_ERROR", "EXPORT_LAYOUT must be basic or extended", ErrInvalidInput)
	}
	return nil
}

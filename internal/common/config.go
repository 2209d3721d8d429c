package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Pipeline PipelineConfig
	LLM      LLMConfig
	Sink     SinkConfig
}

// PipelineConfig holds directory and scheduling configuration
type PipelineConfig struct {
	InvoiceDir      string
	ArchiveDir      string
	ProcessedDBPath string
	CheckInterval   time.Duration
	WatchDebounce   time.Duration
}

// LLMConfig holds generic-extractor configuration
type LLMConfig struct {
	URL         string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// SinkConfig selects and configures the persistent sink
type SinkConfig struct {
	Kind     string // "xlsx" or "postgres"
	XLSXPath string
	DSN      string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InvoiceDir:      getEnv("INVOICE_DIR", "data/invoices"),
			ArchiveDir:      getEnv("ARCHIVE_DIR", "data/old_invoices"),
			ProcessedDBPath: getEnv("PROCESSED_DB_PATH", "data/processed_ids.db"),
			CheckInterval:   getEnvAsDuration("CHECK_INTERVAL", 60*time.Second),
			WatchDebounce:   getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
		},
		LLM: LLMConfig{
			URL:         getEnv("OLLAMA_URL", "http://localhost:11434/api/chat"),
			Model:       getEnv("OLLAMA_MODEL", "gemma2:2b"),
			Temperature: getEnvAsFloat32("OLLAMA_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OLLAMA_TIMEOUT", 300*time.Second),
		},
		Sink: SinkConfig{
			Kind:     getEnv("SINK_KIND", "xlsx"),
			XLSXPath: getEnv("XLSX_PATH", "data/invoices.xlsx"),
			DSN:      getEnv("DB_URL", ""),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Pipeline.InvoiceDir == "" {
		return NewAppError("CONFIG_ERROR", "INVOICE_DIR is required", ErrInvalidInput)
	}
	switch c.Sink.Kind {
	case "xlsx":
		if c.Sink.XLSXPath == "" {
			return NewAppError("CONFIG_ERROR", "XLSX_PATH is required for the xlsx sink", ErrInvalidInput)
		}
	case "postgres":
		if c.Sink.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres sink", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "SINK_KIND must be xlsx or postgres", ErrInvalidInput)
	}
	return nil
}

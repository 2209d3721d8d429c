package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "data/invoices", cfg.Pipeline.InvoiceDir)
	assert.Equal(t, "data/old_invoices", cfg.Pipeline.ArchiveDir)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.CheckInterval)
	assert.Equal(t, "http://localhost:11434/api/chat", cfg.LLM.URL)
	assert.Equal(t, float32(0.1), cfg.LLM.Temperature)
	assert.Equal(t, "xlsx", cfg.Sink.Kind)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("INVOICE_DIR", "/tmp/inv")
	t.Setenv("OLLAMA_TIMEOUT", "30s")
	t.Setenv("SINK_KIND", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/invoices")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/inv", cfg.Pipeline.InvoiceDir)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadSink(t *testing.T) {
	cfg := LoadConfig()
	cfg.Sink.Kind = "s3"
	assert.Error(t, cfg.Validate())

	cfg.Sink.Kind = "postgres"
	cfg.Sink.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg.Sink.Kind = "xlsx"
	cfg.Sink.XLSXPath = ""
	assert.Error(t, cfg.Validate())
}

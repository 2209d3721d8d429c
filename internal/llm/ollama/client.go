// Package ollama implements llm.Extractor against an Ollama chat endpoint.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
	"github.com/seyi-ajayi/invoice-tracker/internal/llm"
)

// Config holds the chat endpoint settings. Temperature stays low so repeated
// extractions over the same files are stable.
type Config struct {
	URL         string // full chat endpoint, e.g. http://localhost:11434/api/chat
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Extract implements llm.Extractor. The endpoint returns a single JSON object
// encoded as a string in message.content; the reply is sanitized, validated
// against the canonical schema, and decoded. Every failure mode comes back as
// an error for the caller to degrade on.
func (c *Client) Extract(ctx context.Context, text string) (*entity.InvoiceRecord, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model":    c.cfg.Model,
		"messages": []map[string]any{{"role": "user", "content": llm.BuildPrompt(text)}},
		"format":   "json",
		"stream":   false,
		"options":  map[string]any{"temperature": c.cfg.Temperature},
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	raw, _, err := llm.SendJSON(ctx, c.httpClient, c.cfg.URL, body, c.log)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var chat struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &chat); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	content := strings.TrimSpace(chat.Message.Content)
	if content == "" {
		c.log.Error("llm.extract.empty_content", "req_id", rid)
		return nil, fmt.Errorf("empty message content")
	}

	cleaned, _, err := llm.SanitizeRecordJSON([]byte(content), c.log)
	if err != nil {
		c.log.Error("llm.extract.sanitize_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	if err := llm.ValidateJSONAgainstSchema(llm.BuildInvoiceJSONSchema(), cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(cleaned),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	rec := entity.NewInvoiceRecord()
	if err := json.Unmarshal(cleaned, rec); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if rec.Items == nil {
		rec.Items = []entity.LineItem{}
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"company", rec.CompanyName,
		"date", rec.PurchaseDate,
		"total", rec.TotalPrice,
		"items", len(rec.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
	"github.com/seyi-ajayi/invoice-tracker/internal/llm"
	"github.com/seyi-ajayi/invoice-tracker/internal/vendor"
)

// Router chooses between deterministic vendor parsing and model-assisted
// extraction. Known vendors get fast, free, deterministic parsing; unknown
// senders pay for a model call only when necessary.
type Router struct {
	extractor llm.Extractor
	log       *slog.Logger
}

func NewRouter(extractor llm.Extractor, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{extractor: extractor, log: logger}
}

// Route returns a canonical record, or nil when no path could extract one.
// A detected vendor never falls through to the model, even when its parser
// comes back with empty fields.
func (r *Router) Route(ctx context.Context, senderEmail, content string) *entity.InvoiceRecord {
	if id := vendor.Detect(senderEmail); id != "" {
		r.log.Info("pipeline.route.vendor", "vendor", id)
		return vendor.Normalize(vendor.Parse(content, id))
	}

	if r.extractor == nil {
		r.log.Warn("pipeline.route.no_extractor", "sender", senderEmail)
		return nil
	}
	r.log.Info("pipeline.route.llm", "sender", senderEmail)
	rec, err := r.extractor.Extract(ctx, content)
	if err != nil {
		// Leaf failure: the group stays on disk and is retried on a future pass.
		r.log.Error("pipeline.route.llm_failed", "error", err)
		return nil
	}
	return rec
}

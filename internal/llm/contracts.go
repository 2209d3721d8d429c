package llm

import (
	"context"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
)

// Extractor is the model-assisted extraction path the pipeline depends on for
// senders without a registered vendor parser. Implementations return an error
// for any transport, decode, or validation failure; callers treat that as
// "group unextractable this pass" and never abort the batch over it.
type Extractor interface {
	Extract(ctx context.Context, text string) (*entity.InvoiceRecord, error)
}

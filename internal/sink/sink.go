// Package sink holds the persistent-store adapters a pipeline run commits
// canonical records into, exactly once per logical mail thread.
package sink

import (
	"context"
	"strconv"
	"strings"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
)

// Sink persists canonical invoice records. Write reports false (not an error)
// when the record's thread id is already present, so callers can distinguish
// duplicates from real failures.
type Sink interface {
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	Write(ctx context.Context, rec *entity.InvoiceRecord) (bool, error)
	Close() error
}

// Headers is the sink column contract, in order. Consumers depend on these
// names; renaming one is a breaking change.
var Headers = []string{
	"mail_thread_id",
	"company_name",
	"purchase_date",
	"mail_received_time",
	"purchase_receiver",
	"total_price",
	"item_names",
	"item_quantities",
	"item_prices",
	"other_expenses",
	"processed_at",
}

// itemColumns flattens line items into the three comma-joined item columns.
func itemColumns(items []entity.LineItem) (names, quantities, prices string) {
	ns := make([]string, 0, len(items))
	qs := make([]string, 0, len(items))
	ps := make([]string, 0, len(items))
	for _, it := range items {
		ns = append(ns, it.ItemName)
		qs = append(qs, strconv.Itoa(it.Quantity))
		ps = append(ps, strconv.FormatFloat(it.Price, 'f', -1, 64))
	}
	return strings.Join(ns, ", "), strings.Join(qs, ", "), strings.Join(ps, ", ")
}

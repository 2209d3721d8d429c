package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
)

const invoicesDDL = `
CREATE TABLE IF NOT EXISTS invoices (
	id                 BIGSERIAL PRIMARY KEY,
	mail_thread_id     TEXT NOT NULL DEFAULT '',
	company_name       TEXT NOT NULL DEFAULT '',
	purchase_date      TEXT NOT NULL DEFAULT '',
	mail_received_time TEXT NOT NULL DEFAULT '',
	purchase_receiver  TEXT NOT NULL DEFAULT '',
	total_price        TEXT NOT NULL DEFAULT '',
	item_names         TEXT NOT NULL DEFAULT '',
	item_quantities    TEXT NOT NULL DEFAULT '',
	item_prices        TEXT NOT NULL DEFAULT '',
	other_expenses     TEXT NOT NULL DEFAULT '',
	processed_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS invoices_thread_id_key
	ON invoices (mail_thread_id) WHERE mail_thread_id <> '';
`

// PostgresSink persists canonical records in an invoices table. Records with
// an empty thread id are never deduplicated; non-empty ids are enforced unique
// by a partial index so duplicates surface as a no-op insert.
type PostgresSink struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresSink(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-tracker"

	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, invoicesDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("sink.postgres.connected")
	return &PostgresSink{pool: pool, log: logger}, nil
}

func (s *PostgresSink) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT mail_thread_id FROM invoices WHERE mail_thread_id <> ''`)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Write inserts one record; a conflicting thread id results in (false, nil).
func (s *PostgresSink) Write(ctx context.Context, rec *entity.InvoiceRecord) (bool, error) {
	names, quantities, prices := itemColumns(rec.Items)
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO invoices (
			mail_thread_id, company_name, purchase_date, mail_received_time,
			purchase_receiver, total_price, item_names, item_quantities,
			item_prices, other_expenses
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (mail_thread_id) WHERE mail_thread_id <> '' DO NOTHING`,
		rec.MailThreadID, rec.CompanyName, rec.PurchaseDate, rec.MailReceivedTime,
		rec.PurchaseReceiver, rec.TotalPrice, names, quantities,
		prices, rec.OtherExpenses,
	)
	if err != nil {
		return false, fmt.Errorf("insert invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.log.Info("sink.postgres.duplicate", "thread_id", rec.MailThreadID)
		return false, nil
	}

	s.log.Info("sink.postgres.write", "thread_id", rec.MailThreadID, "company", rec.CompanyName)
	return true, nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

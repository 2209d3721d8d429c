package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
)

const xlsxSheet = "Sheet1"

// XLSXSink appends canonical records to a workbook on disk, the reference
// system's spreadsheet made local. Each Write reopens the file so a crash
// mid-run loses at most the in-flight record.
type XLSXSink struct {
	path string
	log  *slog.Logger
}

// NewXLSXSink opens (or creates with a header row) the workbook at path.
func NewXLSXSink(path string, logger *slog.Logger) (*XLSXSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &XLSXSink{path: path, log: logger}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f := excelize.NewFile()
		for i, h := range Headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
				return nil, fmt.Errorf("write header: %w", err)
			}
		}
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("create workbook: %w", err)
		}
		logger.Info("sink.xlsx.created", "path", path)
	}
	return s, nil
}

// ExistingIDs reads every non-empty thread id from the first column.
func (s *XLSXSink) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer s.closeFile(f)

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	ids := make(map[string]struct{})
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		ids[row[0]] = struct{}{}
	}
	return ids, nil
}

// Write appends one row. Returns false when the record's thread id is already
// present in the sheet.
func (s *XLSXSink) Write(ctx context.Context, rec *entity.InvoiceRecord) (bool, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return false, fmt.Errorf("open workbook: %w", err)
	}
	defer s.closeFile(f)

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		return false, fmt.Errorf("read rows: %w", err)
	}

	if rec.MailThreadID != "" {
		for i, row := range rows {
			if i == 0 || len(row) == 0 {
				continue
			}
			if row[0] == rec.MailThreadID {
				s.log.Info("sink.xlsx.duplicate", "thread_id", rec.MailThreadID)
				return false, nil
			}
		}
	}

	names, quantities, prices := itemColumns(rec.Items)
	values := []any{
		rec.MailThreadID,
		rec.CompanyName,
		rec.PurchaseDate,
		rec.MailReceivedTime,
		rec.PurchaseReceiver,
		rec.TotalPrice,
		names,
		quantities,
		prices,
		rec.OtherExpenses,
		time.Now().Format("2006-01-02 15:04:05"),
	}

	rowNum := len(rows) + 1
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
			return false, fmt.Errorf("write cell: %w", err)
		}
	}
	if err := f.Save(); err != nil {
		return false, fmt.Errorf("save workbook: %w", err)
	}

	s.log.Info("sink.xlsx.write", "thread_id", rec.MailThreadID, "company", rec.CompanyName, "row", rowNum)
	return true, nil
}

func (s *XLSXSink) Close() error { return nil }

func (s *XLSXSink) closeFile(f *excelize.File) {
	if err := f.Close(); err != nil {
		s.log.Warn("sink.xlsx.close_error", "error", err)
	}
}

package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoiceflow/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// accountsPayable is the fixed ledger account every row is booked against.
const accountsPayable = "Accounts Payable"

// columns defines the export header row.
var columns = []string{
	"Document",
	"Vendor",
	"Document Number",
	"Date",
	"Account",
	"Description",
	"Debit",
	"Credit",
	"Reference",
	"Entity",
}

// Rows projects successful extraction results into ledger rows, preserving
// input order. Error results are excluded: export covers what succeeded.
func Rows(results []domain.ExtractionResult, entityName string) []domain.LedgerRow {
	rows := make([]domain.LedgerRow, 0, len(results))
	for i := range results {
		r := &results[i]
		if !r.Succeeded() {
			continue
		}
		row := domain.LedgerRow{
			Document:       r.DocumentName,
			Vendor:         r.Data.VendorName,
			DocumentNumber: r.Data.InvoiceNumber,
			Date:           r.Data.Date,
			Account:        accountsPayable,
			Debit:          r.Data.TotalAmount,
			Credit:         0,
			Reference:      r.Data.InvoiceNumber,
			Entity:         entityName,
		}
		if len(r.Data.LineItems) > 0 {
			row.Description = r.Data.LineItems[0].Description
		}
		rows = append(rows, row)
	}
	return rows
}

// Writer wraps csv.Writer for exporting ledger rows as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the fixed header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRows writes ledger rows in order.
func (w *Writer) WriteRows(rows []domain.LedgerRow) error {
	for i := range rows {
		if err := w.csv.Write(rowToRecord(&rows[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a full CSV export (BOM, header, rows) to w.
func WriteCSV(w io.Writer, rows []domain.LedgerRow) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteRows(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func rowToRecord(r *domain.LedgerRow) []string {
	return []string{
		r.Document,
		r.Vendor,
		r.DocumentNumber,
		r.Date,
		r.Account,
		r.Description,
		formatMoney(r.Debit),
		formatMoney(r.Credit),
		r.Reference,
		r.Entity,
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a deterministic export filename.
// Format: {sanitized_prefix}_{YYYY-MM-DD}.{ext}
func BuildFilename(prefix, ext string) string {
	sanitized := SanitizeFilename(prefix)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}

package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoiceflow/internal/domain"
)

const sheetName = "Ledger"

// WriteXLSX writes a full spreadsheet export to w: one sheet, the fixed
// header row, one row per ledger entry with numeric debit/credit cells.
func WriteXLSX(w io.Writer, rows []domain.LedgerRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locating row %d: %w", i+2, err)
		}
		values := []interface{}{
			r.Document,
			r.Vendor,
			r.DocumentNumber,
			r.Date,
			r.Account,
			r.Description,
			r.Debit,
			r.Credit,
			r.Reference,
			r.Entity,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

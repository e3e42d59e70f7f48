package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// WriteWorkbookFile writes the workbook produced by WriteWorkbook to path.
func WriteWorkbookFile(path string, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook %q: %w", path, err)
	}
	defer f.Close()

	if err := WriteWorkbook(f, txns); err != nil {
		return err
	}
	return f.Close()
}

// WriteWorkbook writes an XLSX workbook with a Transactions sheet holding
// the export rows and a Summary sheet with totals per kind and category.
func WriteWorkbook(out io.Writer, txns []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	header := []any{"Date", "Amount", "Type", "Description", "Merchant", "Card", "Category", "Source_File", "Month", "Page"}
	if err := f.SetSheetRow(transactionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	sorted := sortedByDate(txns)
	for i, r := range ExportRows(txns) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Date, sorted[i].SignedAmount().InexactFloat64(), r.Type, r.Description,
			r.Merchant, r.Card, r.Category, r.SourceFile, r.Month, r.Page,
		}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	credits, debits := models.Totals(txns)
	rows := [][]any{
		{"Metric", "Value"},
		{"Transactions", len(txns)},
		{"Total Credits", credits.InexactFloat64()},
		{"Total Debits", debits.InexactFloat64()},
		{"Net Change", credits.Sub(debits).InexactFloat64()},
		{},
		{"Category", "Transactions", "Total"},
	}
	for _, c := range categoryBreakdown(txns) {
		rows = append(rows, []any{c.Name, c.Count, c.Total.InexactFloat64()})
	}
	for i := range rows {
		if len(rows[i]) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

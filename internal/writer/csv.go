// Package writer exports transactions as CSV, monthly CSV files, an XLSX
// workbook and a plain-text summary report.
package writer

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// ExportRow is one spreadsheet-friendly CSV row. Amount is signed: debits
// are negative.
type ExportRow struct {
	Date        string `csv:"Date"`
	Amount      string `csv:"Amount"`
	Type        string `csv:"Type"`
	Description string `csv:"Description"`
	Merchant    string `csv:"Merchant"`
	Card        string `csv:"Card"`
	Category    string `csv:"Category"`
	SourceFile  string `csv:"Source_File"`
	Month       string `csv:"Month"`
	Page        int    `csv:"Page"`
}

// ExportRows converts txns to rows sorted by date. Transactions with the
// same date keep their statement order.
func ExportRows(txns []models.Transaction) []ExportRow {
	rows := make([]ExportRow, 0, len(txns))
	for _, t := range sortedByDate(txns) {
		rows = append(rows, ExportRow{
			Date:        isoDate(t),
			Amount:      t.SignedAmount().StringFixed(2),
			Type:        string(t.Kind),
			Description: t.Description,
			Merchant:    t.Merchant,
			Card:        t.CardSuffix,
			Category:    t.Category,
			SourceFile:  t.SourceFile,
			Month:       t.MonthKey(),
			Page:        t.PageNumber,
		})
	}
	return rows
}

func sortedByDate(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool { return isoDate(out[i]) < isoDate(out[j]) })
	return out
}

// isoDate formats the full date as YYYY-MM-DD. An impossible calendar date
// keeps its printed day so the row still sorts into its month.
func isoDate(t models.Transaction) string {
	if d, err := t.FullDate(); err == nil {
		return d.Format("2006-01-02")
	}
	day, _ := t.Day()
	return fmt.Sprintf("%s-%02d", t.MonthKey(), day)
}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	// IncludeHeader writes "# Account" and "# Period" comment lines for
	// Summary before the column header.
	IncludeHeader bool
	Summary       *models.StatementSummary
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, txns); err != nil {
		return err
	}
	return f.Close()
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, txns []models.Transaction) error {
	if w.IncludeHeader && w.Summary != nil {
		if _, err := fmt.Fprintf(out, "# Account,%s\n# Period,%s\n", w.Summary.AccountNumber, w.Summary.Period()); err != nil {
			return fmt.Errorf("failed to write CSV metadata: %w", err)
		}
	}

	rows := ExportRows(txns)
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{
			Date: "12/15", Year: 2022, Month: 12, Amount: decimal.RequireFromString("45.10"),
			Kind: models.KindDebit, Description: "1234 Debit Card Purchase Kroger #123",
			Merchant: "Kroger #123", CardSuffix: "1234", Category: "Groceries",
			PageNumber: 1, SourceFile: "dec.pdf",
		},
		{
			Date: "01/01", Year: 2023, Month: 1, Amount: decimal.RequireFromString("14"),
			Kind: models.KindDebit, Description: "POS Purchase Giant Eagle",
			Merchant: "Giant Eagle", Category: "Groceries", PageNumber: 2, SourceFile: "dec.pdf",
		},
		{
			Date: "12/08", Year: 2022, Month: 12, Amount: decimal.RequireFromString("6250"),
			Kind: models.KindCredit, Description: "DirectDeposit - Payroll INTRVL LLC",
			Merchant: "Intrvl Llc", Category: "Income", PageNumber: 1, SourceFile: "dec.pdf",
		},
	}
}

func TestExportRows(t *testing.T) {
	rows := ExportRows(sampleTransactions())
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"2022-12-08", "2022-12-15", "2023-01-01"},
		[]string{rows[0].Date, rows[1].Date, rows[2].Date})
	assert.Equal(t, "6250.00", rows[0].Amount)
	assert.Equal(t, "-45.10", rows[1].Amount)
	assert.Equal(t, "DEBIT", rows[1].Type)
	assert.Equal(t, "1234", rows[1].Card)
	assert.Equal(t, "2023-01", rows[2].Month)
	assert.Equal(t, 2, rows[2].Page)
}

func TestExportRowsImpossibleDate(t *testing.T) {
	rows := ExportRows([]models.Transaction{{Date: "02/30", Year: 2023, Month: 2, Kind: models.KindCredit}})
	require.Len(t, rows, 1)
	assert.Equal(t, "2023-02-30", rows[0].Date)
}

func TestCSVWriter_Write(t *testing.T) {
	summary := &models.StatementSummary{
		AccountNumber: "12-3456-7890",
		PeriodStart:   time.Date(2022, 12, 2, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true, Summary: summary}
	require.NoError(t, w.Write(&buf, sampleTransactions()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "# Account,12-3456-7890", lines[0])
	assert.Equal(t, "# Period,12/02/2022 - 01/01/2023", lines[1])
	assert.Equal(t, "Date,Amount,Type,Description,Merchant,Card,Category,Source_File,Month,Page", lines[2])
	assert.Equal(t, "2022-12-15,-45.10,DEBIT,1234 Debit Card Purchase Kroger #123,Kroger #123,1234,Groceries,dec.pdf,2022-12,1", lines[4])
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	require.NoError(t, w.Write(&buf, sampleTransactions()))

	output := buf.String()
	assert.False(t, strings.HasPrefix(output, "#"))
	assert.True(t, strings.HasPrefix(output, "Date,Amount,Type"))
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{}
	require.NoError(t, w.WriteToFile(path, sampleTransactions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2023-01-01,-14.00,DEBIT")

	err = w.WriteToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	assert.Error(t, err)
}

func TestWriteMonthly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "monthly")
	paths, err := WriteMonthly(dir, sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "transactions_2022-12.csv"),
		filepath.Join(dir, "transactions_2023-01.csv"),
	}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)

	paths, err = WriteMonthly(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

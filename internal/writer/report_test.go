package writer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"14", "$14.00"},
		{"6250", "$6,250.00"},
		{"0.755", "$0.76"},
		{"1234567.8", "$1,234,567.80"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestWriteSummaryReport(t *testing.T) {
	summary := &models.StatementSummary{
		AccountNumber: "12-3456-7890",
		PeriodStart:   time.Date(2022, 12, 2, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalPages:    2,
	}
	txns := append(sampleTransactions(), models.Transaction{
		Date: "12/20", Year: 2022, Month: 12, Amount: decimal.RequireFromString("100"),
		Kind: models.KindDebit, Merchant: parser.UnknownMerchant, Category: "Transfers",
	})

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryReport(&buf, []*models.StatementSummary{summary, nil}, txns))
	out := buf.String()

	for _, want := range []string{
		"Account: 12-3456-7890\n",
		"Period: 12/02/2022 to 01/01/2023\n",
		"Pages: 2\n",
		"  Credits: 1\n  Debits: 3\n  Total: 4\n",
		"  Total Credits: $6,250.00\n",
		"  Total Debits: $159.10\n",
		"  Net Change: $6,090.90\n",
		"  Groceries: 2 transactions, -$59.10\n",
		"  Income: 1 transactions, $6,250.00\n",
	} {
		assert.Contains(t, out, want)
	}

	merchants := out[strings.Index(out, "Top Merchants by Amount:"):]
	assert.NotContains(t, merchants, parser.UnknownMerchant)
	assert.Less(t, strings.Index(merchants, "Intrvl Llc"), strings.Index(merchants, "Kroger #123"))
	assert.Less(t, strings.Index(merchants, "Kroger #123"), strings.Index(merchants, "Giant Eagle"))
}

func TestMerchantRankingKeepsTopTen(t *testing.T) {
	var txns []models.Transaction
	for i := 1; i <= 12; i++ {
		txns = append(txns, models.Transaction{
			Amount:   decimal.NewFromInt(int64(i)),
			Kind:     models.KindDebit,
			Merchant: fmt.Sprintf("M%02d", i),
		})
	}
	ranked := merchantRanking(txns)
	require.Len(t, ranked, 10)
	assert.Equal(t, "M12", ranked[0].Name)
	assert.Equal(t, "M03", ranked[9].Name)
}

package writer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

const topMerchants = 10

// Bucket aggregates transactions sharing a category or merchant.
type Bucket struct {
	Name  string
	Count int
	Total decimal.Decimal
}

// FormatUSD renders d as a dollar amount, e.g. $1,234.56 or -$12.00.
func FormatUSD(d decimal.Decimal) string {
	cents := d.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// categoryBreakdown sums signed amounts per category, sorted by name.
func categoryBreakdown(txns []models.Transaction) []Bucket {
	return buckets(txns, func(t models.Transaction) (string, decimal.Decimal, bool) {
		return t.Category, t.SignedAmount(), true
	}, func(a, b Bucket) bool { return a.Name < b.Name })
}

// merchantRanking sums absolute amounts per known merchant, largest first.
func merchantRanking(txns []models.Transaction) []Bucket {
	ranked := buckets(txns, func(t models.Transaction) (string, decimal.Decimal, bool) {
		ok := t.Merchant != "" && t.Merchant != parser.UnknownMerchant
		return t.Merchant, t.Amount.Abs(), ok
	}, func(a, b Bucket) bool {
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	if len(ranked) > topMerchants {
		ranked = ranked[:topMerchants]
	}
	return ranked
}

func buckets(txns []models.Transaction, key func(models.Transaction) (string, decimal.Decimal, bool), less func(a, b Bucket) bool) []Bucket {
	index := make(map[string]int)
	var out []Bucket
	for _, t := range txns {
		name, amount, ok := key(t)
		if !ok {
			continue
		}
		i, seen := index[name]
		if !seen {
			i = len(out)
			index[name] = i
			out = append(out, Bucket{Name: name})
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(amount)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// WriteSummaryReportFile writes the report produced by WriteSummaryReport
// to path.
func WriteSummaryReportFile(path string, summaries []*models.StatementSummary, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary report %q: %w", path, err)
	}
	defer f.Close()

	if err := WriteSummaryReport(f, summaries, txns); err != nil {
		return err
	}
	return f.Close()
}

// WriteSummaryReport writes statement metadata, counts, totals, a category
// breakdown and the top merchants by amount as plain text.
func WriteSummaryReport(out io.Writer, summaries []*models.StatementSummary, txns []models.Transaction) error {
	var b strings.Builder
	b.WriteString("Statement Processing Summary\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for _, s := range summaries {
		if s == nil {
			continue
		}
		fmt.Fprintf(&b, "Account: %s\n", s.AccountNumber)
		fmt.Fprintf(&b, "Period: %s to %s\n", s.PeriodStart.Format("01/02/2006"), s.PeriodEnd.Format("01/02/2006"))
		fmt.Fprintf(&b, "Pages: %d\n\n", s.TotalPages)
	}

	var credits, debits int
	for _, t := range txns {
		if t.Kind == models.KindDebit {
			debits++
		} else {
			credits++
		}
	}
	b.WriteString("Transaction Counts:\n")
	fmt.Fprintf(&b, "  Credits: %d\n", credits)
	fmt.Fprintf(&b, "  Debits: %d\n", debits)
	fmt.Fprintf(&b, "  Total: %d\n\n", len(txns))

	totalCredits, totalDebits := models.Totals(txns)
	b.WriteString("Amount Totals:\n")
	fmt.Fprintf(&b, "  Total Credits: %s\n", FormatUSD(totalCredits))
	fmt.Fprintf(&b, "  Total Debits: %s\n", FormatUSD(totalDebits))
	fmt.Fprintf(&b, "  Net Change: %s\n\n", FormatUSD(totalCredits.Sub(totalDebits)))

	b.WriteString("Category Breakdown:\n")
	for _, c := range categoryBreakdown(txns) {
		fmt.Fprintf(&b, "  %s: %d transactions, %s\n", c.Name, c.Count, FormatUSD(c.Total))
	}
	b.WriteString("\n")

	b.WriteString("Top Merchants by Amount:\n")
	for _, m := range merchantRanking(txns) {
		fmt.Fprintf(&b, "  %s: %d transactions, %s\n", m.Name, m.Count, FormatUSD(m.Total))
	}
	b.WriteString("\n")

	if _, err := io.WriteString(out, b.String()); err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}
	return nil
}

package pipeline

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

// DedupPolicy selects the key used to flag potential duplicates.
type DedupPolicy string

const (
	// DedupBroad keys on date, amount, description prefix, page, source file
	// and line. Only a transaction emitted twice from the same spot matches,
	// so legitimate same-day purchases are never flagged.
	DedupBroad DedupPolicy = "broad"
	// DedupStrict keys on date, amount and merchant.
	DedupStrict DedupPolicy = "strict"
	// DedupOff disables duplicate detection.
	DedupOff DedupPolicy = "off"
)

// DefaultLargeAmountCeiling is the amount above which a transaction is
// flagged as suspicious.
var DefaultLargeAmountCeiling = decimal.NewFromInt(50000)

const dedupDescriptionPrefix = 50

// Validator produces advisory warnings for one document. It never drops
// or alters transactions; it only fills in the summary's computed totals.
type Validator struct {
	ceiling decimal.Decimal
	dedup   DedupPolicy
	log     zerolog.Logger
}

// NewValidator returns a validator. A non-positive ceiling means
// DefaultLargeAmountCeiling; an empty policy means DedupBroad.
func NewValidator(ceiling decimal.Decimal, dedup DedupPolicy, log zerolog.Logger) *Validator {
	if !ceiling.IsPositive() {
		ceiling = DefaultLargeAmountCeiling
	}
	if dedup == "" {
		dedup = DedupBroad
	}
	return &Validator{ceiling: ceiling, dedup: dedup, log: log}
}

// Validate checks txns against summary and writes the computed counts and
// totals back into summary.
func (v *Validator) Validate(summary *models.StatementSummary, txns []models.Transaction, sourceFile string) []models.Warning {
	var warnings []models.Warning
	warn := func(kind models.WarningKind, t *models.Transaction, format string, args ...any) {
		w := models.Warning{Kind: kind, Message: fmt.Sprintf(format, args...), SourceFile: sourceFile}
		if t != nil {
			w.Date = t.Date
			w.Page = t.PageNumber
		}
		warnings = append(warnings, w)
	}

	if summary != nil {
		applyTotals(summary, txns)
	}

	if len(txns) == 0 {
		warn(models.WarningNoTransactions, nil, "no transactions found in statement")
		return warnings
	}

	for i := range txns {
		t := &txns[i]

		if summary != nil {
			d, err := t.FullDate()
			switch {
			case err != nil:
				warn(models.WarningInvalidDate, t, "invalid date %s/%d: %v", t.Date, t.Year, err)
			case d.Before(summary.PeriodStart) || d.After(summary.PeriodEnd):
				warn(models.WarningOutOfPeriod, t, "transaction date %s/%d outside statement period %s",
					t.Date, t.Year, summary.Period())
			}
		}

		if t.Amount.GreaterThan(v.ceiling) {
			warn(models.WarningLargeAmount, t, "large transaction amount $%s on %s", t.Amount.StringFixed(2), t.Date)
		}
		if t.Amount.IsZero() {
			warn(models.WarningZeroAmount, t, "zero amount for transaction on %s", t.Date)
		}
		if strings.TrimSpace(t.Description) == "" || t.Description == parser.UnknownDescription {
			warn(models.WarningEmptyDescription, t, "empty description for transaction on %s", t.Date)
		}
	}

	if v.dedup != DedupOff {
		seen := make(map[string]int, len(txns))
		for i := range txns {
			t := &txns[i]
			key := v.dedupKey(t)
			if first, ok := seen[key]; ok {
				warn(models.WarningDuplicate, t, "potential duplicate transaction: %s $%s %q (first seen at line %d)",
					t.Date, t.Amount.StringFixed(2), truncate(t.Description, dedupDescriptionPrefix), txns[first].LineNumber)
				continue
			}
			seen[key] = i
		}
	}

	if len(warnings) > 0 {
		v.log.Warn().Str("file", sourceFile).Int("warnings", len(warnings)).Msg("validation issues found")
	}
	return warnings
}

func (v *Validator) dedupKey(t *models.Transaction) string {
	if v.dedup == DedupStrict {
		return strings.Join([]string{t.Date, t.Amount.StringFixed(2), strings.ToLower(t.Merchant)}, "\x1f")
	}
	return strings.Join([]string{
		t.Date,
		t.Amount.StringFixed(2),
		truncate(t.Description, dedupDescriptionPrefix),
		fmt.Sprint(t.PageNumber),
		t.SourceFile,
		fmt.Sprint(t.LineNumber),
	}, "\x1f")
}

// applyTotals overwrites the summary's counts and totals with values
// computed from txns.
func applyTotals(summary *models.StatementSummary, txns []models.Transaction) {
	summary.DepositCount, summary.WithdrawalCount = 0, 0
	for _, t := range txns {
		if t.Kind == models.KindDebit {
			summary.WithdrawalCount++
		} else {
			summary.DepositCount++
		}
	}
	summary.TotalDeposits, summary.TotalWithdrawals = models.Totals(txns)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Report renders warnings as the plain-text validation report.
func Report(warnings []models.Warning) string {
	if len(warnings) == 0 {
		return "No validation issues found."
	}
	var b strings.Builder
	b.WriteString("WARNINGS:\n")
	for _, w := range warnings {
		fmt.Fprintf(&b, "  - [%s] %s\n", w.Kind, w)
	}
	return b.String()
}

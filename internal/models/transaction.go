package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of money movement for a transaction.
type Kind string

const (
	KindCredit Kind = "CREDIT"
	KindDebit  Kind = "DEBIT"
)

// Dialect identifies a supported statement layout.
type Dialect string

const (
	DialectPNC  Dialect = "pnc"
	DialectBBVA Dialect = "bbva"
)

// Transaction represents a single statement line item.
// Amount is never negative; the sign comes from Kind.
type Transaction struct {
	Date        string          `json:"date"` // MM/DD as printed
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"type"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant"`
	CardSuffix  string          `json:"cardSuffix,omitempty"`
	Category    string          `json:"category"`
	RawLines    []string        `json:"rawLines,omitempty"`
	PageNumber  int             `json:"page"`
	LineNumber  int             `json:"line"` // 1-based line of the start line within the document text
	SourceFile  string          `json:"sourceFile,omitempty"`
}

// SignedAmount returns Amount negated for debits.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == KindDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Day returns the day-of-month component of Date.
func (t Transaction) Day() (int, error) {
	_, day, ok := strings.Cut(t.Date, "/")
	if !ok {
		return 0, fmt.Errorf("malformed date %q", t.Date)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return 0, fmt.Errorf("malformed date %q: %w", t.Date, err)
	}
	return d, nil
}

// FullDate combines the inferred year and month with the printed day.
// Impossible dates such as 02/30 are rejected rather than normalised.
func (t Transaction) FullDate() (time.Time, error) {
	day, err := t.Day()
	if err != nil {
		return time.Time{}, err
	}
	d := time.Date(t.Year, time.Month(t.Month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != t.Month {
		return time.Time{}, fmt.Errorf("invalid calendar date %s/%d", t.Date, t.Year)
	}
	return d, nil
}

// MonthKey returns the YYYY-MM bucket used for monthly exports.
func (t Transaction) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", t.Year, t.Month)
}

// StatementSummary holds header metadata for one statement document.
// The count and total fields are filled in by validation.
type StatementSummary struct {
	Dialect          Dialect         `json:"dialect"`
	AccountNumber    string          `json:"accountNumber"`
	PeriodStart      time.Time       `json:"periodStart"`
	PeriodEnd        time.Time       `json:"periodEnd"`
	TotalPages       int             `json:"totalPages"`
	DepositCount     int             `json:"depositCount"`
	WithdrawalCount  int             `json:"withdrawalCount"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
}

// Period formats the statement window as MM/DD/YYYY - MM/DD/YYYY.
func (s *StatementSummary) Period() string {
	return s.PeriodStart.Format("01/02/2006") + " - " + s.PeriodEnd.Format("01/02/2006")
}

// WarningKind classifies an advisory validation finding.
type WarningKind string

const (
	WarningDocument         WarningKind = "document"
	WarningHeader           WarningKind = "header"
	WarningOutOfPeriod      WarningKind = "out_of_period"
	WarningInvalidDate      WarningKind = "invalid_date"
	WarningLargeAmount      WarningKind = "large_amount"
	WarningZeroAmount       WarningKind = "zero_amount"
	WarningEmptyDescription WarningKind = "empty_description"
	WarningDuplicate        WarningKind = "duplicate"
	WarningNoTransactions   WarningKind = "no_transactions"
	WarningCoverage         WarningKind = "coverage"
)

// Warning is a non-fatal finding attached to a result.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Message    string      `json:"message"`
	SourceFile string      `json:"sourceFile,omitempty"`
	Date       string      `json:"date,omitempty"`
	Page       int         `json:"page,omitempty"`
}

func (w Warning) String() string {
	if w.SourceFile != "" {
		return fmt.Sprintf("%s: %s", w.SourceFile, w.Message)
	}
	return w.Message
}

// DocumentResult is the outcome of processing one statement.
type DocumentResult struct {
	SourceFile   string            `json:"sourceFile"`
	Dialect      Dialect           `json:"dialect,omitempty"`
	Summary      *StatementSummary `json:"summary,omitempty"`
	Transactions []Transaction     `json:"transactions"`
	Warnings     []Warning         `json:"warnings,omitempty"`
	Err          error             `json:"-"`
}

// BatchResult aggregates the documents of one run.
type BatchResult struct {
	RunID        string           `json:"runId"`
	Documents    []DocumentResult `json:"documents"`
	Transactions []Transaction    `json:"transactions"`
	Warnings     []Warning        `json:"warnings,omitempty"`
}

// Totals sums credits and debits.
func Totals(txns []Transaction) (credits, debits decimal.Decimal) {
	for _, t := range txns {
		if t.Kind == KindDebit {
			debits = debits.Add(t.Amount)
		} else {
			credits = credits.Add(t.Amount)
		}
	}
	return credits, debits
}

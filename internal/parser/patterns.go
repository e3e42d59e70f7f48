package parser

import (
	"regexp"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// Catalog is the compiled pattern table for one statement dialect.
// A Catalog is never mutated after construction and may be shared freely.
type Catalog struct {
	Dialect models.Dialect

	DateStart *regexp.Regexp
	Amount    *regexp.Regexp

	// Section headers. Nil for dialects without sections.
	DepositsStart      *regexp.Regexp
	WithdrawalsStart   *regexp.Regexp
	OnlineBankingStart *regexp.Regexp
	DailyBalanceStart  *regexp.Regexp

	Account *regexp.Regexp
	Period  *regexp.Regexp
	Page    *regexp.Regexp

	// Merchant patterns.
	DebitCardPurchase  *regexp.Regexp
	RecurringDebitCard *regexp.Regexp
	POSPurchase        *regexp.Regexp
	DirectDeposit      *regexp.Regexp
	DebitCardCredit    *regexp.Regexp
	CardNumber         *regexp.Regexp

	// StopMarkers end a multi-line block. They are compared against the
	// upper-cased line with all whitespace removed.
	StopMarkers []string

	Ignore        []*regexp.Regexp
	Contamination []*regexp.Regexp

	// Indicators are upper-case phrases that identify the dialect on the
	// first page. Every group needs at least one hit.
	Indicators [][]string
}

// ci compiles a case-insensitive pattern.
func ci(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// anchored compiles patterns that must match from the start of the line.
func anchored(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)^(?:`+e+`)`))
	}
	return out
}

func unanchored(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, ci(e))
	}
	return out
}

// amountExpr accepts 1,234.56 / 1234.56 / .75 / 14.
const amountExpr = `((?:\d{1,3}(?:,\d{3})+|\d+)\.\d{0,2}|\.\d{2})`

var (
	pncCatalog  = newPNCCatalog()
	bbvaCatalog = newBBVACatalog()
)

// PNCCatalog returns the shared PNC Virtual Wallet pattern table.
func PNCCatalog() *Catalog { return pncCatalog }

// BBVACatalog returns the shared legacy BBVA pattern table.
func BBVACatalog() *Catalog { return bbvaCatalog }

func newPNCCatalog() *Catalog {
	return &Catalog{
		Dialect:   models.DialectPNC,
		DateStart: regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+`),
		Amount:    regexp.MustCompile(amountExpr),

		DepositsStart:      ci(`Deposits\s*and\s*Other\s*Additions`),
		WithdrawalsStart:   ci(`(?:Banking\s*/\s*Debit\s*Card\s*)?Withdrawals\s*and\s*Purchases`),
		OnlineBankingStart: ci(`Online\s*and\s*Electronic\s*Banking\s*Deductions`),
		DailyBalanceStart:  ci(`Daily\s*Balance\s*Detail`),

		Account: ci(`Primary\s*account\s*number:\s*(\d{2}-\d{4}-\d{4})`),
		Period:  ci(`For\s*the\s*period\s*(\d{1,2}/\d{1,2}/\d{4})\s*to\s*(\d{1,2}/\d{1,2}/\d{4})`),
		Page:    ci(`Page\s*(\d+)\s*of\s*(\d+)`),

		DebitCardPurchase:  ci(`(\d{4})\s+Debit\s*Card\s*Purchase\s+(.+)`),
		RecurringDebitCard: ci(`(\d{4})\s+Recurring\s*Debit\s*Card\s+(.+)`),
		POSPurchase:        ci(`POS\s*Purchase\s+(.+)`),
		DirectDeposit:      ci(`Direct\s*Deposit\s*-\s*(.+)`),
		DebitCardCredit:    ci(`Debit\s*Card\s*Credit\s*(.+)`),

		Ignore: anchored(
			`\s*Date\s+Amount\s+Description\s*$`,
			`\s*There\s+were?\s+\d+.*totaling.*\$.*$`,
			`\s*There\s+was\s+\d+.*totaling.*\$.*$`,
			`\s*continued\s+on\s+next\s+page\s*$`,
			`\s*Page\s+\d+\s+of\s+\d+\s*$`,
			`\s*Virtual\s+Wallet.*Statement\s*$`,
			`\s*PNC\s+Bank\s*$`,
			`\s*Primary\s+account\s+number:.*$`,
			`\s*For\s+the\s+period.*$`,
			`\s*Number\s+of\s+enclosures:.*$`,
			`\s*\$\d+\.\d{2}\s*$`,
			`\s*\d{1,3}\s*$`,
			`\s*-+\s*$`,
			`\s*Activity\s+Detail\s*$`,
			`\s*Deposits\s*and\s*Other\s*Additions\s*$`,
			`\s*Banking\s*/\s*Debit\s*Card\s*Withdrawals\s*and\s*Purchases\s*$`,
			`\s*Online\s*and\s*Electronic\s*Banking\s*Deductions\s*$`,
			`\s*Daily\s*Balance\s*Detail\s*$`,
			`\d{1,2}/\d{1,2}\s+[\d,]+\.\d{2}\s+\d{1,2}/\d{1,2}\s+[\d,]+\.\d{2}`,
			`\d{1,2}/\d{1,2}\s+[\d,]+\.\d{2}$`,
			`.*Date\s+Balance\s+Date\s+Balance.*$`,
			`.*PIN\s+There\s+Date\s+Amount\s+Description.*$`,
			`.*Banking/Debit\s*Card\s*Withdrawals\s*and\s*Purchases.*continued.*`,
			`.*continued\s+on\s+next\s+page.*Account\s+Number.*$`,
			`.*PNC\s+Bank\s+Online\s+Banking.*$`,
			`.*Date\s+Amount\s+Description.*`,
			`.*Withdrawal.*totaling.*transactions.*`,
			`.*Transaction\s+Summary.*balance.*fees.*`,
			`.*Account\s+Number:.*continued.*Page.*`,
			`.*Overdraft.*Coverage.*Protection.*`,
			`.*PNC\s+Bank.*Pittsburgh.*PA.*PO\s+Box.*`,
			`.*Write\s+to:\s+Customer.*Moving.*`,
			`.*Para\s+servicio.*TRS.*calls.*`,
		),

		Contamination: unanchored(
			`PIN There Date Amount Description.*`,
			`Date Amount Description.*`,
			`Banking/Debit Card Withdrawals and Purchases.*`,
			`Account Number:.*`,
			`continued.*Page \d+ of \d+.*`,
			`Primary account.*`,
			`PNC Bank Online Banking.*`,
			`Transaction Summary.*`,
			`balance and fees.*`,
			`Average monthly.*`,
			`Beginning Deposits.*`,
			`Deposits and Other Additions.*`,
			`Overdraft.*Coverage.*`,
			`Protection.*established.*`,
			`Write to: Customer.*`,
			`Pittsburgh, PA.*`,
			`Para servicio.*`,
			`TRS.*calls.*`,
			`Visit us at pnc\.com.*`,
			`For customer.*`,
			`interest rate.*`,
			`There \d+ \d+ \d+ transactions.*`,
			`ATM.*Bank ATM.*`,
			`paid/withdrawals.*`,
			`signed transactions.*`,
			`POS PIN transactions.*`,
			`Checks Debit Card.*`,
			`Debit Card/Bankcard.*`,
			`Opted-Out.*`,
			`Please contact us.*`,
			`\s+There were?\s+\d+\s+.*?Banking.*`,
			`\s+There was\s+\d+\s+.*?Banking.*`,
			`\s+There were?\s+\d+\s+.*?Machine.*`,
			`\s+There were?\s+\d+\s+.*?totaling.*`,
			`\s+There were?\s+\d+\s+.*?deductions.*`,
			`\s+There were?\s+\d+\s+.*?purchases.*`,
			`\s+There were?\s+\d+\s+.*?withdrawals.*`,
			`\s+PIN POS purchases totaling.*`,
			`\s+Machine/Debit Card deductions.*`,
			`\s+Banking Machine.*totaling.*`,
			`\s+other Banking.*`,
			`\s+Machine/Debit.*`,
			`\s+totaling\s+\$[\d,]+\.\d{2}.*`,
			`\s+Withdrawal\s*$`,
			`\s+withdrawals?\s*$`,
			`---\s*PAGE\s*\d+\s*---.*`,
		),

		Indicators: [][]string{
			{"VIRTUAL WALLET SPEND STATEMENT", "VIRTUAL WALLET", "PNC BANK"},
		},
	}
}

func newBBVACatalog() *Catalog {
	return &Catalog{
		Dialect:   models.DialectBBVA,
		DateStart: regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+`),
		Amount:    regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})*\.\d{2})`),

		Account: ci(`Primary\s*Account:\s*(\d{10})`),
		Period:  ci(`Beginning\s*([A-Za-z]+)\s*(\d{1,2}),?\s*(\d{4})\s*-?\s*Ending\s*([A-Za-z]+)\s*(\d{1,2}),?\s*(\d{4})`),
		Page:    ci(`Page\s*(\d+)\s*of\s*(\d+)`),

		// CHECKCARD PURCHASE is the point-of-sale wording on these statements.
		POSPurchase: ci(`CHECKCARD\s+PURCHASE\s*-\s*(.+)`),
		CardNumber:  regexp.MustCompile(`X{2,}(\d{4})`),

		StopMarkers: []string{
			"Ending Balance on",
			"T o t a l s",
			"P l e a s e n o t e",
			"P e r i o d i c N o n",
			"Total overdraft",
			"How to Balance Your Account",
			"Step1",
			"Step2",
			"Step3",
			"Step4",
			"Step5",
			"Change of Address",
			"Electronic Transfers",
			"Overdraft Protection",
			"BBVA USA is a Member FDIC",
			"BBVA USA",
			"Calculation of Interest",
			"In esaC of srorrE",
		},

		Ignore: anchored(
			`\s*Page\s*\d+\s*of\s*\d+\s*$`,
			`\s*Primary\s*Account:\s*\d+\s*$`,
			`\s*Beginning.*Ending.*\d{4}\s*$`,
			`\s*Check/.*Serial\s*#.*Description.*$`,
			`\s*Date\s*\*.*Credits.*Debits.*Balance\s*$`,
			`\s*Check/\s*Deposits/\s*Withdrawals/.*$`,
			`\s*Ending\s*Balance\s*on.*$`,
			`\s*T\s?o\s?t\s?a\s?l\s?s\s.*\$.*$`,
			`\s*P\s?l\s?e\s?a\s?s\s?e\s?n\s?o\s?t\s?e.*$`,
			`\s*\*\s?T\s?h\s?e\s?D\s?a\s?t\s?e.*$`,
			`\s*P\s?e\s?r\s?i\s?o\s?d\s?i\s?c.*$`,
			`\s*Total\s*overdraft.*$`,
			`\s*NSF-returned.*$`,
			`\s*Total\s*this\s*Period.*$`,
			`\s*Total\s*\d{4}\s*YTD.*$`,
			`\s*\$\s*\d+\.\d{2}\s*$`,
			`.*BBVA.*Member\s*FDIC.*$`,
			`.*BBVA.*trademark.*$`,
			`.*How\s*to\s*Balance.*$`,
			`\s*Step\d+.*$`,
		),

		Contamination: unanchored(
			`Date\s*\*\s*Serial\s*#\s*Description.*`,
			`Credits\s*Debits\s*Balance.*`,
			`Check/\s*Deposits/\s*Withdrawals/.*`,
			`Primary\s*Account:.*`,
			`Ending\s*Balance\s*on.*`,
			`EndingBalance.*`,
			`T\s?o\s?t\s?a\s?l\s?s\s.*`,
			`P\s*l\s*e\s*a\s*s\s*e\s*n\s*o\s*t\s*e.*`,
			`\*\s*T\s*h\s*e\s*D\s*a\s*t\s*e.*`,
			`How\s*to\s*Balance.*`,
			`Step\d+.*`,
			`BBVA.*FDIC.*`,
			`Overdraft\s*Protection.*`,
			`Electronic\s*Transfers.*`,
			`Page\s*\d+\s*of\s*\d+.*`,
			`---\s*PAGE\s*\d+\s*---.*`,
			`\s+\$[\d,]+\.\d{2}\s*$`,
		),

		Indicators: [][]string{
			{"PRIMARY ACCOUNT", "PRIMARYACCOUNT"},
			{"DATE * SERIAL # DESCRIPTION", "DATE* SERIAL# DESCRIPTION", "DATE*SERIAL#DESCRIPTION"},
		},
	}
}

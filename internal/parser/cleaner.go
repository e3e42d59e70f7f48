package parser

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// UnknownDescription replaces a description that cleaning emptied.
const UnknownDescription = "Unknown Transaction"

// wordRepair fixes tokens that PDF text extraction glued together.
type wordRepair struct {
	re   *regexp.Regexp
	repl string
}

var wordRepairs = []wordRepair{
	{regexp.MustCompile(`DebitCard\s*Credit`), "Debit Card Credit"},
	{regexp.MustCompile(`DebitCard\s*Purchase`), "Debit Card Purchase"},
	{regexp.MustCompile(`RecurringDebit\s*Card`), "Recurring Debit Card"},
	{regexp.MustCompile(`POSPurchase`), "POS Purchase"},
	{regexp.MustCompile(`Credit([A-Z0-9])`), "Credit $1"},
	{regexp.MustCompile(`DirectDeposit`), "Direct Deposit"},
	{regexp.MustCompile(`(\d{4})Debit Card`), "$1 Debit Card"},
	{regexp.MustCompile(`(\d{4})Recurring`), "$1 Recurring"},
	{regexp.MustCompile(`\.Com(\d{10})`), ".Com $1"},
	{regexp.MustCompile(`(\d{10})([A-Z]{2,})`), "$1 $2"},
	{regexp.MustCompile(`([A-Z]+)LLC\b`), "$1 LLC"},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	phoneLike     = regexp.MustCompile(`^\d{4,10}$`)
	shortAlpha    = regexp.MustCompile(`^[A-Za-z]{2,3}$`)
	dollarOnly    = regexp.MustCompile(`^\$[\d,]+\.\d{2}\.?$`)
	lettersOnly   = regexp.MustCompile(`^[A-Za-z\s]{2,}$`)
	alnumToken    = regexp.MustCompile(`^[A-Za-z0-9\s\-_.]+$`)
)

// fallbackKeywords mark where boilerplate begins in a long contaminated line.
var fallbackKeywords = []string{"DATE", "AMOUNT", "DESCRIPTION", "BANKING", "ACCOUNT", "CONTINUED"}

var summaryKeywords = []string{"opening balance", "closing balance", "total deposits", "total withdrawals"}

var continuationStopwords = []string{
	"there were", "there was", "totaling", "banking machine",
	"pin pos", "machine/debit", "other banking", "continued on next page",
}

// maxCleanPasses bounds the repair/strip loop.
const maxCleanPasses = 8

// TextCleaner decides line admissibility and decontaminates descriptions
// using one dialect's catalog.
type TextCleaner struct {
	catalog *Catalog
	log     zerolog.Logger
}

// NewTextCleaner returns a cleaner for catalog.
func NewTextCleaner(catalog *Catalog, log zerolog.Logger) *TextCleaner {
	return &TextCleaner{catalog: catalog, log: log}
}

// IsExtraneousLine reports whether line is boilerplate that never belongs
// to a transaction.
func (c *TextCleaner) IsExtraneousLine(line string) bool {
	for _, re := range c.catalog.Ignore {
		if re.MatchString(line) {
			c.log.Debug().Str("line", line).Msg("ignoring extraneous line")
			return true
		}
	}

	stripped := strings.TrimSpace(line)
	if phoneLike.MatchString(stripped) {
		return false
	}
	if shortAlpha.MatchString(stripped) {
		c.log.Debug().Str("line", line).Msg("ignoring short token")
		return true
	}

	upper := strings.ToUpper(stripped)
	if strings.Contains(upper, "ACCOUNT SUMMARY") || strings.Contains(upper, "BALANCE SUMMARY") {
		return true
	}
	lower := strings.ToLower(stripped)
	for _, kw := range summaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CleanDescription repairs split words, strips contamination fragments and
// collapses whitespace. CleanDescription(CleanDescription(s)) == CleanDescription(s).
func (c *TextCleaner) CleanDescription(text string) string {
	cleaned := c.clean(text)

	if len(cleaned) < 10 && len(text) > 50 {
		parts := strings.Fields(text)
		for i, part := range parts {
			if containsAnyUpper(part, fallbackKeywords) {
				cleaned = c.clean(strings.Join(parts[:i], " "))
				break
			}
		}
	}

	if cleaned == "" {
		return UnknownDescription
	}
	return cleaned
}

// clean runs repair and strip passes until the text stops changing.
func (c *TextCleaner) clean(text string) string {
	cur := collapse(text)
	for i := 0; i < maxCleanPasses; i++ {
		next := cur
		for _, r := range wordRepairs {
			next = r.re.ReplaceAllString(next, r.repl)
		}
		for _, re := range c.catalog.Contamination {
			next = re.ReplaceAllString(next, "")
		}
		next = collapse(next)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

// IsValidMerchantContinuation reports whether line looks like merchant
// metadata (phone number, location, short code) rather than summary text.
func (c *TextCleaner) IsValidMerchantContinuation(line string) bool {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return false
	}

	lower := strings.ToLower(stripped)
	for _, kw := range continuationStopwords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if dollarOnly.MatchString(stripped) {
		return false
	}

	switch {
	case phoneLike.MatchString(stripped):
		return true
	case lettersOnly.MatchString(stripped):
		return true
	case alnumToken.MatchString(stripped) && len(stripped) >= 3:
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func containsAnyUpper(s string, needles []string) bool {
	upper := strings.ToUpper(s)
	for _, n := range needles {
		if strings.Contains(upper, n) {
			return true
		}
	}
	return false
}

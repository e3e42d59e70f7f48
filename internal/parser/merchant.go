package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// UnknownMerchant is used when no merchant pattern matches.
const UnknownMerchant = "Unknown"

const maxMerchantTokens = 2

// MerchantExtractor derives a short merchant name and card suffix from a
// cleaned description.
type MerchantExtractor struct {
	catalog *Catalog
}

// NewMerchantExtractor returns an extractor backed by catalog.
func NewMerchantExtractor(catalog *Catalog) *MerchantExtractor {
	return &MerchantExtractor{catalog: catalog}
}

type merchantRule struct {
	re      *regexp.Regexp
	cardIdx int // capture group holding the card suffix, 0 if none
	nameIdx int
}

// Extract returns the merchant name and card suffix for description.
// The first matching pattern for the transaction kind wins.
func (e *MerchantExtractor) Extract(description string, kind models.Kind) (merchant, cardSuffix string) {
	merchant = UnknownMerchant

	switch kind {
	case models.KindDebit:
		rules := []merchantRule{
			{e.catalog.DebitCardPurchase, 1, 2},
			{e.catalog.RecurringDebitCard, 1, 2},
			{e.catalog.POSPurchase, 0, 1},
		}
		for _, r := range rules {
			if r.re == nil {
				continue
			}
			m := r.re.FindStringSubmatch(description)
			if m == nil || r.nameIdx >= len(m) {
				continue
			}
			if r.cardIdx > 0 {
				cardSuffix = m[r.cardIdx]
			}
			merchant = strings.TrimSpace(m[r.nameIdx])
			break
		}

	case models.KindCredit:
		if re := e.catalog.DirectDeposit; re != nil {
			if m := re.FindStringSubmatch(description); m != nil {
				merchant = payrollCompany(strings.TrimSpace(m[1]))
				break
			}
		}
		if re := e.catalog.DebitCardCredit; re != nil {
			if m := re.FindStringSubmatch(description); m != nil {
				merchant = strings.TrimSpace(m[1])
			}
		}
	}

	if merchant == "" {
		merchant = UnknownMerchant
	}
	if merchant != UnknownMerchant {
		merchant = truncateTokens(merchant, maxMerchantTokens)
	}
	return merchant, cardSuffix
}

// CardSuffix finds a masked card number such as XXXXXX4009 or #123.
func (e *MerchantExtractor) CardSuffix(text string) string {
	if e.catalog.CardNumber != nil {
		if m := e.catalog.CardNumber.FindStringSubmatch(strings.ReplaceAll(text, " ", "")); m != nil {
			return m[1]
		}
	}
	if m := hashCardNumber.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

var hashCardNumber = regexp.MustCompile(`#(\d{3,4})\b`)

// payrollCompany keeps the two tokens after "Payroll " so trailing account
// references are not taken as part of the payer name.
func payrollCompany(text string) string {
	rest, ok := strings.CutPrefix(text, "Payroll ")
	if !ok {
		return text
	}
	parts := strings.Fields(rest)
	switch {
	case len(parts) >= 2:
		return strings.Join(parts[:2], " ")
	case len(parts) == 1:
		return parts[0]
	}
	return text
}

func truncateTokens(s string, n int) string {
	parts := strings.Fields(s)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, " ")
}

package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

// maxDescriptionLen keeps descriptions spreadsheet friendly.
const maxDescriptionLen = 200

// CleanTransactions normalises descriptions and merchant names for export.
// The input slice is not modified.
func CleanTransactions(txns []models.Transaction) []models.Transaction {
	title := cases.Title(language.Und)
	out := make([]models.Transaction, len(txns))
	for i, t := range txns {
		t.Description = cleanDescription(t.Description)
		t.Merchant = cleanMerchant(title, t.Merchant)
		out[i] = t
	}
	return out
}

func cleanDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxDescriptionLen {
		s = string(r[:maxDescriptionLen-3]) + "..."
	}
	return s
}

func cleanMerchant(title cases.Caser, merchant string) string {
	if merchant == "" || merchant == parser.UnknownMerchant {
		return merchant
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(merchant, "*", ""))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return parser.UnknownMerchant
	}
	return title.String(cleaned)
}

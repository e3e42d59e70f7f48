package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
)

func TestCleanTransactions(t *testing.T) {
	long := strings.Repeat("abcde ", 50)
	in := []models.Transaction{
		{Description: "  POS   Purchase  Coffee ", Merchant: "SQ *COFFEE SHOP"},
		{Description: long, Merchant: "KROGER #123"},
		{Description: "Web Pmt", Merchant: parser.UnknownMerchant},
		{Description: "Odd", Merchant: "**"},
	}

	out := CleanTransactions(in)
	require.Len(t, out, 4)

	assert.Equal(t, "POS Purchase Coffee", out[0].Description)
	assert.Equal(t, "Sq Coffee Shop", out[0].Merchant)

	assert.Len(t, []rune(out[1].Description), 200)
	assert.True(t, strings.HasSuffix(out[1].Description, "..."))
	assert.Equal(t, "Kroger #123", out[1].Merchant)

	assert.Equal(t, parser.UnknownMerchant, out[2].Merchant)
	assert.Equal(t, parser.UnknownMerchant, out[3].Merchant)

	assert.Equal(t, "SQ *COFFEE SHOP", in[0].Merchant, "input must not be modified")
}

func TestCleanDescriptionKeepsShortText(t *testing.T) {
	s := strings.Repeat("x", 200)
	assert.Equal(t, s, cleanDescription(s))
	assert.Equal(t, "", cleanDescription("   "))
}

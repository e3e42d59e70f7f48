package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func TestMerchantExtract(t *testing.T) {
	e := NewMerchantExtractor(PNCCatalog())
	tests := []struct {
		name         string
		description  string
		kind         models.Kind
		wantMerchant string
		wantCard     string
	}{
		{
			name:         "debit card purchase",
			description:  "1234 Debit Card Purchase Kroger #123 Columbus OH",
			kind:         models.KindDebit,
			wantMerchant: "Kroger #123",
			wantCard:     "1234",
		},
		{
			name:         "recurring debit card",
			description:  "5678 Recurring Debit Card Netflix.Com 8665797172 CA",
			kind:         models.KindDebit,
			wantMerchant: "Netflix.Com 8665797172",
			wantCard:     "5678",
		},
		{
			name:         "pos purchase has no card",
			description:  "POS Purchase Giant Eagle Pittsburgh",
			kind:         models.KindDebit,
			wantMerchant: "Giant Eagle",
		},
		{
			name:         "payroll keeps two tokens after Payroll",
			description:  "Direct Deposit - Payroll INTRVL LLC 00209104E34DE14",
			kind:         models.KindCredit,
			wantMerchant: "INTRVL LLC",
		},
		{
			name:         "non payroll direct deposit",
			description:  "Direct Deposit - IRS Treas 310 Tax Ref",
			kind:         models.KindCredit,
			wantMerchant: "IRS Treas",
		},
		{
			name:         "debit card credit refund",
			description:  "Debit Card Credit Walmart.Com 8009666546 BENTONVILLE AR",
			kind:         models.KindCredit,
			wantMerchant: "Walmart.Com 8009666546",
		},
		{
			name:         "credit pattern ignored for debits",
			description:  "Direct Deposit - Payroll INTRVL LLC",
			kind:         models.KindDebit,
			wantMerchant: UnknownMerchant,
		},
		{
			name:         "no pattern",
			description:  "Web Pmt Single Transfer To Savings",
			kind:         models.KindDebit,
			wantMerchant: UnknownMerchant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merchant, card := e.Extract(tt.description, tt.kind)
			assert.Equal(t, tt.wantMerchant, merchant)
			assert.Equal(t, tt.wantCard, card)
		})
	}
}

func TestMerchantFirstMatchWins(t *testing.T) {
	e := NewMerchantExtractor(PNCCatalog())
	merchant, card := e.Extract("1111 Debit Card Purchase Target POS Purchase Other Store", models.KindDebit)
	assert.Equal(t, "Target POS", merchant)
	assert.Equal(t, "1111", card)
}

func TestCardSuffix(t *testing.T) {
	e := NewMerchantExtractor(BBVACatalog())
	assert.Equal(t, "4009", e.CardSuffix("DEBIT FOR CHECKCARD XXXXXX4009 08/07/21"))
	assert.Equal(t, "4009", e.CardSuffix("CARD XX XXXX 4009"))
	assert.Equal(t, "456", e.CardSuffix("CHECKCARD PURCHASE - KROGER #456"))
	assert.Equal(t, "", e.CardSuffix("PAYROLL DEPOSIT"))
}

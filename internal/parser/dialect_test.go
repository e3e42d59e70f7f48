package parser

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input string
		want  models.Dialect
	}{
		{"pnc", models.DialectPNC},
		{" PNC ", models.DialectPNC},
		{"pnc_virtual_wallet", models.DialectPNC},
		{"virtual-wallet", models.DialectPNC},
		{"bbva", models.DialectBBVA},
		{"BBVA_legacy", models.DialectBBVA},
		{"compass", models.DialectBBVA},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDialect("chase")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestRegistryDetect(t *testing.T) {
	r := DefaultRegistry(Options{Logger: zerolog.Nop()})
	assert.Equal(t, []models.Dialect{models.DialectPNC, models.DialectBBVA}, r.Names())

	d, err := r.Detect(pncStatementPages()[0])
	require.NoError(t, err)
	assert.Equal(t, models.DialectPNC, d.Name())

	d, err = r.Detect(bbvaStatementPages()[0])
	require.NoError(t, err)
	assert.Equal(t, models.DialectBBVA, d.Name())

	d, err = r.Detect("primaryaccount: 1234567890\ndate*serial#description credits")
	require.NoError(t, err)
	assert.Equal(t, models.DialectBBVA, d.Name())
}

func TestRegistryDetectNeedsEveryIndicatorGroup(t *testing.T) {
	r := DefaultRegistry(Options{Logger: zerolog.Nop()})

	_, err := r.Detect("Primary Account: 1234567890 without the table header")
	assert.ErrorIs(t, err, ErrUnknownDialect)

	_, err = r.Detect("Some other bank statement")
	assert.ErrorIs(t, err, ErrUnknownDialect)

	_, err = r.Detect("   ")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestRegistryDetectConcurrent(t *testing.T) {
	r := DefaultRegistry(Options{Logger: zerolog.Nop()})
	pages := []string{pncStatementPages()[0], bbvaStatementPages()[0]}
	want := []models.Dialect{models.DialectPNC, models.DialectBBVA}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.Detect(pages[i%2])
			if assert.NoError(t, err) {
				assert.Equal(t, want[i%2], d.Name())
			}
		}(i)
	}
	wg.Wait()
}

func TestRegistryGet(t *testing.T) {
	r := DefaultRegistry(Options{Logger: zerolog.Nop()})

	d, err := r.Get(models.DialectBBVA)
	require.NoError(t, err)
	assert.Equal(t, BBVACatalog(), d.Catalog())

	_, err = r.Get(models.Dialect("chase"))
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestParseWrapsHeaderError(t *testing.T) {
	d := NewPNC(Options{Categorizer: defaultCategorizer(), Logger: zerolog.Nop()})
	_, err := Parse(d, "Virtual Wallet Spend Statement\nno period here", "")
	assert.ErrorIs(t, err, ErrNoPeriod)
	assert.Contains(t, err.Error(), "pnc header")
}

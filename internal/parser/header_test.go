package parser

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func period(start, end time.Time) *models.StatementSummary {
	return &models.StatementSummary{PeriodStart: start, PeriodEnd: end}
}

func TestResolveYearMonth(t *testing.T) {
	crossYear := period(date(2022, 12, 2), date(2023, 1, 1))
	sameYear := period(date(2021, 8, 2), date(2021, 9, 1))

	tests := []struct {
		name      string
		token     string
		summary   *models.StatementSummary
		wantYear  int
		wantMonth int
	}{
		{"start month", "12/15", crossYear, 2022, 12},
		{"end month", "01/01", crossYear, 2023, 1},
		{"before start month across boundary", "11/30", crossYear, 2023, 11},
		{"unpadded", "1/1", crossYear, 2023, 1},
		{"same year start month", "08/03", sameYear, 2021, 8},
		{"same year end month", "9/1", sameYear, 2021, 9},
		{"same year other month", "07/15", sameYear, 2021, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, month, err := ResolveYearMonth(tt.token, tt.summary)
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantMonth, month)
		})
	}
}

func TestResolveYearMonthErrors(t *testing.T) {
	summary := period(date(2022, 12, 2), date(2023, 1, 1))
	for _, token := range []string{"13/01", "00/10", "abc", "12-15"} {
		t.Run(token, func(t *testing.T) {
			_, _, err := ResolveYearMonth(token, summary)
			assert.Error(t, err)
		})
	}

	_, _, err := ResolveYearMonth("12/15", nil)
	assert.ErrorIs(t, err, ErrNoPeriod)
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate("9/7")
	require.NoError(t, err)
	assert.Equal(t, "09/07", got)

	got, err = NormalizeDate("12/30")
	require.NoError(t, err)
	assert.Equal(t, "12/30", got)

	_, err = NormalizeDate("9-7")
	assert.Error(t, err)
}

func TestPNCParseHeader(t *testing.T) {
	d := NewPNC(Options{Categorizer: defaultCategorizer(), Logger: zerolog.Nop()})

	summary, err := d.ParseHeader("Primary account number: 12-3456-7890\nFor the period 12/02/2022 to 01/01/2023\nPage 1 of 4")
	require.NoError(t, err)
	assert.Equal(t, models.DialectPNC, summary.Dialect)
	assert.Equal(t, "12-3456-7890", summary.AccountNumber)
	assert.Equal(t, date(2022, 12, 2), summary.PeriodStart)
	assert.Equal(t, date(2023, 1, 1), summary.PeriodEnd)
	assert.Equal(t, 4, summary.TotalPages)
	assert.Equal(t, "12/02/2022 - 01/01/2023", summary.Period())

	summary, err = d.ParseHeader("Fortheperiod12/02/2022to01/01/2023")
	require.NoError(t, err)
	assert.Equal(t, UnknownAccount, summary.AccountNumber)
	assert.Equal(t, 1, summary.TotalPages)
}

func TestPNCParseHeaderRejectsBadPeriod(t *testing.T) {
	d := NewPNC(Options{Categorizer: defaultCategorizer(), Logger: zerolog.Nop()})

	_, err := d.ParseHeader("Primary account number: 12-3456-7890")
	assert.ErrorIs(t, err, ErrNoPeriod)

	_, err = d.ParseHeader("For the period 01/01/2023 to 12/02/2022")
	assert.ErrorIs(t, err, ErrNoPeriod)

	_, err = d.ParseHeader("For the period 02/30/2023 to 03/01/2023")
	assert.ErrorIs(t, err, ErrNoPeriod)
}

func TestBBVAParseHeader(t *testing.T) {
	d := NewBBVA(Options{Categorizer: defaultCategorizer(), Logger: zerolog.Nop()})

	tests := []struct {
		name string
		text string
	}{
		{"spaced", "Primary Account: 1234567890\nBeginning August 2, 2021 - Ending September 1, 2021\nPage 1 of 3"},
		{"squashed", "PrimaryAccount:1234567890\nBeginningAugust2,2021-EndingSeptember1,2021\nPage1of3"},
		{"abbreviated", "Primary Account: 1234567890\nBeginning Aug 2, 2021 - Ending Sep 1, 2021\nPage 1 of 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := d.ParseHeader(tt.text)
			require.NoError(t, err)
			assert.Equal(t, models.DialectBBVA, summary.Dialect)
			assert.Equal(t, "1234567890", summary.AccountNumber)
			assert.Equal(t, date(2021, 8, 2), summary.PeriodStart)
			assert.Equal(t, date(2021, 9, 1), summary.PeriodEnd)
			assert.Equal(t, 3, summary.TotalPages)
		})
	}

	_, err := d.ParseHeader("Primary Account: 1234567890")
	assert.ErrorIs(t, err, ErrNoPeriod)
}

package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

// ErrNoPeriod means the statement period could not be found. Without it no
// transaction can be dated, so the whole document is rejected.
var ErrNoPeriod = errors.New("statement period not found")

// UnknownAccount is used when the header has no account number.
const UnknownAccount = "Unknown"

// parseHeader applies catalog's account, period and page patterns to text.
// parsePeriod converts the period submatches into dates.
func parseHeader(catalog *Catalog, text string, parsePeriod func(m []string) (time.Time, time.Time, error)) (*models.StatementSummary, error) {
	summary := &models.StatementSummary{
		Dialect:       catalog.Dialect,
		AccountNumber: UnknownAccount,
		TotalPages:    1,
	}

	if m := catalog.Account.FindStringSubmatch(text); m != nil {
		summary.AccountNumber = strings.TrimSpace(m[1])
	}

	m := catalog.Period.FindStringSubmatch(text)
	if m == nil {
		return nil, ErrNoPeriod
	}
	start, end, err := parsePeriod(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPeriod, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: period ends %s before it starts %s", ErrNoPeriod,
			end.Format("01/02/2006"), start.Format("01/02/2006"))
	}
	summary.PeriodStart, summary.PeriodEnd = start, end

	if pm := catalog.Page.FindStringSubmatch(text); pm != nil {
		if n, err := strconv.Atoi(pm[2]); err == nil && n > 0 {
			summary.TotalPages = n
		}
	}
	return summary, nil
}

// parseSlashDate parses M/D/YYYY.
func parseSlashDate(s string) (time.Time, error) {
	return time.Parse("1/2/2006", strings.TrimSpace(s))
}

// parseMonthDayYear parses a full or abbreviated month name with day and year.
func parseMonthDayYear(month, day, year string) (time.Time, error) {
	value := fmt.Sprintf("%s %s %s", strings.TrimSpace(month), strings.TrimSpace(day), strings.TrimSpace(year))
	if t, err := time.Parse("January 2 2006", value); err == nil {
		return t, nil
	}
	t, err := time.Parse("Jan 2 2006", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q", value)
	}
	return t, nil
}

// ResolveYearMonth assigns a calendar year to a month/day token using the
// statement period:
//   - the start month takes the start year;
//   - otherwise the end month takes the end year;
//   - across a year boundary, months on or after the start month take the
//     start year and earlier months take the end year;
//   - otherwise the start year.
func ResolveYearMonth(dateToken string, summary *models.StatementSummary) (year, month int, err error) {
	if summary == nil {
		return 0, 0, ErrNoPeriod
	}
	ms, _, ok := strings.Cut(strings.TrimSpace(dateToken), "/")
	if !ok {
		return 0, 0, fmt.Errorf("malformed date %q", dateToken)
	}
	month, err = strconv.Atoi(ms)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("malformed date %q: month out of range", dateToken)
	}

	start, end := summary.PeriodStart, summary.PeriodEnd
	switch {
	case month == int(start.Month()):
		year = start.Year()
	case month == int(end.Month()):
		year = end.Year()
	case start.Year() != end.Year():
		if month >= int(start.Month()) {
			year = start.Year()
		} else {
			year = end.Year()
		}
	default:
		year = start.Year()
	}
	return year, month, nil
}

// NormalizeDate zero-pads a month/day token: "9/7" -> "09/07".
func NormalizeDate(token string) (string, error) {
	ms, ds, ok := strings.Cut(strings.TrimSpace(token), "/")
	if !ok {
		return "", fmt.Errorf("malformed date %q", token)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return "", fmt.Errorf("malformed date %q: %w", token, err)
	}
	d, err := strconv.Atoi(ds)
	if err != nil {
		return "", fmt.Errorf("malformed date %q: %w", token, err)
	}
	return fmt.Sprintf("%02d/%02d", m, d), nil
}

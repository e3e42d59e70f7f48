package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMissingAmount is returned when a transaction start line has no amount.
var ErrMissingAmount = errors.New("no amount on transaction line")

// NormalizeAmount rewrites an amount token into plain two-decimal form:
// ".75" -> "0.75", "14." -> "14.00", "6,250.00" -> "6250.00", "12" -> "12.00".
func NormalizeAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return "", fmt.Errorf("empty amount")
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (hasDot && frac != "" && !isDigits(frac)) {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 2 {
		return "", fmt.Errorf("invalid amount %q: more than two decimals", s)
	}
	frac += strings.Repeat("0", 2-len(frac))

	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	return whole + "." + frac, nil
}

// ParseAmount normalises s and returns it as a non-negative decimal.
func ParseAmount(s string) (decimal.Decimal, error) {
	n, err := NormalizeAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(n)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Package money provides amount parsing and formatting for French bank
// statements. Statements write amounts with a comma decimal separator and an
// optional space or dot thousands separator ("1 234,56", "1.234,56"); the
// extraction pipeline normalizes everything to shopspring decimals and uses
// go-money for display formatting.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// EUR is the only currency the supported statement layouts use.
const EUR = "EUR"

// ParseFrench parses a statement amount written in French convention.
// Accepts "12,50", "-12,50", "1 234,56", "1.234,56" and plain "12.50".
func ParseFrench(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	// Strip currency symbols and spacing (including the non-breaking spaces
	// OCR output uses as thousands separators).
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") {
		// Comma is the decimal separator; any dot left of it is a
		// thousands separator.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Cents converts a decimal amount to EUR minor units.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(decimal.New(1, 2)).Round(0).IntPart()
}

// FormatEUR renders a decimal amount as a localized EUR string, e.g. "-€16.62".
func FormatEUR(d decimal.Decimal) string {
	return gomoney.New(Cents(d), EUR).Display()
}

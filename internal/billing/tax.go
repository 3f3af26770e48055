// Package billing holds the invoice amount rules: tax breakdown from a gross
// amount, the net+tax=gross consistency check, invoice number formatting and the
// French spelling of amounts.
package billing

import (
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/shopspring/decimal"
)

// DefaultVATRate is the Moroccan standard VAT rate applied to assistance services.
var DefaultVATRate = decimal.RequireFromString("0.20")

// Tolerance is the maximum accepted gap between gross and net+tax.
var Tolerance = decimal.RequireFromString("0.01")

// Breakdown is a net/tax/gross triple rounded to cents.
type Breakdown struct {
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Gross decimal.Decimal `json:"gross"`
}

// TaxBreakdown splits a tax-inclusive amount: net = gross/(1+rate), tax = gross-net.
// Intermediate values keep full precision; rounding (half-up) happens once at the end.
func TaxBreakdown(gross, rate decimal.Decimal) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, apperr.InvalidAmount("gross amount must not be negative")
	}
	if rate.IsNegative() {
		return Breakdown{}, apperr.InvalidAmount("tax rate must not be negative")
	}
	net := gross.Div(decimal.NewFromInt(1).Add(rate))
	tax := gross.Sub(net)
	return Breakdown{
		Net:   net.Round(2),
		Tax:   tax.Round(2),
		Gross: gross.Round(2),
	}, nil
}

// ValidateConsistency fails with AmountMismatch when |gross-(net+tax)| > 0.01.
func ValidateConsistency(net, tax, gross decimal.Decimal) error {
	if gross.Sub(net.Add(tax)).Abs().GreaterThan(Tolerance) {
		return apperr.AmountMismatch("gross amount must equal net amount plus tax")
	}
	return nil
}

// ParseAmount parses user or spreadsheet input. Spaces (including non-breaking
// ones) are ignored and a comma is accepted as the decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if clean == "" {
		return decimal.Zero, apperr.InvalidAmount("amount is empty")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, apperr.InvalidAmount("amount is not a number: " + s)
	}
	return d, nil
}

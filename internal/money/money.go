// Package money computes invoice totals at fixed 3-decimal precision.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimals every stored amount carries.
const Places = 3

// MaxIntegerDigits is the number of integer digits a stored decimal(12,3)
// amount can hold.
const MaxIntegerDigits = 9

// maxInputDigits bounds the coefficient of an accepted unit price, trailing
// zeros included.
const maxInputDigits = 24

var (
	// ErrInvalidLineItem is returned for a line with a non-positive quantity or a
	// negative, over-precise or oversized unit price.
	ErrInvalidLineItem = errors.New("money: invalid line item")
	// ErrAmountOverflow is returned when a computed total does not fit
	// MaxIntegerDigits.
	ErrAmountOverflow = errors.New("money: amount overflow")

	// MaxAmount is the largest storable amount, 999999999.999.
	MaxAmount = decimal.New(1, MaxIntegerDigits).Sub(decimal.New(1, -Places))
)

var (
	// DefaultTaxRate is the VAT rate applied to the subtotal (7%).
	DefaultTaxRate = decimal.RequireFromString("0.07")
	// DefaultStampFee is the fixed stamp duty added to each invoice.
	DefaultStampFee = decimal.RequireFromString("1.000")
)

// Rates holds the jurisdiction-dependent constants used by ComputeTotals.
type Rates struct {
	TaxRate  decimal.Decimal
	StampFee decimal.Decimal
}

// DefaultRates returns the 7% VAT and 1.000 stamp fee rates.
func DefaultRates() Rates {
	return Rates{TaxRate: DefaultTaxRate, StampFee: DefaultStampFee}
}

// Line is the money-relevant part of an invoice line.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Totals are the computed header amounts of an invoice.
type Totals struct {
	SubtotalHT  decimal.Decimal
	TaxAmount   decimal.Decimal
	StampFee    decimal.Decimal
	FinalAmount decimal.Decimal
}

// Round rounds d to Places decimals, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Validate checks a single line. The unit price is bounded by its digits and
// exponent before anything rescales it.
func (l Line) Validate() error {
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidLineItem, l.Quantity)
	}
	p := l.UnitPrice
	if p.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidLineItem)
	}
	digits, exp := p.NumDigits(), p.Exponent()
	if digits > maxInputDigits {
		return fmt.Errorf("%w: unit price has more than %d digits", ErrInvalidLineItem, maxInputDigits)
	}
	if int64(digits)+int64(exp) > MaxIntegerDigits {
		return fmt.Errorf("%w: unit price exceeds %s", ErrInvalidLineItem, Format(MaxAmount))
	}
	// Only trailing zeros may sit past the third decimal.
	if -int64(exp)-Places > maxInputDigits || !p.Equal(p.Truncate(Places)) {
		return fmt.Errorf("%w: unit price has more than %d decimals", ErrInvalidLineItem, Places)
	}
	if LineTotal(p, l.Quantity).GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: line total exceeds %s", ErrInvalidLineItem, Format(MaxAmount))
	}
	return nil
}

// LineTotal returns unit price times quantity rounded to Places.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// ComputeTotals sums the rounded line totals and derives tax, stamp and final
// amount. Each component is rounded on its own before the final sum.
func ComputeTotals(lines []Line, rates Rates) (Totals, error) {
	subtotal := decimal.Zero
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return Totals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		subtotal = subtotal.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	subtotal = Round(subtotal)
	tax := Round(subtotal.Mul(rates.TaxRate))
	stamp := Round(rates.StampFee)
	final := Round(subtotal.Add(tax).Add(stamp))
	if final.GreaterThan(MaxAmount) {
		return Totals{}, fmt.Errorf("%w: final amount %s exceeds %s", ErrAmountOverflow, Format(final), Format(MaxAmount))
	}
	return Totals{
		SubtotalHT:  subtotal,
		TaxAmount:   tax,
		StampFee:    stamp,
		FinalAmount: final,
	}, nil
}

// Format renders d with exactly Places decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

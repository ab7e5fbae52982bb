// Package numbering allocates MMYY_XXX invoice numbers per calendar month.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MaxSequence is the highest counter the three-digit suffix can hold.
const MaxSequence = 999

var (
	// ErrSequenceOverflow is returned when a month already holds MaxSequence invoices.
	ErrSequenceOverflow = errors.New("numbering: sequence overflow")
	// ErrMalformedNumber is returned by Parse for strings not shaped like MMYY_XXX.
	ErrMalformedNumber = errors.New("numbering: malformed invoice number")
)

var numberPattern = regexp.MustCompile(`^(\d{2})(\d{2})_(\d{3})$`)

// SequenceFinder reports the numerically highest sequence stored under the
// MMYY_ prefix of (year, month). Years a century apart share a prefix and so
// share one bucket. ok is false when the bucket is empty.
type SequenceFinder interface {
	MaxSequence(ctx context.Context, year int, month time.Month) (seq int, ok bool, err error)
}

// Number is a decoded invoice number.
type Number struct {
	Month    time.Month
	Year     int // two-digit year
	Sequence int
}

// String formats the number as MMYY_XXX.
func (n Number) String() string {
	return fmt.Sprintf("%02d%02d_%03d", int(n.Month), n.Year%100, n.Sequence)
}

// Prefix returns the MMYY_ part shared by every number of the month.
func Prefix(year int, month time.Month) string {
	return fmt.Sprintf("%02d%02d_", int(month), year%100)
}

// Parse decodes an MMYY_XXX string.
func Parse(s string) (Number, error) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	seq, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || seq < 1 {
		return Number{}, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return Number{Month: time.Month(month), Year: year, Sequence: seq}, nil
}

// Next returns the number following the highest one already stored in the
// month of date. Nothing is reserved; the caller must rely on the store's
// uniqueness constraint and retry on collision.
func Next(ctx context.Context, date time.Time, finder SequenceFinder) (Number, error) {
	last, ok, err := finder.MaxSequence(ctx, date.Year(), date.Month())
	if err != nil {
		return Number{}, fmt.Errorf("numbering: find max sequence: %w", err)
	}
	if !ok {
		last = 0
	}
	next := last + 1
	if next > MaxSequence {
		return Number{}, fmt.Errorf("%w: %02d/%d already holds %d invoices", ErrSequenceOverflow, int(date.Month()), date.Year(), last)
	}
	return Number{Month: date.Month(), Year: date.Year() % 100, Sequence: next}, nil
}

package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/BohBOhTN/ELKOLLA-API/internal/models"
)

// Store is the persistence boundary used by the assembler and the service.
type Store interface {
	// MaxSequence returns the highest sequence stored for the month; ok is
	// false when the month has no invoice yet.
	MaxSequence(ctx context.Context, year int, month time.Month) (seq int, ok bool, err error)
	Exists(ctx context.Context, number string) (bool, error)
	// Save persists the header and all items in one transaction and returns
	// the new invoice ID. A taken number yields ErrDuplicateNumber.
	Save(ctx context.Context, inv *models.Invoice) (uint, error)
	// Find returns ErrInvoiceNotFound when nothing matches.
	Find(ctx context.Context, lookup Lookup) (*models.Invoice, error)
	List(ctx context.Context, filter DateFilter) ([]models.Invoice, error)
	// Delete removes the invoice and its items. It reports false when no
	// invoice had that ID.
	Delete(ctx context.Context, id uint) (bool, error)
}

// Lookup selects an invoice by ID or by number. ID wins when both are set.
type Lookup struct {
	ID     uint
	Number string
}

func (l Lookup) String() string {
	if l.ID != 0 {
		return fmt.Sprintf("id=%d", l.ID)
	}
	return "number=" + l.Number
}

// DateFilter restricts a listing to a year, month and/or day. Zero means any.
type DateFilter struct {
	Year  int
	Month time.Month
	Day   int
}

// Validate checks the ranges of the set fields.
func (f DateFilter) Validate() error {
	if f.Year < 0 || f.Year > 9999 {
		return fmt.Errorf("year %d out of range", f.Year)
	}
	if f.Month < 0 || f.Month > 12 {
		return fmt.Errorf("month %d out of range", f.Month)
	}
	if f.Day < 0 || f.Day > 31 {
		return fmt.Errorf("day %d out of range", f.Day)
	}
	if f.Year != 0 && f.Month != 0 && f.Day != 0 {
		if d := time.Date(f.Year, f.Month, f.Day, 0, 0, 0, 0, time.UTC); d.Day() != f.Day {
			return fmt.Errorf("%02d/%02d/%d is not a calendar date", f.Day, int(f.Month), f.Year)
		}
	}
	return nil
}

// Range returns the [start, end) dates covered by the filter when it can be
// expressed as one contiguous range, i.e. when the set fields form a prefix
// of year, month, day.
func (f DateFilter) Range() (start, end time.Time, ok bool) {
	switch {
	case f.Year == 0:
		return time.Time{}, time.Time{}, false
	case f.Month == 0:
		if f.Day != 0 {
			return time.Time{}, time.Time{}, false
		}
		start = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), true
	case f.Day == 0:
		start = time.Date(f.Year, f.Month, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), true
	default:
		start = time.Date(f.Year, f.Month, f.Day, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1), true
	}
}

// Match reports whether date satisfies every set field.
func (f DateFilter) Match(date time.Time) bool {
	if f.Year != 0 && date.Year() != f.Year {
		return false
	}
	if f.Month != 0 && date.Month() != f.Month {
		return false
	}
	if f.Day != 0 && date.Day() != f.Day {
		return false
	}
	return true
}

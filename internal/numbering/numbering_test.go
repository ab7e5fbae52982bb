package numbering

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeFinder keeps every allocated sequence per number prefix so the max is computed
// numerically, the way the store does.
type fakeFinder struct {
	seqs map[string][]int
	err  error
}

func (f *fakeFinder) MaxSequence(_ context.Context, year int, month time.Month) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	list := f.seqs[Prefix(year, month)]
	if len(list) == 0 {
		return 0, false, nil
	}
	hi := list[0]
	for _, s := range list[1:] {
		if s > hi {
			hi = s
		}
	}
	return hi, true, nil
}

func (f *fakeFinder) add(date time.Time, seq int) {
	if f.seqs == nil {
		f.seqs = map[string][]int{}
	}
	k := Prefix(date.Year(), date.Month())
	f.seqs[k] = append(f.seqs[k], seq)
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestNextResetsPerMonth(t *testing.T) {
	f := &fakeFinder{}
	ctx := context.Background()
	want := []struct {
		date time.Time
		num  string
	}{
		{date(2024, time.January, 15), "0124_001"},
		{date(2024, time.January, 20), "0124_002"},
		{date(2024, time.February, 1), "0224_001"},
		{date(2024, time.January, 31), "0124_003"},
		{date(2025, time.January, 2), "0125_001"},
	}
	for _, w := range want {
		n, err := Next(ctx, w.date, f)
		if err != nil {
			t.Fatalf("Next(%s): %v", w.date.Format("02/01/2006"), err)
		}
		if n.String() != w.num {
			t.Fatalf("Next(%s) = %s, want %s", w.date.Format("02/01/2006"), n, w.num)
		}
		f.add(w.date, n.Sequence)
	}
}

func TestNextUsesNumericMaximum(t *testing.T) {
	f := &fakeFinder{}
	d := date(2024, time.March, 3)
	// "099" sorts after "100" as a string; the next number must still be 101.
	f.add(d, 100)
	f.add(d, 99)
	n, err := Next(context.Background(), d, f)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if n.String() != "0324_101" {
		t.Fatalf("got %s, want 0324_101", n)
	}
}

func TestNextOverflow(t *testing.T) {
	f := &fakeFinder{}
	d := date(2024, time.December, 1)
	f.add(d, MaxSequence)
	if _, err := Next(context.Background(), d, f); !errors.Is(err, ErrSequenceOverflow) {
		t.Fatalf("expected ErrSequenceOverflow, got %v", err)
	}
}

func TestNextFinderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Next(context.Background(), date(2024, time.May, 1), &fakeFinder{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped finder error, got %v", err)
	}
}

func TestParse(t *testing.T) {
	n, err := Parse("0224_017")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n.Month != time.February || n.Year != 24 || n.Sequence != 17 {
		t.Fatalf("unexpected parse result %+v", n)
	}
	for _, bad := range []string{"", "224_017", "1324_001", "0124_000", "0124-001", "0124_1000"} {
		if _, err := Parse(bad); !errors.Is(err, ErrMalformedNumber) {
			t.Errorf("Parse(%q) err = %v, want ErrMalformedNumber", bad, err)
		}
	}
}

func TestPrefix(t *testing.T) {
	if got := Prefix(2009, time.July); got != "0709_" {
		t.Fatalf("Prefix = %s", got)
	}
	if Prefix(1924, time.January) != Prefix(2024, time.January) {
		t.Fatalf("years a century apart must share a prefix")
	}
	n := Number{Month: time.July, Year: 9, Sequence: 5}
	if got := n.String(); got[:5] != Prefix(2009, time.July) {
		t.Fatalf("number %s does not start with its prefix", got)
	}
}

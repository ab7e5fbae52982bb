package words

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	frUnits = [...]string{
		"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
		"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
	}
	frTens = [...]string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante"}
)

// French writes amounts in French with a main unit and a thousandth sub-unit,
// e.g. "douze dinars et cinq cents millimes".
type French struct {
	Unit, Units       string
	SubUnit, SubUnits string
}

// Dinars is the Tunisian dinar converter (1 dinar = 1000 millimes).
var Dinars = French{Unit: "dinar", Units: "dinars", SubUnit: "millime", SubUnits: "millimes"}

// Words implements Converter. Amounts are rounded to three decimals first.
func (f French) Words(_ context.Context, amount decimal.Decimal) (string, error) {
	amount = amount.Round(3)
	var b strings.Builder
	if amount.IsNegative() {
		b.WriteString("moins ")
		amount = amount.Neg()
	}
	whole := amount.Truncate(0)
	n := whole.IntPart()
	sub := amount.Sub(whole).Shift(3).IntPart()

	b.WriteString(frNumber(n))
	b.WriteByte(' ')
	if n >= 1_000_000 && n%1_000_000 == 0 {
		b.WriteString("de ")
	}
	b.WriteString(plural(n, f.Unit, f.Units))
	if sub > 0 {
		b.WriteString(" et ")
		b.WriteString(frNumber(sub))
		b.WriteByte(' ')
		b.WriteString(plural(sub, f.SubUnit, f.SubUnits))
	}
	return b.String(), nil
}

func plural(n int64, one, many string) string {
	if n < 2 {
		return one
	}
	return many
}

// frNumber spells a non-negative integer in traditional French orthography.
func frNumber(n int64) string {
	if n == 0 {
		return frUnits[0]
	}
	scales := []struct {
		size      int64
		one, many string
	}{
		{1_000_000_000, "un milliard", "milliards"},
		{1_000_000, "un million", "millions"},
	}
	var parts []string
	for _, s := range scales {
		if q := n / s.size; q > 0 {
			if q == 1 {
				parts = append(parts, s.one)
			} else {
				parts = append(parts, frNumber(q)+" "+s.many)
			}
			n %= s.size
		}
	}
	if q := n / 1000; q > 0 {
		if q == 1 {
			parts = append(parts, "mille")
		} else {
			// cent and vingt stay invariable before mille
			parts = append(parts, frBelow1000(int(q), false)+" mille")
		}
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, frBelow1000(int(n), true))
	}
	return strings.Join(parts, " ")
}

func frBelow1000(n int, last bool) string {
	h, r := n/100, n%100
	var parts []string
	switch {
	case h == 1:
		parts = append(parts, "cent")
	case h > 1:
		word := frUnits[h] + " cent"
		if r == 0 && last {
			word += "s"
		}
		parts = append(parts, word)
	}
	if r > 0 {
		parts = append(parts, frBelow100(r, last))
	}
	return strings.Join(parts, " ")
}

func frBelow100(n int, last bool) string {
	switch {
	case n <= 16:
		return frUnits[n]
	case n < 20:
		return "dix-" + frUnits[n-10]
	case n < 70:
		t, u := n/10, n%10
		switch u {
		case 0:
			return frTens[t]
		case 1:
			return frTens[t] + " et un"
		default:
			return frTens[t] + "-" + frUnits[u]
		}
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + frBelow100(n-60, last)
	case n == 80:
		if last {
			return "quatre-vingts"
		}
		return "quatre-vingt"
	default:
		return "quatre-vingt-" + frBelow100(n-80, last)
	}
}

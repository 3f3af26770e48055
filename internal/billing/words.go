package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	units = [...]string{"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf"}
	teens = [...]string{"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf"}
	tens  = [...]string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante"}
)

// AmountToWords spells amount in French as "<n> dirhams <c> centimes",
// e.g. 120.00 -> "cent vingt dirhams zéro centimes". The amount is rounded to cents.
func AmountToWords(amount decimal.Decimal) string {
	prefix := ""
	if amount.IsNegative() {
		prefix = "moins "
		amount = amount.Neg()
	}
	amount = amount.Round(2)
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Mul(decimal.NewFromInt(100)).IntPart()

	return prefix + currency(NumberToWords(whole.IntPart()), whole.IntPart(), "dirham") +
		" " + currency(NumberToWords(cents), cents, "centime")
}

// AmountToWordsString is AmountToWords for raw input; unparseable input is
// returned unchanged.
func AmountToWordsString(s string) string {
	d, err := ParseAmount(s)
	if err != nil {
		return s
	}
	return AmountToWords(d)
}

func currency(words string, n int64, unit string) string {
	if n == 1 {
		return words + " " + unit
	}
	return words + " " + unit + "s"
}

// NumberToWords spells a non-negative integer in French.
func NumberToWords(n int64) string {
	if n == 0 {
		return "zéro"
	}
	if n < 0 {
		return "moins " + NumberToWords(-n)
	}

	var parts []string
	if b := n / 1_000_000_000; b > 0 {
		if b == 1 {
			parts = append(parts, "un milliard")
		} else {
			parts = append(parts, largeGroup(b)+" milliards")
		}
	}
	if m := (n / 1_000_000) % 1000; m > 0 {
		if m == 1 {
			parts = append(parts, "un million")
		} else {
			parts = append(parts, belowThousand(m, true)+" millions")
		}
	}
	if t := (n / 1000) % 1000; t > 0 {
		if t == 1 {
			parts = append(parts, "mille")
		} else {
			// mille is invariable and blocks the plural of cent/quatre-vingt before it
			parts = append(parts, belowThousand(t, false)+" mille")
		}
	}
	if r := n % 1000; r > 0 {
		parts = append(parts, belowThousand(r, true))
	}
	return strings.Join(parts, " ")
}

// largeGroup spells the count of milliards, which may itself exceed 999.
func largeGroup(n int64) string {
	if n < 1000 {
		return belowThousand(n, true)
	}
	return NumberToWords(n)
}

// belowThousand spells 1..999. final reports whether the group ends the number
// (or precedes a noun such as millions), which is when "cents" and
// "quatre-vingts" take their plural s.
func belowThousand(n int64, final bool) string {
	h, r := n/100, n%100
	var parts []string
	if h > 0 {
		word := "cent"
		if h > 1 {
			word = units[h] + " cent"
			if r == 0 && final {
				word += "s"
			}
		}
		parts = append(parts, word)
	}
	if r > 0 {
		parts = append(parts, belowHundred(r, final))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64, final bool) string {
	switch {
	case n < 10:
		return units[n]
	case n < 20:
		return teens[n-10]
	}
	t, u := n/10, n%10
	switch t {
	case 7:
		if u == 1 {
			return "soixante et onze"
		}
		return "soixante-" + teens[u]
	case 8:
		if u == 0 {
			if final {
				return "quatre-vingts"
			}
			return "quatre-vingt"
		}
		return "quatre-vingt-" + units[u]
	case 9:
		return "quatre-vingt-" + teens[u]
	}
	switch u {
	case 0:
		return tens[t]
	case 1:
		return tens[t] + " et un"
	default:
		return tens[t] + "-" + units[u]
	}
}

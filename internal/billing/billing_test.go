package billing

import (
	"testing"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTaxBreakdown(t *testing.T) {
	b, err := TaxBreakdown(d("120"), DefaultVATRate)
	require.NoError(t, err)
	assert.Equal(t, "100", b.Net.String())
	assert.Equal(t, "20", b.Tax.String())
	assert.Equal(t, "120", b.Gross.String())

	b, err = TaxBreakdown(d("100"), DefaultVATRate)
	require.NoError(t, err)
	assert.Equal(t, "83.33", b.Net.StringFixed(2))
	assert.Equal(t, "16.67", b.Tax.StringFixed(2))
}

func TestTaxBreakdownRoundsOnlyAtTheEnd(t *testing.T) {
	// 0.03/1.2 = 0.025 exactly: half-up on the final value gives 0.03
	b, err := TaxBreakdown(d("0.03"), DefaultVATRate)
	require.NoError(t, err)
	assert.Equal(t, "0.03", b.Net.StringFixed(2))
	assert.Equal(t, "0.01", b.Tax.StringFixed(2))
}

func TestTaxBreakdownRejectsNegative(t *testing.T) {
	_, err := TaxBreakdown(d("-1"), DefaultVATRate)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidAmount))
}

func TestTaxBreakdownReconstructsGross(t *testing.T) {
	for cents := int64(0); cents <= 200000; cents += 7 {
		gross := decimal.New(cents, -2)
		b, err := TaxBreakdown(gross, DefaultVATRate)
		require.NoError(t, err)
		if err := ValidateConsistency(b.Net, b.Tax, gross); err != nil {
			t.Fatalf("gross %s: net %s + tax %s drifts", gross, b.Net, b.Tax)
		}
	}
}

func TestValidateConsistency(t *testing.T) {
	assert.NoError(t, ValidateConsistency(d("100.00"), d("20.00"), d("120.00")))
	assert.NoError(t, ValidateConsistency(d("100.00"), d("20.00"), d("120.01")))

	err := ValidateConsistency(d("100.00"), d("20.00"), d("121.00"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAmountMismatch))
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" 1 250,50 ")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", v.String())

	_, err = ParseAmount("abc")
	assert.True(t, apperr.Is(err, apperr.KindInvalidAmount))
	_, err = ParseAmount("")
	assert.True(t, apperr.Is(err, apperr.KindInvalidAmount))
}

func TestAmountToWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"120.00", "cent vingt dirhams zéro centimes"},
		{"80", "quatre-vingts dirhams zéro centimes"},
		{"0", "zéro dirhams zéro centimes"},
		{"1", "un dirham zéro centimes"},
		{"21", "vingt et un dirhams zéro centimes"},
		{"71", "soixante et onze dirhams zéro centimes"},
		{"75", "soixante-quinze dirhams zéro centimes"},
		{"81", "quatre-vingt-un dirhams zéro centimes"},
		{"90", "quatre-vingt-dix dirhams zéro centimes"},
		{"99", "quatre-vingt-dix-neuf dirhams zéro centimes"},
		{"200", "deux cents dirhams zéro centimes"},
		{"201", "deux cent un dirhams zéro centimes"},
		{"280", "deux cent quatre-vingts dirhams zéro centimes"},
		{"1000", "mille dirhams zéro centimes"},
		{"80000", "quatre-vingt mille dirhams zéro centimes"},
		{"200000", "deux cent mille dirhams zéro centimes"},
		{"1000000", "un million dirhams zéro centimes"},
		{"2500000", "deux millions cinq cent mille dirhams zéro centimes"},
		{"3000000000", "trois milliards dirhams zéro centimes"},
		{"1234.56", "mille deux cent trente-quatre dirhams cinquante-six centimes"},
		{"10.01", "dix dirhams un centime"},
		{"12.80", "douze dirhams quatre-vingts centimes"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountToWords(d(tt.in)))
		})
	}
}

func TestAmountToWordsStringFallback(t *testing.T) {
	assert.Equal(t, "n/a", AmountToWordsString("n/a"))
	assert.Equal(t, "cent vingt dirhams zéro centimes", AmountToWordsString("120,00"))
}

func TestNumbering(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "1/2025", NextNumber(0, now))
	assert.Equal(t, "42/2025", NextNumber(SequenceOf("41/2024"), now))
	assert.Equal(t, int64(0), SequenceOf("INV-7"))
	assert.Equal(t, "facture_41_2024.pdf", PDFFileName("41/2024"))

	seq, year, err := ParseNumber(" 41/2024 ")
	require.NoError(t, err)
	assert.Equal(t, int64(41), seq)
	assert.Equal(t, 2024, year)
	for _, bad := range []string{"", "hello world", "INV-7", "41/24", "41/2024/1", "-1/2024", "/2024"} {
		_, _, err := ParseNumber(bad)
		assert.ErrorIs(t, err, ErrInvalidNumber, bad)
	}
}

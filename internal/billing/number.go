package billing

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidNumber is returned for numbers not shaped "<seq>/<year>".
var ErrInvalidNumber = errors.New("invoice number must be <sequence>/<year>")

var numberPattern = regexp.MustCompile(`^(\d+)/(\d{4})$`)

// FormatNumber renders an invoice number as "<seq>/<year>".
func FormatNumber(seq int64, year int) string {
	return strconv.FormatInt(seq, 10) + "/" + strconv.Itoa(year)
}

// SequenceOf returns the integer prefix before "/" of an invoice number, or 0
// when the prefix is missing or not numeric.
func SequenceOf(number string) int64 {
	prefix, _, _ := strings.Cut(strings.TrimSpace(number), "/")
	n, err := strconv.ParseInt(strings.TrimSpace(prefix), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseNumber splits a "<seq>/<year>" invoice number.
func ParseNumber(number string) (seq int64, year int, err error) {
	m := numberPattern.FindStringSubmatch(strings.TrimSpace(number))
	if m == nil {
		return 0, 0, ErrInvalidNumber
	}
	if seq, err = strconv.ParseInt(m[1], 10, 64); err != nil {
		return 0, 0, ErrInvalidNumber
	}
	year, _ = strconv.Atoi(m[2])
	return seq, year, nil
}

// NextNumber derives the number following last at time now. The sequence keeps
// growing across years; only the suffix follows the calendar.
func NextNumber(last int64, now time.Time) string {
	return FormatNumber(last+1, now.Year())
}

// PDFFileName is the stored artifact name for an invoice number.
func PDFFileName(number string) string {
	return "facture_" + strings.ReplaceAll(number, "/", "_") + ".pdf"
}

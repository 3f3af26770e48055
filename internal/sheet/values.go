package sheet

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/shockerli/cvt"
	"github.com/shopspring/decimal"
)

// excelEpoch is day zero of the 1900 date system, shifted for the 1900
// leap-year bug so that serial 60 onwards lands on the right day.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31.
const maxSerial = 2958465

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	time.RFC3339,
}

// ErrInvalidDate is returned when a value is neither a serial nor a known layout.
var ErrInvalidDate = errors.New("invalid date")

// ParseCellDate reads a spreadsheet date cell: an Excel serial (fractional
// part ignored) or any layout ParseDate accepts.
func ParseCellDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if f, err := cvt.Float64E(s); err == nil && s != "" {
		if f < 1 || f > maxSerial {
			return time.Time{}, ErrInvalidDate
		}
		return excelEpoch.AddDate(0, 0, int(math.Floor(f))), nil
	}
	return ParseDate(s)
}

// ParseDate accepts one of the textual layouts, day first. Bare numbers are
// rejected. The result is a UTC date at midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseAmount parses a money cell. Empty cells are an error; callers decide
// whether a missing amount defaults to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	return billing.ParseAmount(strings.TrimSpace(s))
}

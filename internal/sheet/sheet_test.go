package sheet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCellDate(t *testing.T) {
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"45658", "45658.75", "2025-01-01", "01/01/2025"} {
		got, err := ParseCellDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
	}
	for _, in := range []string{"", "0", "-3", "demain"} {
		_, err := ParseCellDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-01-05", "05/01/2025", "5/1/2025", "05-01-2025", "2025/01/05",
		"2025-01-05 13:45:00", "2025-01-05T00:00:00", "2025-01-05T10:00:00Z",
		"05/01/2025 08:30", "05/01/2025 08:30:15",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
	}

	got, err := ParseDate("15/03/2024")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month(), "day comes first")

	// serials only make sense in spreadsheet cells
	for _, in := range []string{"", "demain", "2025", "1e4", "45658", "32/13/2024"} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestCellHelpers(t *testing.T) {
	row := []string{" a ", "", "c"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
	assert.True(t, IsBlank([]string{" ", ""}))
	assert.True(t, IsBlank(nil))
	assert.False(t, IsBlank(row))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("suivi.XLSX"))
	assert.True(t, Supported("old.xls"))
	assert.False(t, Supported("data.csv"))
	assert.False(t, Supported("noext"))
}

func TestReadFileXLSXKeepsSerialDates(t *testing.T) {
	f := excelize.NewFile()
	sh := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sh, "A1", &[]any{"DATE", "VEHICULE"}))
	require.NoError(t, f.SetSheetRow(sh, "A3", &[]any{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "12345-A-6"}))
	path := filepath.Join(t.TempDir(), "in.xlsx")
	require.NoError(t, f.SaveAs(path))

	rows, err := ReadFile(path, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, IsBlank(rows[1]))
	d, err := ParseCellDate(Cell(rows[2], 0))
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, "12345-A-6", Cell(rows[2], 1))
}

func TestReadFileRejects(t *testing.T) {
	_, err := ReadFile("x.csv", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}

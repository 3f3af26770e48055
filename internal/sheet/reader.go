// Package sheet reads the first worksheet of .xlsx and legacy .xls workbooks
// as raw cell strings and coerces cells to dates and amounts.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for extensions other than .xlsx and .xls.
var ErrUnsupportedFormat = errors.New("sheet: unsupported file format")

// Extensions accepted by ReadFile.
var Extensions = []string{".xlsx", ".xls"}

// Supported reports whether filename has a readable workbook extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile returns the rows of the first worksheet of the workbook at path.
// ext selects the format; when empty it is taken from path. Row i of the
// result is sheet row i+1, blank rows included.
func ReadFile(path, ext string) ([][]string, error) {
	if ext == "" {
		ext = filepath.Ext(path)
	}
	switch strings.ToLower(ext) {
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// readXLSX keeps raw values so date cells come back as serial numbers.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, errors.New("workbook has no worksheet")
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return rows, nil
}

func readXLS(path string) ([][]string, error) {
	wb, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, errors.New("workbook has no worksheet")
	}
	ws, err := wb.GetSheet(0)
	if err != nil || ws == nil {
		return nil, fmt.Errorf("read first sheet: %w", err)
	}

	n := int(ws.GetNumberRows())
	rows := make([][]string, 0, n+1)
	for i := 0; i <= n; i++ {
		row, err := ws.GetRow(i)
		if err != nil || row == nil {
			rows = append(rows, nil)
			continue
		}
		var cells []string
		for _, c := range row.GetCols() {
			if c == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, c.GetString())
		}
		rows = append(rows, cells)
	}
	return trimTrailingBlank(rows), nil
}

func trimTrailingBlank(rows [][]string) [][]string {
	for len(rows) > 0 && IsBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

// Cell returns the trimmed value at index i, or "" when the row is shorter.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// IsBlank reports whether every cell of row is empty after trimming.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

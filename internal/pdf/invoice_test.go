package pdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRendersPDF(t *testing.T) {
	b, err := NewRenderer().Invoice(InvoiceData{
		Number:        "42/2025",
		Date:          "01/03/2025",
		Company:       CompanyData{Name: "Dépannage Tamanar", ICE: "0001"},
		Client:        ClientData{Name: "WAFA IMA ASSISTANCE"},
		Reference:     "R-1",
		Perimeter:     "Rayon 50 KM",
		Description:   "Assistance Accident",
		Net:           "100.00",
		Tax:           "20.00",
		Gross:         "120.00",
		AmountInWords: "cent vingt dirhams zéro centimes",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")), "not a PDF")
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "a | c", joinNonEmpty(" | ", "a", "", " ", "c"))
	assert.Equal(t, "", joinNonEmpty(" | "))
	assert.Equal(t, "N/A", orNA(" "))
}

// Package pdf renders invoice documents.
package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// CompanyData is the issuer block.
type CompanyData struct {
	Name        string
	Address     string
	City        string
	Phone       string
	Email       string
	ICE         string
	RC          string
	IF          string
	Patente     string
	BankAccount string
}

// ClientData is the billed partner.
type ClientData struct {
	Name    string
	TaxID   string
	Address string
}

// InvoiceData is everything printed on an invoice. Amounts are preformatted
// with two decimals.
type InvoiceData struct {
	Number        string
	Date          string // dd/mm/yyyy
	Company       CompanyData
	Client        ClientData
	Reference     string
	BaseLocation  string
	Location      string
	Destination   string
	Perimeter     string
	Description   string
	Net           string
	Tax           string
	Gross         string
	AmountInWords string
}

// Renderer turns invoice data into a document.
type Renderer interface {
	Invoice(data InvoiceData) ([]byte, error)
}

// MarotoRenderer renders A4 invoices with maroto.
type MarotoRenderer struct{}

func NewRenderer() *MarotoRenderer { return &MarotoRenderer{} }

var (
	title   = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}
	heading = props.Text{Size: 10, Style: fontstyle.Bold}
	normal  = props.Text{Size: 9}
	right   = props.Text{Size: 9, Align: align.Right}
	total   = props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
	small   = props.Text{Size: 7, Align: align.Center}
)

// Invoice renders data as a single page PDF.
func (MarotoRenderer) Invoice(data InvoiceData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	c := data.Company
	m.AddRow(8, text.NewCol(8, c.Name, heading), text.NewCol(4, "Date : "+data.Date, right))
	m.AddRow(5, text.NewCol(8, joinNonEmpty(" - ", c.Address, c.City), normal))
	m.AddRow(5, text.NewCol(8, joinNonEmpty(" - ", prefixed("Tél : ", c.Phone), c.Email), normal))
	m.AddRows(line.NewRow(4))

	m.AddRows(text.NewRow(12, "FACTURE N° "+data.Number, title))

	m.AddRow(6, col.New(6), text.NewCol(6, "Destinataire : "+orNA(data.Client.Name), heading))
	m.AddRow(5, col.New(6), text.NewCol(6, "ICE : "+orNA(data.Client.TaxID), normal))
	m.AddRow(5, col.New(6), text.NewCol(6, "Adresse : "+orNA(data.Client.Address), normal))
	m.AddRows(line.NewRow(4))

	details := [][2]string{
		{"Référence dossier", data.Reference},
		{"Point d'attache", data.BaseLocation},
		{"Lieu d'intervention", data.Location},
		{"Destination", data.Destination},
		{"Périmètre", data.Perimeter},
	}
	for _, d := range details {
		m.AddRow(6, text.NewCol(4, d[0], heading), text.NewCol(8, orNA(d[1]), normal))
	}
	m.AddRow(6, text.NewCol(12, "Désignation", heading))
	m.AddRows(text.NewRow(18, data.Description, normal))
	m.AddRows(line.NewRow(4))

	m.AddRow(6, col.New(6), text.NewCol(3, "Montant HT", heading), text.NewCol(3, data.Net+" DH", right))
	m.AddRow(6, col.New(6), text.NewCol(3, "TVA 20%", heading), text.NewCol(3, data.Tax+" DH", right))
	m.AddRow(8, col.New(6), text.NewCol(3, "Montant TTC", heading), text.NewCol(3, data.Gross+" DH", total))

	m.AddRows(text.NewRow(6, "Arrêtée la présente facture à la somme de :", normal))
	m.AddRows(text.NewRow(10, strings.ToUpper(data.AmountInWords), heading))

	m.AddRows(line.NewRow(6))
	m.AddRows(text.NewRow(4, joinNonEmpty(" | ",
		prefixed("ICE : ", c.ICE), prefixed("RC : ", c.RC), prefixed("IF : ", c.IF),
		prefixed("Patente : ", c.Patente), prefixed("RIB : ", c.BankAccount)), small))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", data.Number, err)
	}
	return doc.GetBytes(), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

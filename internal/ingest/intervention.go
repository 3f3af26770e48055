package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/sheet"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/textnorm"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/validation"
	"github.com/shopspring/decimal"
)

type field int

const (
	colPartner field = iota
	colReference
	colInvoiceNo
	colClient
	colDate
	colEvent
	colPlate
	colBrand
	colBaseLocation
	colLocation
	colDestination
	colGross
	colTax
	colStatus
	numColumns
)

// interventionColumns lists the header labels recognised for each field. The
// slice index is also the column position of the legacy positional layout.
var interventionColumns = [numColumns][]string{
	colPartner:      {"Société d'Assistance", "Societe Assistance", "Partenaire", "Partner"},
	colReference:    {"Ref Dossier", "Référence Dossier", "Reference"},
	colInvoiceNo:    {"N° Facture", "Num Facture", "Facture Num", "Facture"},
	colClient:       {"Assuré", "Client"},
	colDate:         {"Date d'intervention", "Date Intervention", "Date"},
	colEvent:        {"Evènement", "Événement", "Evenement", "Event"},
	colPlate:        {"Immatriculation", "Matricule"},
	colBrand:        {"Marque"},
	colBaseLocation: {"Point d'attach", "Point d'attache"},
	colLocation:     {"Lieu d'intervention", "Lieu"},
	colDestination:  {"Destination"},
	colGross:        {"Cout de Prestation TTC", "Cout Prestation TTC", "Montant TTC"},
	colTax:          {"TVA"},
	colStatus:       {"Status", "Statut"},
}

const (
	// headerScanRows is how many leading rows may hold the header.
	headerScanRows = 3
	// minHeaderMatches recognised labels make a row the header.
	minHeaderMatches = 2
	// positionalHeaderRows are skipped when no header row is found.
	positionalHeaderRows = 3
)

var headerKeys = func() [numColumns][]string {
	var keys [numColumns][]string
	for f, labels := range interventionColumns {
		for _, l := range labels {
			keys[f] = append(keys[f], headerKey(l))
		}
	}
	return keys
}()

// headerKey folds a header cell and drops punctuation: "Date d'intervention"
// becomes "date d intervention".
func headerKey(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, textnorm.Fold(s))
	return strings.Join(strings.Fields(s), " ")
}

// layout maps each field to a column index (-1 when absent) and records the
// first data row.
type layout struct {
	index    [numColumns]int
	firstRow int
	byHeader bool
}

func detectLayout(rows [][]string) layout {
	best, bestRow := 0, -1
	var bestIndex [numColumns]int
	for r := 0; r < headerScanRows && r < len(rows); r++ {
		index, n := matchHeader(rows[r])
		if n > best {
			best, bestRow, bestIndex = n, r, index
		}
	}
	if best >= minHeaderMatches {
		return layout{index: bestIndex, firstRow: bestRow + 1, byHeader: true}
	}

	var l layout
	for f := range l.index {
		l.index[f] = f
	}
	l.firstRow = positionalHeaderRows
	return l
}

func matchHeader(row []string) ([numColumns]int, int) {
	var index [numColumns]int
	for f := range index {
		index[f] = -1
	}
	n := 0
	for c, cell := range row {
		key := headerKey(cell)
		if key == "" {
			continue
		}
		for f := range headerKeys {
			if index[f] < 0 && slices.Contains(headerKeys[f], key) {
				index[f] = c
				n++
				break
			}
		}
	}
	return index, n
}

// interventionRow is an intervention as read from the sheet, before partner
// resolution.
type interventionRow struct {
	Line         int                 `json:"-"`
	PartnerName  string              `json:"partner" validate:"max=100"`
	Date         *time.Time          `json:"date" validate:"required"`
	Intervention models.Intervention `json:"-" validate:"-"`
}

func (p *Pipeline) ingestInterventions(ctx context.Context, rows [][]string, actor access.Actor, batchCode string) (Result, error) {
	parsed, errs := parseInterventions(rows, p.opts.VATRate)

	var batchID *uint
	if batchCode != "" {
		var b models.Batch
		if err := p.db.WithContext(ctx).Where(models.Batch{Code: batchCode}).FirstOrCreate(&b).Error; err != nil {
			return Result{}, apperr.Unexpected("resolve batch", err)
		}
		batchID = &b.ID
	}

	partners := map[string]uint{}
	items := make([]models.Intervention, 0, len(parsed))
	for _, r := range parsed {
		it := r.Intervention
		it.UserID = actor.UserID()
		it.BatchID = batchID
		if r.PartnerName != "" {
			id, ok := partners[r.PartnerName]
			if !ok {
				var partner models.Partner
				if err := p.db.WithContext(ctx).Where(models.Partner{Name: r.PartnerName}).FirstOrCreate(&partner).Error; err != nil {
					return Result{}, apperr.Unexpected("resolve partner", err)
				}
				id = partner.ID
				partners[r.PartnerName] = id
			}
			it.PartnerID = &id
		}
		items = append(items, it)
	}

	created, err := insert(ctx, p.db, items)
	if err != nil {
		return Result{}, err
	}
	return Result{Created: created, Errors: errs}, nil
}

// parseInterventions maps and validates rows. Rows with neither a reference
// nor an invoice number are skipped without an error.
func parseInterventions(rows [][]string, vatRate decimal.Decimal) ([]interventionRow, []string) {
	l := detectLayout(rows)
	out := []interventionRow{}
	errs := []string{}
	seen := map[string]int{}
	for i := l.firstRow; i < len(rows); i++ {
		row, line := rows[i], i+1
		get := func(f field) string { return sheet.Cell(row, l.index[f]) }

		if sheet.IsBlank(row) || (get(colReference) == "" && get(colInvoiceNo) == "") {
			continue
		}

		r := interventionRow{Line: line, PartnerName: get(colPartner)}
		if raw := get(colDate); raw != "" {
			d, err := sheet.ParseCellDate(raw)
			if err != nil {
				errs = append(errs, lineError(line, "invalid date format"))
				continue
			}
			r.Date = &d
		}

		gross, tax, msg := amounts(get(colGross), get(colTax), vatRate)
		if msg != "" {
			errs = append(errs, lineError(line, msg))
			continue
		}

		it := models.Intervention{
			Reference:         get(colReference),
			ExternalInvoiceNo: get(colInvoiceNo),
			ClientName:        get(colClient),
			Date:              r.Date,
			Event:             models.MatchEvent(get(colEvent)),
			Status:            models.MatchStatus(get(colStatus)),
			Plate:             get(colPlate),
			Brand:             get(colBrand),
			BaseLocation:      get(colBaseLocation),
			Location:          get(colLocation),
			Destination:       get(colDestination),
			GrossCost:         gross,
			TaxAmount:         tax,
		}
		it.ApplyDefaults()

		if v := validation.Struct(r); v != nil {
			errs = append(errs, lineError(line, v.String()))
			continue
		}
		if v := validation.Struct(it); v != nil {
			errs = append(errs, lineError(line, v.String()))
			continue
		}

		content := rowContent(r.PartnerName, it)
		seen[content]++
		key := importKey(content, seen[content])
		it.ImportKey = &key
		r.Intervention = it
		out = append(out, r)
	}
	return out, errs
}

// amounts parses the gross cost and VAT cells. A missing gross counts as zero
// and a missing VAT is derived from the gross.
func amounts(rawGross, rawTax string, rate decimal.Decimal) (gross, tax decimal.Decimal, msg string) {
	if rawGross != "" {
		g, err := sheet.ParseAmount(rawGross)
		if err != nil {
			return gross, tax, "invalid amount " + rawGross
		}
		gross = g.Round(2)
	}
	if rawTax != "" {
		t, err := sheet.ParseAmount(rawTax)
		if err != nil {
			return gross, tax, "invalid tax amount " + rawTax
		}
		return gross, t.Round(2), ""
	}
	if gross.IsNegative() {
		// reported by validation
		return gross, tax, ""
	}
	b, err := billing.TaxBreakdown(gross, rate)
	if err != nil {
		return gross, tax, err.Error()
	}
	return gross, b.Tax, ""
}

// rowContent joins the trimmed cell values of a row. Partners are matched by
// exact name, so no case or accent folding happens here.
func rowContent(partner string, it models.Intervention) string {
	date := ""
	if it.Date != nil {
		date = it.Date.Format(time.DateOnly)
	}
	return strings.Join([]string{
		partner,
		it.Reference,
		it.ExternalInvoiceNo,
		it.ClientName,
		date,
		string(it.Event),
		string(it.Status),
		it.Plate,
		it.Brand,
		it.BaseLocation,
		it.Location,
		it.Destination,
		it.GrossCost.StringFixed(2),
		it.TaxAmount.StringFixed(2),
	}, "\x1f")
}

// importKey fingerprints the n-th occurrence of a row content within one file,
// so re-importing the file is a no-op while repeated rows are all kept.
func importKey(content string, occurrence int) string {
	sum := sha256.Sum256([]byte(content + "\x1e" + strconv.Itoa(occurrence)))
	return hex.EncodeToString(sum[:])
}

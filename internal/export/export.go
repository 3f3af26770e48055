// Package export writes the intervention and fuel log ledgers to .xlsx workbooks.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ContentType of the produced workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	fuelLogHeader      = []any{"DATE", "VEHICULE", "SERVICE", "POMPISTE", "PRIX DH"}
	interventionHeader = []any{"REF DOSSIER", "ASSURE", "DATE INTERVENTION", "EVENEMENT", "IMMATRICULATION", "MARQUE", "COUT PRESTATION TTC", "STATUS"}
)

// File is a rendered workbook.
type File struct {
	Name string
	Data []byte
}

type Exporter struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Exporter {
	return &Exporter{db: db, now: time.Now}
}

// Export renders every row of kind visible to actor.
func (e *Exporter) Export(ctx context.Context, kind models.SheetKind, actor access.Actor) (*File, error) {
	var (
		sheetName string
		header    []any
		rows      [][]any
		err       error
	)
	switch kind {
	case models.SheetFuelLogs:
		sheetName, header = "Suivi Carburant", fuelLogHeader
		rows, err = e.fuelLogRows(ctx, actor)
	case models.SheetInterventions:
		sheetName, header = "Interventions", interventionHeader
		rows, err = e.interventionRows(ctx, actor)
	default:
		return nil, apperr.Validation("unknown export kind", map[string]string{"kind": "invalid_choice"})
	}
	if err != nil {
		return nil, apperr.Unexpected("load "+string(kind)+" rows", err)
	}

	data, err := render(sheetName, header, rows)
	if err != nil {
		return nil, apperr.Unexpected("render workbook", err)
	}
	return &File{
		Name: fmt.Sprintf("%s_export_%s.xlsx", kind, e.now().Format("20060102_150405")),
		Data: data,
	}, nil
}

func (e *Exporter) fuelLogRows(ctx context.Context, actor access.Actor) ([][]any, error) {
	var logs []models.FuelLog
	if err := actor.Scope(e.db.WithContext(ctx)).Order("date, id").Find(&logs).Error; err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []any{
			l.Date.Format(time.DateOnly),
			l.Vehicle,
			l.Service,
			l.Attendant,
			l.Price.InexactFloat64(),
		})
	}
	return rows, nil
}

func (e *Exporter) interventionRows(ctx context.Context, actor access.Actor) ([][]any, error) {
	var items []models.Intervention
	if err := actor.Scope(e.db.WithContext(ctx)).Order("date, id").Find(&items).Error; err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		date := ""
		if it.Date != nil {
			date = it.Date.Format(time.DateOnly)
		}
		rows = append(rows, []any{
			it.Reference,
			it.ClientName,
			date,
			it.Event.Label(),
			it.Plate,
			it.Brand,
			it.GrossCost.InexactFloat64(),
			it.Status.Label(),
		})
	}
	return rows, nil
}

func render(sheetName string, header []any, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "A", last, 20); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

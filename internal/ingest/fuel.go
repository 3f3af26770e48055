package ingest

import (
	"context"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/sheet"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/textnorm"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/validation"
)

// Fuel log sheets carry a title block; data starts on sheet row 5.
const fuelHeaderRows = 4

// Positional fuel log columns.
const (
	fuelDate = iota
	fuelVehicle
	fuelService
	fuelAttendant
	fuelPrice
)

const fuelTextLimit = 50

func (p *Pipeline) ingestFuelLogs(ctx context.Context, rows [][]string, actor access.Actor) (Result, error) {
	logs, errs := parseFuelLogs(rows, actor)
	created, err := insert(ctx, p.db, logs)
	if err != nil {
		return Result{}, err
	}
	return Result{Created: created, Errors: errs}, nil
}

// parseFuelLogs maps rows positionally. Line numbers are 1-based sheet rows.
func parseFuelLogs(rows [][]string, actor access.Actor) ([]models.FuelLog, []string) {
	logs := []models.FuelLog{}
	errs := []string{}
	for i := fuelHeaderRows; i < len(rows); i++ {
		row, line := rows[i], i+1
		if sheet.IsBlank(row) {
			continue
		}

		rawDate, vehicle, rawPrice := sheet.Cell(row, fuelDate), sheet.Cell(row, fuelVehicle), sheet.Cell(row, fuelPrice)
		if rawDate == "" || vehicle == "" || rawPrice == "" {
			errs = append(errs, lineError(line, "missing date, vehicle or price"))
			continue
		}
		date, err := sheet.ParseCellDate(rawDate)
		if err != nil {
			errs = append(errs, lineError(line, "invalid date format"))
			continue
		}
		service := sheet.Cell(row, fuelService)
		if service == "" {
			errs = append(errs, lineError(line, "missing vehicle or service"))
			continue
		}
		price, err := sheet.ParseAmount(rawPrice)
		if err != nil || price.IsNegative() {
			errs = append(errs, lineError(line, "invalid price "+rawPrice))
			continue
		}

		fl := models.FuelLog{
			UserID:    actor.UserID(),
			Date:      date,
			Vehicle:   textnorm.Truncate(vehicle, fuelTextLimit),
			Service:   textnorm.Truncate(service, fuelTextLimit),
			Attendant: textnorm.Truncate(sheet.Cell(row, fuelAttendant), fuelTextLimit),
			Price:     price.Round(2),
		}
		if v := validation.Struct(fl); v != nil {
			errs = append(errs, lineError(line, v.String()))
			continue
		}
		logs = append(logs, fl)
	}
	return logs, errs
}

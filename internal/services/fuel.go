package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

// FuelLogService manages fuel consumption entries.
type FuelLogService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewFuelLogService(db *gorm.DB, rec *audit.Recorder) *FuelLogService {
	return &FuelLogService{db: db, audit: rec}
}

func (s *FuelLogService) List(ctx context.Context, actor access.Actor, q ListQuery) (Page[models.FuelLog], error) {
	tx := actor.Scope(s.db.WithContext(ctx))
	if q.Station != "" {
		st := models.NormalizeStation(q.Station)
		if !slices.Contains(models.Stations, st) {
			return Page[models.FuelLog]{}, apperr.Validation("unknown station", map[string]string{"station": "invalid_choice"})
		}
		tx = tx.Where("station = ?", st)
	}
	if q.DateFrom != nil {
		tx = tx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("date <= ?", *q.DateTo)
	}
	if q.Search != "" {
		tx = tx.Where("LOWER(vehicle) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	p, err := paginate[models.FuelLog](tx, q, "date DESC, id DESC")
	return p, dbError(err, "fuel logs")
}

func (s *FuelLogService) Get(ctx context.Context, id uint) (*models.FuelLog, error) {
	var f models.FuelLog
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, dbError(err, "fuel log")
	}
	return &f, nil
}

func (s *FuelLogService) Create(ctx context.Context, f *models.FuelLog, actor access.Actor) error {
	f.ID = 0
	f.UserID = actor.UserID()
	f.User = nil
	normalizeFuelLog(f)
	if err := validate(f); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(f).Error; err != nil {
			return dbError(err, "fuel log")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Ajout Suivi Carburant", Details: describeFuelLog(f), Model: "fuel_log", RecordID: f.ID, Severity: models.SeverityMedium,
		})
	})
}

func (s *FuelLogService) Update(ctx context.Context, current *models.FuelLog, in models.FuelLog, actor access.Actor) error {
	current.Date = in.Date
	current.Vehicle = in.Vehicle
	current.Service = in.Service
	current.Attendant = in.Attendant
	current.Station = in.Station
	current.Price = in.Price
	normalizeFuelLog(current)
	if err := validate(current); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("user_id", "created_at").Save(current).Error; err != nil {
			return dbError(err, "fuel log")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Modification Suivi Carburant", Details: describeFuelLog(current), Model: "fuel_log", RecordID: current.ID, Severity: models.SeverityMedium,
		})
	})
}

func (s *FuelLogService) Delete(ctx context.Context, f *models.FuelLog, actor access.Actor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.FuelLog{}, f.ID).Error; err != nil {
			return dbError(err, "fuel log")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Suppression Suivi Carburant", Details: describeFuelLog(f), Model: "fuel_log", RecordID: f.ID, Severity: models.SeverityHigh,
		})
	})
}

func normalizeFuelLog(f *models.FuelLog) {
	f.Vehicle = strings.TrimSpace(f.Vehicle)
	f.Service = strings.TrimSpace(f.Service)
	f.Attendant = strings.TrimSpace(f.Attendant)
	f.Station = models.NormalizeStation(f.Station)
}

func describeFuelLog(f *models.FuelLog) string {
	return fmt.Sprintf("%s le %s, %s DH", f.Vehicle, f.Date.Format("02/01/2006"), f.Price.StringFixed(2))
}

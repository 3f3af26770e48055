package services

import (
	"context"
	"errors"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

// CompanyService reads and edits the issuer block printed on invoices.
type CompanyService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewCompanyService(db *gorm.DB, rec *audit.Recorder) *CompanyService {
	return &CompanyService{db: db, audit: rec}
}

// Get returns the saved settings, or the defaults when none were saved yet.
func (s *CompanyService) Get(ctx context.Context) (models.CompanySettings, error) {
	var c models.CompanySettings
	err := s.db.WithContext(ctx).Order("id").Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCompany(), nil
	}
	if err != nil {
		return c, apperr.Unexpected("load company settings", err)
	}
	return c, nil
}

// Update replaces the settings with in.
func (s *CompanyService) Update(ctx context.Context, in models.CompanySettings, actor access.Actor) (models.CompanySettings, error) {
	if err := validate(in); err != nil {
		return in, err
	}
	current, err := s.Get(ctx)
	if err != nil {
		return in, err
	}
	in.ID = current.ID
	in.CreatedAt = current.CreatedAt

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&in).Error; err != nil {
			return dbError(err, "company settings")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action:   "Modification Paramètres Société",
			Model:    "company",
			RecordID: in.ID,
			Severity: models.SeverityMedium,
		})
	})
	return in, err
}

package services

import (
	"context"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
)

// PartnerService manages the partner registry.
type PartnerService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewPartnerService(db *gorm.DB, rec *audit.Recorder) *PartnerService {
	return &PartnerService{db: db, audit: rec}
}

func (s *PartnerService) List(ctx context.Context, q ListQuery) (Page[models.Partner], error) {
	tx := s.db.WithContext(ctx)
	if q.Search != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	p, err := paginate[models.Partner](tx, q, "name")
	return p, dbError(err, "partners")
}

func (s *PartnerService) Get(ctx context.Context, id uint) (*models.Partner, error) {
	var p models.Partner
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, dbError(err, "partner")
	}
	return &p, nil
}

func (s *PartnerService) Create(ctx context.Context, p *models.Partner, actor access.Actor) error {
	p.ID = 0
	p.Name = strings.TrimSpace(p.Name)
	if err := validate(p); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return dbError(err, "partner")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Création Partenaire", Details: p.Name, Model: "partner", RecordID: p.ID, Severity: models.SeverityMedium,
		})
	})
}

// Update edits the registry entry. Invoices already issued keep their billing snapshot.
func (s *PartnerService) Update(ctx context.Context, id uint, in models.Partner, actor access.Actor) (*models.Partner, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.TaxID = in.TaxID
	p.Address = in.Address
	if err := validate(p); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return dbError(err, "partner")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Modification Partenaire", Details: p.Name, Model: "partner", RecordID: p.ID, Severity: models.SeverityMedium,
		})
	})
	return p, err
}

// Delete removes the partner. Interventions and invoices referencing it are
// detached, not deleted.
func (s *PartnerService) Delete(ctx context.Context, id uint, actor access.Actor) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Intervention{}, &models.Invoice{}} {
			if err := tx.Model(m).Where("partner_id = ?", id).Update("partner_id", nil).Error; err != nil {
				return dbError(err, "partner")
			}
		}
		if err := tx.Delete(p).Error; err != nil {
			return dbError(err, "partner")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Suppression Partenaire", Details: p.Name, Model: "partner", RecordID: id, Severity: models.SeverityHigh,
		})
	})
}

// BatchService manages batch tags.
type BatchService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewBatchService(db *gorm.DB, rec *audit.Recorder) *BatchService {
	return &BatchService{db: db, audit: rec}
}

func (s *BatchService) List(ctx context.Context, q ListQuery) (Page[models.Batch], error) {
	tx := s.db.WithContext(ctx)
	if q.Search != "" {
		tx = tx.Where("LOWER(code) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	p, err := paginate[models.Batch](tx, q, "created_at DESC, id DESC")
	return p, dbError(err, "batches")
}

func (s *BatchService) Get(ctx context.Context, id uint) (*models.Batch, error) {
	var b models.Batch
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, dbError(err, "batch")
	}
	return &b, nil
}

func (s *BatchService) Create(ctx context.Context, b *models.Batch, actor access.Actor) error {
	b.ID = 0
	b.Code = strings.TrimSpace(b.Code)
	if err := validate(b); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return dbError(err, "batch")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Création Groupe", Details: b.Code, Model: "batch", RecordID: b.ID, Severity: models.SeverityMedium,
		})
	})
}

func (s *BatchService) Update(ctx context.Context, id uint, in models.Batch, actor access.Actor) (*models.Batch, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Code = strings.TrimSpace(in.Code)
	b.Description = in.Description
	if err := validate(b); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(b).Error; err != nil {
			return dbError(err, "batch")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Modification Groupe", Details: b.Code, Model: "batch", RecordID: b.ID, Severity: models.SeverityMedium,
		})
	})
	return b, err
}

func (s *BatchService) Delete(ctx context.Context, id uint, actor access.Actor) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Intervention{}).Where("batch_id = ?", id).Update("batch_id", nil).Error; err != nil {
			return dbError(err, "batch")
		}
		if err := tx.Delete(b).Error; err != nil {
			return dbError(err, "batch")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Suppression Groupe", Details: b.Code, Model: "batch", RecordID: id, Severity: models.SeverityHigh,
		})
	})
}

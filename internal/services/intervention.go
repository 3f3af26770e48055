package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterventionService manages the intervention ledger. Listings are scoped to
// the actor; record-level ownership is checked by the caller.
type InterventionService struct {
	db    *gorm.DB
	audit *audit.Recorder
	store storage.Store
	log   *zap.Logger
}

// NewInterventionService wires the service. store holds invoice PDFs and may
// be nil when no invoice was ever rendered.
func NewInterventionService(db *gorm.DB, rec *audit.Recorder, store storage.Store, log *zap.Logger) *InterventionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InterventionService{db: db, audit: rec, store: store, log: log}
}

func (s *InterventionService) List(ctx context.Context, actor access.Actor, q ListQuery) (Page[models.Intervention], error) {
	tx := actor.Scope(s.db.WithContext(ctx)).Preload("Partner").Preload("Batch")
	if q.Status != "" {
		st, ok := models.ParseStatus(q.Status)
		if !ok {
			return Page[models.Intervention]{}, apperr.Validation("unknown status", map[string]string{"status": "invalid_choice"})
		}
		tx = tx.Where("status = ?", st)
	}
	if q.DateFrom != nil {
		tx = tx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("date <= ?", *q.DateTo)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(reference) LIKE ? OR LOWER(plate) LIKE ? OR LOWER(client_name) LIKE ?", like, like, like)
	}
	p, err := paginate[models.Intervention](tx, q, "date DESC, id DESC")
	return p, dbError(err, "interventions")
}

func (s *InterventionService) Get(ctx context.Context, id uint) (*models.Intervention, error) {
	var it models.Intervention
	if err := s.db.WithContext(ctx).Preload("Partner").Preload("Batch").First(&it, id).Error; err != nil {
		return nil, dbError(err, "intervention")
	}
	return &it, nil
}

// Create records an intervention owned by the actor.
func (s *InterventionService) Create(ctx context.Context, it *models.Intervention, actor access.Actor) error {
	it.ID = 0
	it.UserID = actor.UserID()
	it.ImportKey = nil
	it.Partner, it.Batch, it.User = nil, nil, nil
	it.ApplyDefaults()
	if err := validate(it); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(it).Error; err != nil {
			return dbError(err, "intervention")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action:   "Ajout Intervention",
			Details:  describeIntervention(it),
			Model:    "intervention",
			RecordID: it.ID,
			Severity: models.SeverityMedium,
		})
	})
}

// Update overwrites the editable fields of current with in.
func (s *InterventionService) Update(ctx context.Context, current *models.Intervention, in models.Intervention, actor access.Actor) error {
	current.PartnerID = in.PartnerID
	current.BatchID = in.BatchID
	current.Reference = in.Reference
	current.ExternalInvoiceNo = in.ExternalInvoiceNo
	current.ClientName = in.ClientName
	current.Date = in.Date
	current.Event = in.Event
	current.Status = in.Status
	current.Plate = in.Plate
	current.Brand = in.Brand
	current.BaseLocation = in.BaseLocation
	current.Location = in.Location
	current.Destination = in.Destination
	current.GrossCost = in.GrossCost
	current.TaxAmount = in.TaxAmount
	current.Partner, current.Batch = nil, nil
	current.ApplyDefaults()
	if err := validate(current); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("user_id", "import_key", "created_at").Save(current).Error; err != nil {
			return dbError(err, "intervention")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action:   "Modification Intervention",
			Details:  describeIntervention(current),
			Model:    "intervention",
			RecordID: current.ID,
			Severity: models.SeverityMedium,
		})
	})
}

// Delete removes the intervention, its invoice and the invoice PDF.
func (s *InterventionService) Delete(ctx context.Context, it *models.Intervention, actor access.Actor) error {
	var pdfPaths []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).Where("intervention_id = ? AND pdf_path <> ''", it.ID).Pluck("pdf_path", &pdfPaths).Error; err != nil {
			return dbError(err, "invoice")
		}
		if err := tx.Where("intervention_id = ?", it.ID).Delete(&models.Invoice{}).Error; err != nil {
			return dbError(err, "invoice")
		}
		if err := tx.Delete(&models.Intervention{}, it.ID).Error; err != nil {
			return dbError(err, "intervention")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action:   "Suppression Intervention",
			Details:  describeIntervention(it),
			Model:    "intervention",
			RecordID: it.ID,
			Severity: models.SeverityHigh,
		})
	})
	if err != nil {
		return err
	}
	if s.store != nil {
		for _, p := range pdfPaths {
			discardPDF(ctx, s.store, s.log, p)
		}
	}
	return nil
}

func describeIntervention(it *models.Intervention) string {
	return fmt.Sprintf("Réf %s, %s, %s %s", it.Reference, it.Event.Label(), it.Brand, it.Plate)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/metrics"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/pdf"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/sheet"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoicePrefix is the storage folder of rendered invoices.
const InvoicePrefix = "invoices/"

type InvoiceService struct {
	db       *gorm.DB
	numberer *Numberer
	company  *CompanyService
	renderer pdf.Renderer
	store    storage.Store
	audit    *audit.Recorder
	metrics  *metrics.Metrics
	log      *zap.Logger
	vatRate  decimal.Decimal
	now      func() time.Time
}

func NewInvoiceService(
	db *gorm.DB,
	numberer *Numberer,
	company *CompanyService,
	renderer pdf.Renderer,
	store storage.Store,
	rec *audit.Recorder,
	m *metrics.Metrics,
	log *zap.Logger,
) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceService{
		db:       db,
		numberer: numberer,
		company:  company,
		renderer: renderer,
		store:    store,
		audit:    rec,
		metrics:  m,
		log:      log,
		vatRate:  billing.DefaultVATRate,
		now:      time.Now,
	}
}

// SetVATRate overrides the rate used to split gross amounts.
func (s *InvoiceService) SetVATRate(rate decimal.Decimal) {
	if !rate.IsNegative() {
		s.vatRate = rate
	}
}

// GenerateInput overrides the values derived from the intervention. Nil
// fields keep the derived value.
type GenerateInput struct {
	Date           string           `json:"date"`
	BillingName    *string          `json:"billing_name"`
	BillingTaxID   *string          `json:"billing_tax_id"`
	BillingAddress *string          `json:"billing_address"`
	Reference      *string          `json:"reference"`
	BaseLocation   *string          `json:"base_location"`
	Location       *string          `json:"location"`
	Destination    *string          `json:"destination"`
	Perimeter      *string          `json:"perimeter"`
	Description    *string          `json:"description"`
	GrossAmount    *decimal.Decimal `json:"gross_amount"`
}

// Generate creates or refreshes the invoice of an intervention, renders it and
// stores the PDF. An intervention has at most one invoice; a refreshed invoice
// keeps its number.
func (s *InvoiceService) Generate(ctx context.Context, interventionID uint, in GenerateInput, actor access.Actor) (*models.Invoice, []byte, error) {
	var it models.Intervention
	if err := s.db.WithContext(ctx).First(&it, interventionID).Error; err != nil {
		return nil, nil, dbError(err, "intervention")
	}
	company, err := s.company.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	date := dateOnly(s.now())
	if strings.TrimSpace(in.Date) != "" {
		d, err := sheet.ParseDate(in.Date)
		if err != nil {
			return nil, nil, apperr.Validation("invalid invoice date", map[string]string{"date": "invalid"})
		}
		date = d
	}
	gross := it.GrossCost
	if in.GrossAmount != nil {
		gross = *in.GrossAmount
	}
	amounts, err := billing.TaxBreakdown(gross, s.vatRate)
	if err != nil {
		return nil, nil, err
	}

	var (
		inv     models.Invoice
		doc     []byte
		written string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("intervention_id = ?", it.ID).Take(&inv).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			inv = models.Invoice{InterventionID: &it.ID, UserID: actor.UserID()}
			if inv.Number, err = s.numberer.Allocate(tx); err != nil {
				return err
			}
		case err != nil:
			return dbError(err, "invoice")
		}

		inv.Date = date
		inv.PartnerID = it.PartnerID
		inv.BillingName = pick(in.BillingName, "")
		inv.BillingTaxID = pick(in.BillingTaxID, "")
		inv.BillingAddress = pick(in.BillingAddress, "")
		inv.Reference = pick(in.Reference, it.Reference)
		inv.BaseLocation = pick(in.BaseLocation, it.BaseLocation)
		inv.Location = pick(in.Location, it.Location)
		inv.Destination = pick(in.Destination, it.Destination)
		inv.Perimeter = pick(in.Perimeter, models.DefaultPerimeter)
		inv.Description = pick(in.Description, defaultDescription(&it))
		inv.NetAmount, inv.TaxAmount, inv.GrossAmount = amounts.Net, amounts.Tax, amounts.Gross
		inv.PDFPath = InvoicePrefix + billing.PDFFileName(inv.Number)
		if err := validate(&inv); err != nil {
			return err
		}
		// the save hook fills the billing snapshot from the partner
		if err := tx.Omit(clause.Associations).Save(&inv).Error; err != nil {
			return dbError(err, "invoice")
		}
		if err := s.audit.RecordTx(tx, actor, audit.Entry{
			Action:   "Génération et Enregistrement Facture",
			Details:  fmt.Sprintf("Facture ID: %d, Numéro: %s générée pour Intervention ID: %d", inv.ID, inv.Number, it.ID),
			Model:    "invoice",
			RecordID: inv.ID,
			Severity: models.SeverityMedium,
		}); err != nil {
			return err
		}

		doc, err = s.renderer.Invoice(invoiceData(&inv, company))
		if err != nil {
			return apperr.Unexpected("render invoice "+inv.Number, err)
		}
		if !s.store.Exists(ctx, inv.PDFPath) {
			written = inv.PDFPath
		}
		if err := s.store.Put(ctx, inv.PDFPath, doc); err != nil {
			return apperr.Unexpected("store invoice "+inv.Number, err)
		}
		return nil
	})
	if err != nil {
		if written != "" {
			s.discard(ctx, written)
		}
		if apperr.KindOf(err) == apperr.KindUnexpected {
			s.log.Error("invoice generation failed", zap.Uint("intervention_id", interventionID), zap.Error(err))
		}
		return nil, nil, err
	}

	s.metrics.InvoiceGenerated()
	s.log.Info("invoice generated", zap.String("number", inv.Number), zap.Uint("invoice_id", inv.ID), zap.Uint("intervention_id", it.ID))
	return &inv, doc, nil
}

// Download returns the stored PDF of an invoice.
func (s *InvoiceService) Download(ctx context.Context, inv *models.Invoice) ([]byte, error) {
	if !inv.HasPDF() {
		return nil, apperr.NotFound("invoice PDF")
	}
	data, err := s.store.Get(ctx, inv.PDFPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("invoice PDF")
	}
	if err != nil {
		return nil, apperr.Unexpected("read invoice PDF", err)
	}
	return data, nil
}

func (s *InvoiceService) List(ctx context.Context, actor access.Actor, q ListQuery) (Page[models.Invoice], error) {
	tx := actor.Scope(s.db.WithContext(ctx))
	if q.DateFrom != nil {
		tx = tx.Where("date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("date <= ?", *q.DateTo)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(number) LIKE ? OR LOWER(billing_name) LIKE ? OR LOWER(reference) LIKE ?", like, like, like)
	}
	p, err := paginate[models.Invoice](tx, q, "id DESC")
	return p, dbError(err, "invoices")
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, dbError(err, "invoice")
	}
	return &inv, nil
}

// Create records a manual invoice. A missing number is allocated; when only
// the gross amount is given, net and tax are derived from it.
func (s *InvoiceService) Create(ctx context.Context, inv *models.Invoice, actor access.Actor) error {
	inv.ID = 0
	inv.UserID = actor.UserID()
	inv.PDFPath = ""
	inv.Intervention, inv.Partner, inv.User = nil, nil, nil
	inv.Number = strings.TrimSpace(inv.Number)
	if inv.Number != "" {
		if err := checkNumber(inv.Number); err != nil {
			return err
		}
	}
	if inv.Date.IsZero() {
		inv.Date = dateOnly(s.now())
	}
	if err := s.fillAmounts(inv); err != nil {
		return err
	}
	if err := validate(inv); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if inv.Number == "" {
			n, err := s.numberer.Allocate(tx)
			if err != nil {
				return err
			}
			inv.Number = n
		}
		if err := tx.Create(inv).Error; err != nil {
			return dbError(err, "invoice")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Ajout Facture", Details: "Numéro: " + inv.Number, Model: "invoice", RecordID: inv.ID, Severity: models.SeverityMedium,
		})
	})
}

// Update overwrites the editable fields of current with in. The amounts must
// stay consistent. A renumbered invoice with a stored PDF is rendered again
// under its new file name.
func (s *InvoiceService) Update(ctx context.Context, current *models.Invoice, in models.Invoice, actor access.Actor) error {
	oldPath := current.PDFPath
	renumbered := false
	if n := strings.TrimSpace(in.Number); n != "" && n != current.Number {
		if err := checkNumber(n); err != nil {
			return err
		}
		current.Number = n
		renumbered = true
	}
	if !in.Date.IsZero() {
		current.Date = in.Date
	}
	current.PartnerID = in.PartnerID
	current.BillingName = in.BillingName
	current.BillingTaxID = in.BillingTaxID
	current.BillingAddress = in.BillingAddress
	current.Reference = in.Reference
	current.BaseLocation = in.BaseLocation
	current.Location = in.Location
	current.Destination = in.Destination
	current.Perimeter = in.Perimeter
	current.Description = in.Description
	current.NetAmount, current.TaxAmount, current.GrossAmount = in.NetAmount, in.TaxAmount, in.GrossAmount
	current.Intervention, current.Partner = nil, nil
	if err := s.fillAmounts(current); err != nil {
		return err
	}
	if err := validate(current); err != nil {
		return err
	}
	rerender := renumbered && current.HasPDF()
	var company models.CompanySettings
	if rerender {
		var err error
		if company, err = s.company.Get(ctx); err != nil {
			return err
		}
		current.PDFPath = InvoicePrefix + billing.PDFFileName(current.Number)
	}

	var written string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("user_id", "intervention_id", "created_at").Save(current).Error; err != nil {
			return dbError(err, "invoice")
		}
		if err := s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Modification Facture", Details: "Numéro: " + current.Number, Model: "invoice", RecordID: current.ID, Severity: models.SeverityMedium,
		}); err != nil {
			return err
		}
		if !rerender {
			return nil
		}
		doc, err := s.renderer.Invoice(invoiceData(current, company))
		if err != nil {
			return apperr.Unexpected("render invoice "+current.Number, err)
		}
		written = current.PDFPath
		if err := s.store.Put(ctx, current.PDFPath, doc); err != nil {
			return apperr.Unexpected("store invoice "+current.Number, err)
		}
		return nil
	})
	if err != nil {
		current.PDFPath = oldPath
		if written != "" {
			s.discard(ctx, written)
		}
		return err
	}
	if rerender {
		s.discard(ctx, oldPath)
	}
	return nil
}

// Delete removes the invoice and its stored PDF.
func (s *InvoiceService) Delete(ctx context.Context, inv *models.Invoice, actor access.Actor) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Invoice{}, inv.ID).Error; err != nil {
			return dbError(err, "invoice")
		}
		return s.audit.RecordTx(tx, actor, audit.Entry{
			Action: "Suppression Facture", Details: "Numéro: " + inv.Number, Model: "invoice", RecordID: inv.ID, Severity: models.SeverityHigh,
		})
	})
	if err != nil {
		return err
	}
	if inv.HasPDF() {
		s.discard(ctx, inv.PDFPath)
	}
	return nil
}

// discard removes a stored PDF that no invoice row points to.
func (s *InvoiceService) discard(ctx context.Context, path string) {
	discardPDF(ctx, s.store, s.log, path)
}

func discardPDF(ctx context.Context, store storage.Store, log *zap.Logger, path string) {
	if err := store.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Warn("orphan invoice PDF", zap.String("path", path), zap.Error(err))
	}
}

func checkNumber(n string) error {
	if _, _, err := billing.ParseNumber(n); err != nil {
		return apperr.Validation(err.Error(), map[string]string{"number": "invalid_format"})
	}
	return nil
}

func (s *InvoiceService) fillAmounts(inv *models.Invoice) error {
	if inv.NetAmount.IsZero() && inv.TaxAmount.IsZero() && !inv.GrossAmount.IsZero() {
		b, err := billing.TaxBreakdown(inv.GrossAmount, s.vatRate)
		if err != nil {
			return err
		}
		inv.NetAmount, inv.TaxAmount, inv.GrossAmount = b.Net, b.Tax, b.Gross
	}
	return nil
}

func pick(override *string, fallback string) string {
	if override != nil {
		return strings.TrimSpace(*override)
	}
	return fallback
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func defaultDescription(it *models.Intervention) string {
	date := "-"
	if it.Date != nil {
		date = it.Date.Format("02/01/2006")
	}
	return fmt.Sprintf("Assistance %s - Véhicule %s (%s) du %s à %s vers %s",
		it.Event.Label(), it.Brand, it.Plate, date, it.Location, it.Destination)
}

func invoiceData(inv *models.Invoice, c models.CompanySettings) pdf.InvoiceData {
	return pdf.InvoiceData{
		Number: inv.Number,
		Date:   inv.Date.Format("02/01/2006"),
		Company: pdf.CompanyData{
			Name:        c.Name,
			Address:     c.Address,
			City:        c.City,
			Phone:       c.Phone,
			Email:       c.Email,
			ICE:         c.ICE,
			RC:          c.RC,
			IF:          c.IF,
			Patente:     c.Patente,
			BankAccount: c.BankAccount,
		},
		Client: pdf.ClientData{
			Name:    inv.BillingName,
			TaxID:   inv.BillingTaxID,
			Address: inv.BillingAddress,
		},
		Reference:     inv.Reference,
		BaseLocation:  inv.BaseLocation,
		Location:      inv.Location,
		Destination:   inv.Destination,
		Perimeter:     inv.Perimeter,
		Description:   inv.Description,
		Net:           inv.NetAmount.StringFixed(2),
		Tax:           inv.TaxAmount.StringFixed(2),
		Gross:         inv.GrossAmount.StringFixed(2),
		AmountInWords: strings.ToUpper(billing.AmountToWords(inv.GrossAmount)),
	}
}

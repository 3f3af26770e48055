package models

import (
	"errors"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultPerimeter is printed on invoices when no perimeter is given.
const DefaultPerimeter = "Rayon 50 KM"

// Invoice bills one intervention to a partner.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID *uint `gorm:"index" json:"user_id,omitempty"`
	User   *User `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	// Number is "<seq>/<year>", allocated from the invoice counter or given by
	// the caller in the same shape.
	Number string    `gorm:"size:50;uniqueIndex;not null" json:"number"`
	Date   time.Time `gorm:"type:date;not null" json:"date"`

	InterventionID *uint         `gorm:"uniqueIndex" json:"intervention_id,omitempty"`
	Intervention   *Intervention `gorm:"constraint:OnDelete:CASCADE" json:"intervention,omitempty"`
	PartnerID      *uint         `gorm:"index" json:"partner_id,omitempty"`
	Partner        *Partner      `gorm:"constraint:OnDelete:SET NULL" json:"partner,omitempty"`

	// Billing display fields are a snapshot taken from the partner when empty.
	BillingName    string `gorm:"size:100" json:"billing_name" validate:"max=100"`
	BillingTaxID   string `gorm:"size:50" json:"billing_tax_id" validate:"max=50"`
	BillingAddress string `gorm:"size:200" json:"billing_address" validate:"max=200"`

	Reference    string `gorm:"size:50" json:"reference" validate:"max=50"`
	BaseLocation string `gorm:"size:100;default:'TAMANAR'" json:"base_location" validate:"max=100"`
	Location     string `gorm:"size:100" json:"location" validate:"max=100"`
	Destination  string `gorm:"size:100" json:"destination" validate:"max=100"`
	Perimeter    string `gorm:"size:100" json:"perimeter" validate:"max=100"`
	Description  string `gorm:"type:text" json:"description"`

	NetAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"net_amount" validate:"gte=0"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount" validate:"gte=0"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"gross_amount" validate:"gte=0"`

	PDFPath string `gorm:"size:255" json:"pdf_path,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	if i.UserID == nil {
		return 0
	}
	return *i.UserID
}

// HasPDF reports whether a rendered artifact has been stored.
func (i *Invoice) HasPDF() bool {
	return i.PDFPath != ""
}

// BeforeSave snapshots the partner's billing details into empty display
// fields and rejects amounts where gross differs from net+tax by more than a cent.
func (i *Invoice) BeforeSave(tx *gorm.DB) error {
	if i.PartnerID != nil && (i.BillingName == "" || i.BillingTaxID == "" || i.BillingAddress == "") {
		var p Partner
		err := tx.Session(&gorm.Session{NewDB: true}).First(&p, *i.PartnerID).Error
		switch {
		case err == nil:
			i.fillBilling(&p)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if i.Perimeter == "" {
		i.Perimeter = DefaultPerimeter
	}
	return billing.ValidateConsistency(i.NetAmount, i.TaxAmount, i.GrossAmount)
}

func (i *Invoice) fillBilling(p *Partner) {
	if i.BillingName == "" {
		i.BillingName = p.Name
	}
	if i.BillingTaxID == "" {
		i.BillingTaxID = p.TaxID
	}
	if i.BillingAddress == "" {
		i.BillingAddress = p.Address
	}
}

// InvoiceCounter is the explicit sequence behind invoice numbers.
type InvoiceCounter struct {
	ID        uint      `gorm:"primaryKey"`
	UpdatedAt time.Time
	Name      string `gorm:"uniqueIndex;size:50;not null"`
	LastValue int64  `gorm:"not null;default:0"`
}

// InvoiceCounterName is the counter row used for invoice numbers.
const InvoiceCounterName = "invoice"

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseLocation is the depot interventions start from unless stated otherwise.
const DefaultBaseLocation = "TAMANAR"

// Intervention is a single assistance job on a vehicle.
// Implements the Ownable interface for ownership-based authorization.
type Intervention struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the agent who recorded the intervention.
	UserID *uint `gorm:"index" json:"user_id,omitempty"`
	User   *User `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	PartnerID *uint    `gorm:"index" json:"partner_id,omitempty"`
	Partner   *Partner `gorm:"constraint:OnDelete:SET NULL" json:"partner,omitempty"`
	BatchID   *uint    `gorm:"index" json:"batch_id,omitempty"`
	Batch     *Batch   `gorm:"constraint:OnDelete:SET NULL" json:"batch,omitempty"`

	Reference         string     `gorm:"size:50;index" json:"reference" validate:"max=50"`
	ExternalInvoiceNo string     `gorm:"size:50" json:"external_invoice_no" validate:"max=50"`
	ClientName        string     `gorm:"size:100" json:"client_name" validate:"max=100"`
	Date              *time.Time `gorm:"type:date;index" json:"date"`
	Event             Event      `gorm:"size:30;not null" json:"event" validate:"required,oneof=tow-interurban mechanical-failure accident assistance"`
	Status            Status     `gorm:"size:20;not null;default:'in-progress'" json:"status" validate:"required,oneof=in-progress cancelled completed"`
	Plate             string     `gorm:"size:50" json:"plate" validate:"max=50"`
	Brand             string     `gorm:"size:50" json:"brand" validate:"max=50"`
	BaseLocation      string     `gorm:"size:100;default:'TAMANAR'" json:"base_location" validate:"max=100"`
	Location          string     `gorm:"size:100" json:"location" validate:"max=100"`
	Destination       string     `gorm:"size:100" json:"destination" validate:"max=100"`

	GrossCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"gross_cost" validate:"gte=0"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount" validate:"gte=0"`

	// ImportKey fingerprints an ingested row; re-importing the same row is a no-op.
	ImportKey *string `gorm:"size:64;uniqueIndex" json:"-"`
}

// GetUserID implements the Ownable interface.
func (i *Intervention) GetUserID() uint {
	if i.UserID == nil {
		return 0
	}
	return *i.UserID
}

// ApplyDefaults fills the fields that have a domain default.
func (i *Intervention) ApplyDefaults() {
	if i.Event == "" {
		i.Event = EventTowInterurban
	}
	if i.Status == "" {
		i.Status = StatusInProgress
	}
	if i.BaseLocation == "" {
		i.BaseLocation = DefaultBaseLocation
	}
}

// FuelLog is one refuelling of a company vehicle.
type FuelLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID *uint `gorm:"index" json:"user_id,omitempty"`
	User   *User `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	Date      time.Time       `gorm:"type:date;not null;index" json:"date" validate:"required"`
	Vehicle   string          `gorm:"size:50;not null;index" json:"vehicle" validate:"required,max=50"`
	Service   string          `gorm:"size:50" json:"service" validate:"max=50"`
	Attendant string          `gorm:"size:50" json:"attendant" validate:"max=50"`
	Station   string          `gorm:"size:50" json:"station" validate:"omitempty,oneof=AFRICA TOTAL SHELL PETROM"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price" validate:"gte=0"`
}

func (f *FuelLog) GetUserID() uint {
	if f.UserID == nil {
		return 0
	}
	return *f.UserID
}

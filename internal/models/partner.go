package models

import "time"

// Partner is an assistance or insurance company that gets invoiced.
type Partner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name" validate:"required,max=100"`
	TaxID     string    `gorm:"size:50" json:"tax_id" validate:"max=50"` // ICE
	Address   string    `gorm:"size:255" json:"address" validate:"max=255"`
}

// Batch is a free tag grouping interventions, usually one per import.
type Batch struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Code        string    `gorm:"uniqueIndex;size:50;not null" json:"code" validate:"required,max=50"`
	Description string    `gorm:"type:text" json:"description"`
}

package models

import "time"

// CompanySettings is the issuer block printed on every invoice. There is a
// single row, edited by administrators.
type CompanySettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:255;not null" json:"name" validate:"required,max=255"`
	Email   string `gorm:"size:255" json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `gorm:"size:50" json:"phone,omitempty" validate:"max=50"`
	Address string `gorm:"size:500" json:"address,omitempty" validate:"max=500"`
	City    string `gorm:"size:100" json:"city,omitempty" validate:"max=100"`

	// Moroccan legal identifiers
	ICE         string `gorm:"size:20" json:"ice,omitempty" validate:"max=20"`
	RC          string `gorm:"size:50" json:"rc,omitempty" validate:"max=50"`
	IF          string `gorm:"size:50" json:"if,omitempty" validate:"max=50"`
	Patente     string `gorm:"size:50" json:"patente,omitempty" validate:"max=50"`
	BankAccount string `gorm:"size:50" json:"bank_account,omitempty" validate:"max=50"` // RIB
}

// DefaultCompany is used until an administrator saves the settings.
func DefaultCompany() CompanySettings {
	return CompanySettings{Name: "Dépannage Tamanar", City: "Tamanar"}
}

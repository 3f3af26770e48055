// Package models holds the gorm entities of the back office.
package models

// All returns every entity, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Permission{},
		&Profile{},
		&User{},
		&Partner{},
		&Batch{},
		&Intervention{},
		&Invoice{},
		&InvoiceCounter{},
		&FuelLog{},
		&ActionLog{},
		&CompanySettings{},
	}
}

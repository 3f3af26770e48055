package models

import (
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/textnorm"
	"gorm.io/gorm"
)

// ErrActionLogImmutable is returned when something tries to change or remove
// a recorded action.
var ErrActionLogImmutable = apperr.New(apperr.KindPermissionDenied, "action_log_immutable", "action log entries cannot be modified")

// ActionLog is an append-only audit record of a mutation.
type ActionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	ActorID   *uint     `gorm:"index" json:"actor_id,omitempty"`
	ActorName string    `gorm:"size:150" json:"actor_name"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	ModelName string    `gorm:"size:100" json:"model_name,omitempty"`
	RecordID  string    `gorm:"size:50" json:"record_id,omitempty"`
	Severity  Severity  `gorm:"size:10;not null;default:'low'" json:"severity"`
}

func (a *ActionLog) BeforeCreate(*gorm.DB) error {
	if a.Severity == "" {
		a.Severity = SeverityLow
	}
	a.Action = textnorm.Truncate(a.Action, 255)
	return nil
}

func (a *ActionLog) BeforeUpdate(*gorm.DB) error { return ErrActionLogImmutable }

func (a *ActionLog) BeforeDelete(*gorm.DB) error { return ErrActionLogImmutable }

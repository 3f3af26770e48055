// Package audit appends to and reads the immutable action log.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry describes one action to record.
type Entry struct {
	Action   string
	Details  string
	Model    string
	RecordID uint
	Severity models.Severity
}

// Recorder writes action log entries.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{db: db, log: log}
}

// Record appends an entry outside of any transaction.
func (r *Recorder) Record(ctx context.Context, actor access.Actor, e Entry) error {
	return r.RecordTx(r.db.WithContext(ctx), actor, e)
}

// RecordTx appends an entry using tx so it commits or rolls back with the
// mutation it describes.
func (r *Recorder) RecordTx(tx *gorm.DB, actor access.Actor, e Entry) error {
	row := models.ActionLog{
		ActorID:   actor.UserID(),
		ActorName: actor.Name,
		Action:    e.Action,
		Details:   e.Details,
		ModelName: e.Model,
		Severity:  e.Severity,
	}
	if e.RecordID != 0 {
		row.RecordID = strconv.FormatUint(uint64(e.RecordID), 10)
	}
	if err := tx.Create(&row).Error; err != nil {
		r.log.Error("action log write failed", zap.String("action", e.Action), zap.Error(err))
		return apperr.Unexpected("record action", err)
	}
	return nil
}

// MaxLimit caps one page of the listing.
const MaxLimit = 200

// Query filters the action log listing.
type Query struct {
	Severity models.Severity
	ActorID  uint
	Since    *time.Time
	Limit    int
	Offset   int
}

// List returns entries newest first and the total matching count.
func (r *Recorder) List(ctx context.Context, q Query) ([]models.ActionLog, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.ActionLog{})
	if q.Severity != "" {
		tx = tx.Where("severity = ?", q.Severity)
	}
	if q.ActorID != 0 {
		tx = tx.Where("actor_id = ?", q.ActorID)
	}
	if q.Since != nil {
		tx = tx.Where("created_at >= ?", *q.Since)
	}

	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, apperr.Unexpected("count action log", err)
	}
	limit := q.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	var rows []models.ActionLog
	if err := tx.Order("created_at DESC, id DESC").Limit(limit).Offset(q.Offset).Find(&rows).Error; err != nil {
		return nil, 0, apperr.Unexpected("list action log", err)
	}
	return rows, total, nil
}

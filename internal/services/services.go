// Package services holds the application use cases on top of the models:
// CRUD for the ledgers, invoice numbering and generation, dashboard statistics.
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/validation"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ListQuery carries the common listing filters. Fields that do not apply to a
// resource are ignored.
type ListQuery struct {
	Page     int
	Limit    int
	Status   string
	Station  string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

func (q ListQuery) bounds() (page, limit, offset int) {
	page, limit = q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit, (page - 1) * limit
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// paginate counts tx and loads the requested page ordered by order.
func paginate[T any](tx *gorm.DB, q ListQuery, order string) (Page[T], error) {
	page, limit, offset := q.bounds()
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Model(new(T)).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}
	items := []T{}
	if err := tx.Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// validate runs struct tag validation and returns a Validation error listing
// the violations.
func validate(v any) error {
	if violations := validation.Struct(v); violations != nil {
		return apperr.Validation("invalid input", violations)
	}
	return nil
}

// dbError maps gorm errors onto the application taxonomy.
func dbError(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(what)
	case isDuplicate(err):
		return apperr.Validation(what+" already exists", map[string]string{"_": "duplicate"})
	default:
		return apperr.Unexpected("store "+what, err)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Numberer hands out invoice numbers "<seq>/<year>". The sequence is the
// larger of the counter row and the prefix of the latest invoice, plus one.
type Numberer struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNumberer(db *gorm.DB) *Numberer {
	return &Numberer{db: db, now: time.Now}
}

// Next previews the number the next invoice would receive. It reserves nothing.
func (n *Numberer) Next(ctx context.Context) (string, error) {
	db := n.db.WithContext(ctx)

	var counter models.InvoiceCounter
	err := db.Where("name = ?", models.InvoiceCounterName).Take(&counter).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.Unexpected("read invoice counter", err)
	}
	last, err := lastInvoiceSequence(db)
	if err != nil {
		return "", err
	}
	return billing.NextNumber(max(counter.LastValue, last), n.now()), nil
}

// Allocate reserves the next number inside tx. The counter row stays locked
// until tx ends, so concurrent allocations are serialised.
func (n *Numberer) Allocate(tx *gorm.DB) (string, error) {
	counter, err := lockCounter(tx)
	if err != nil {
		return "", err
	}
	last, err := lastInvoiceSequence(tx)
	if err != nil {
		return "", err
	}
	seq := max(counter.LastValue, last) + 1
	if err := tx.Model(&counter).Update("last_value", seq).Error; err != nil {
		return "", apperr.Unexpected("advance invoice counter", err)
	}
	return billing.FormatNumber(seq, n.now().Year()), nil
}

func lockCounter(tx *gorm.DB) (models.InvoiceCounter, error) {
	var counter models.InvoiceCounter
	locked := func() error {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", models.InvoiceCounterName).
			Take(&counter).Error
	}
	err := locked()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := models.InvoiceCounter{Name: models.InvoiceCounterName}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return counter, apperr.Unexpected("create invoice counter", err)
		}
		err = locked()
	}
	if err != nil {
		return counter, apperr.Unexpected("lock invoice counter", err)
	}
	return counter, nil
}

// lastInvoiceSequence parses the prefix of the most recently created invoice.
func lastInvoiceSequence(db *gorm.DB) (int64, error) {
	var numbers []string
	if err := db.Model(&models.Invoice{}).Order("id DESC").Limit(1).Pluck("number", &numbers).Error; err != nil {
		return 0, apperr.Unexpected("read last invoice", err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	return billing.SequenceOf(numbers[0]), nil
}

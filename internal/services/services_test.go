package services

import (
	"context"
	"testing"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/dbtest"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/pdf"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	ctx    = context.Background()
	admin  = access.SystemActor("test")
	fixedT = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
)

type env struct {
	db       *gorm.DB
	rec      *audit.Recorder
	store    *storage.LocalStorage
	numberer *Numberer
	company  *CompanyService
	invoices *InvoiceService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	rec := audit.NewRecorder(db, nil)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	num := NewNumberer(db)
	num.now = func() time.Time { return fixedT }
	company := NewCompanyService(db, rec)
	inv := NewInvoiceService(db, num, company, pdf.NewRenderer(), store, rec, nil, nil)
	inv.now = num.now
	return &env{db: db, rec: rec, store: store, numberer: num, company: company, invoices: inv}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (e *env) partner(t *testing.T, name string) *models.Partner {
	t.Helper()
	p := &models.Partner{Name: name, TaxID: "001234", Address: "Casablanca"}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *env) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x"}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *env) intervention(t *testing.T, it models.Intervention) *models.Intervention {
	t.Helper()
	it.ApplyDefaults()
	require.NoError(t, e.db.Create(&it).Error)
	return &it
}

func agentOf(u *models.User) access.Actor {
	return access.Actor{ID: u.ID, Name: u.DisplayName()}
}

// lastLog returns the newest action log entry for a model.
func (e *env) lastLog(t *testing.T, model string) models.ActionLog {
	t.Helper()
	var l models.ActionLog
	require.NoError(t, e.db.Where("model_name = ?", model).Order("id DESC").First(&l).Error)
	return l
}

func TestListQueryBounds(t *testing.T) {
	tests := []struct {
		q                   ListQuery
		page, limit, offset int
	}{
		{ListQuery{}, 1, DefaultLimit, 0},
		{ListQuery{Page: 3, Limit: 10}, 3, 10, 20},
		{ListQuery{Page: -1, Limit: 1000}, 1, MaxLimit, 0},
	}
	for _, tt := range tests {
		page, limit, offset := tt.q.bounds()
		if page != tt.page || limit != tt.limit || offset != tt.offset {
			t.Errorf("%+v.bounds() = %d, %d, %d; want %d, %d, %d", tt.q, page, limit, offset, tt.page, tt.limit, tt.offset)
		}
	}
}

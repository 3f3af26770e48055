package services

import (
	"context"
	"sort"
	"time"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bucket is one group of a statistic. Monthly buckets are labelled "2006-01".
type Bucket struct {
	Label  string          `json:"label"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ProfitLoss compares intervention income with fuel spend.
type ProfitLoss struct {
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// Summary gathers every dashboard statistic.
type Summary struct {
	InterventionsPerMonth  []Bucket   `json:"interventions_per_month"`
	InvoicedPerMonth       []Bucket   `json:"invoiced_per_month"`
	FuelPerMonth           []Bucket   `json:"fuel_per_month"`
	InterventionsByEvent   []Bucket   `json:"interventions_by_event"`
	InterventionsByPartner []Bucket   `json:"interventions_by_partner"`
	TopLocations           []Bucket   `json:"top_locations"`
	FuelByVehicle          []Bucket   `json:"fuel_by_vehicle"`
	ProfitLoss             ProfitLoss `json:"profit_loss"`
}

// DashboardService computes read-only aggregates, scoped to the actor.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type datedAmount struct {
	Date   *time.Time
	Amount decimal.Decimal
}

func (s *DashboardService) scoped(ctx context.Context, actor access.Actor, model any) *gorm.DB {
	return actor.Scope(s.db.WithContext(ctx).Model(model))
}

// InterventionsPerMonth counts interventions by intervention month.
func (s *DashboardService) InterventionsPerMonth(ctx context.Context, actor access.Actor) ([]Bucket, error) {
	var rows []datedAmount
	err := s.scoped(ctx, actor, &models.Intervention{}).Select("date, gross_cost AS amount").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("interventions per month", err)
	}
	return byMonth(rows), nil
}

// InvoicedPerMonth sums invoice gross amounts by invoice month.
func (s *DashboardService) InvoicedPerMonth(ctx context.Context, actor access.Actor) ([]Bucket, error) {
	var rows []datedAmount
	err := s.scoped(ctx, actor, &models.Invoice{}).Select("date, gross_amount AS amount").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("invoiced per month", err)
	}
	return byMonth(rows), nil
}

// FuelPerMonth sums fuel spend by month.
func (s *DashboardService) FuelPerMonth(ctx context.Context, actor access.Actor) ([]Bucket, error) {
	var rows []datedAmount
	err := s.scoped(ctx, actor, &models.FuelLog{}).Select("date, price AS amount").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("fuel per month", err)
	}
	return byMonth(rows), nil
}

// byMonth buckets in Go so the query stays portable across postgres and sqlite.
func byMonth(rows []datedAmount) []Bucket {
	idx := map[string]int{}
	out := []Bucket{}
	for _, r := range rows {
		if r.Date == nil {
			continue
		}
		key := r.Date.Format("2006-01")
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, Bucket{Label: key})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Label < out[b].Label })
	return out
}

// InterventionsByEvent counts interventions per event category, labelled in French.
func (s *DashboardService) InterventionsByEvent(ctx context.Context, actor access.Actor) ([]Bucket, error) {
	var rows []Bucket
	err := s.scoped(ctx, actor, &models.Intervention{}).
		Select("event AS label, COUNT(*) AS count, COALESCE(SUM(gross_cost), 0) AS amount").
		Group("event").Order("count DESC, label").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("interventions by event", err)
	}
	for i := range rows {
		rows[i].Label = models.Event(rows[i].Label).Label()
	}
	return rows, nil
}

// InterventionsByPartner counts interventions per partner; unassigned ones are left out.
func (s *DashboardService) InterventionsByPartner(ctx context.Context, actor access.Actor) ([]Bucket, error) {
	var rows []Bucket
	err := s.scoped(ctx, actor, &models.Intervention{}).
		Select("partners.name AS label, COUNT(interventions.id) AS count, COALESCE(SUM(interventions.gross_cost), 0) AS amount").
		Joins("JOIN partners ON partners.id = interventions.partner_id").
		Group("partners.name").Order("count DESC, label").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("interventions by partner", err)
	}
	return rows, nil
}

// TopLocations returns the n most frequent intervention locations.
func (s *DashboardService) TopLocations(ctx context.Context, actor access.Actor, n int) ([]Bucket, error) {
	var rows []Bucket
	err := s.scoped(ctx, actor, &models.Intervention{}).
		Select("location AS label, COUNT(*) AS count, COALESCE(SUM(gross_cost), 0) AS amount").
		Where("location <> ''").
		Group("location").Order("count DESC, label").Limit(n).Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("top locations", err)
	}
	return rows, nil
}

// FuelByVehicle sums fuel spend per vehicle, biggest first.
func (s *DashboardService) FuelByVehicle(ctx context.Context, actor access.Actor) ([]Bucket, error) {
	var rows []Bucket
	err := s.scoped(ctx, actor, &models.FuelLog{}).
		Select("vehicle AS label, COUNT(*) AS count, COALESCE(SUM(price), 0) AS amount").
		Group("vehicle").Order("amount DESC, label").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Unexpected("fuel by vehicle", err)
	}
	return rows, nil
}

// ProfitLoss is intervention gross income minus fuel spend.
func (s *DashboardService) ProfitLoss(ctx context.Context, actor access.Actor) (ProfitLoss, error) {
	var pl ProfitLoss
	var income, expense struct{ Amount decimal.Decimal }
	if err := s.scoped(ctx, actor, &models.Intervention{}).Select("COALESCE(SUM(gross_cost), 0) AS amount").Scan(&income).Error; err != nil {
		return pl, apperr.Unexpected("income", err)
	}
	if err := s.scoped(ctx, actor, &models.FuelLog{}).Select("COALESCE(SUM(price), 0) AS amount").Scan(&expense).Error; err != nil {
		return pl, apperr.Unexpected("expense", err)
	}
	pl.Income, pl.Expense = income.Amount, expense.Amount
	pl.ProfitLoss = income.Amount.Sub(expense.Amount)
	return pl, nil
}

// Summary computes every statistic.
func (s *DashboardService) Summary(ctx context.Context, actor access.Actor) (Summary, error) {
	var (
		sum Summary
		err error
	)
	steps := []func() error{
		func() error { sum.InterventionsPerMonth, err = s.InterventionsPerMonth(ctx, actor); return err },
		func() error { sum.InvoicedPerMonth, err = s.InvoicedPerMonth(ctx, actor); return err },
		func() error { sum.FuelPerMonth, err = s.FuelPerMonth(ctx, actor); return err },
		func() error { sum.InterventionsByEvent, err = s.InterventionsByEvent(ctx, actor); return err },
		func() error { sum.InterventionsByPartner, err = s.InterventionsByPartner(ctx, actor); return err },
		func() error { sum.TopLocations, err = s.TopLocations(ctx, actor, 5); return err },
		func() error { sum.FuelByVehicle, err = s.FuelByVehicle(ctx, actor); return err },
		func() error { sum.ProfitLoss, err = s.ProfitLoss(ctx, actor); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Summary{}, err
		}
	}
	return sum, nil
}

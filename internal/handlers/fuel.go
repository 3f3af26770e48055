package handlers

import (
	"net/http"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FuelLogHandler struct {
	base
	svc *services.FuelLogService
}

func NewFuelLogHandler(svc *services.FuelLogService, gate *access.AuthGate, log *zap.Logger) *FuelLogHandler {
	return &FuelLogHandler{base: newBase(gate, log), svc: svc}
}

type fuelLogInput struct {
	Date      string          `json:"date"`
	Vehicle   string          `json:"vehicle"`
	Service   string          `json:"service"`
	Attendant string          `json:"attendant"`
	Station   string          `json:"station"`
	Price     decimal.Decimal `json:"price"`
}

func (in fuelLogInput) model() (models.FuelLog, error) {
	date, err := optionalDate(in.Date)
	if err != nil {
		return models.FuelLog{}, apperr.Validation("invalid date", map[string]string{"date": "invalid"})
	}
	f := models.FuelLog{
		Vehicle:   in.Vehicle,
		Service:   in.Service,
		Attendant: in.Attendant,
		Station:   in.Station,
		Price:     in.Price.Round(2),
	}
	if date != nil {
		f.Date = *date
	}
	return f, nil
}

func (h *FuelLogHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	q, err := listQuery(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	page, err := h.svc.List(r.Context(), a, q)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *FuelLogHandler) load(w http.ResponseWriter, r *http.Request, action access.Action) (*models.FuelLog, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	f, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	if !h.authorize(w, r, action, access.ResourceFuelLog, f) {
		return nil, false
	}
	return f, true
}

func (h *FuelLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.load(w, r, access.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *FuelLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in fuelLogInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	f, err := in.model()
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), &f, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *FuelLogHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	current, ok := h.load(w, r, access.ActionUpdate)
	if !ok {
		return
	}
	var in fuelLogInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	f, err := in.model()
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Update(r.Context(), current, f, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

func (h *FuelLogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	f, ok := h.load(w, r, access.ActionDelete)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), f, a); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/billing"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InterventionHandler serves the intervention ledger. Agents only reach
// their own interventions.
type InterventionHandler struct {
	base
	svc     *services.InterventionService
	vatRate decimal.Decimal
}

func NewInterventionHandler(svc *services.InterventionService, gate *access.AuthGate, vatRate decimal.Decimal, log *zap.Logger) *InterventionHandler {
	return &InterventionHandler{base: newBase(gate, log), svc: svc, vatRate: vatRate}
}

// interventionInput accepts dates as "YYYY-MM-DD" or "DD/MM/YYYY". A missing
// tax amount is derived from the gross cost.
type interventionInput struct {
	PartnerID         *uint            `json:"partner_id"`
	BatchID           *uint            `json:"batch_id"`
	Reference         string           `json:"reference"`
	ExternalInvoiceNo string           `json:"external_invoice_no"`
	ClientName        string           `json:"client_name"`
	Date              string           `json:"date"`
	Event             models.Event     `json:"event"`
	Status            models.Status    `json:"status"`
	Plate             string           `json:"plate"`
	Brand             string           `json:"brand"`
	BaseLocation      string           `json:"base_location"`
	Location          string           `json:"location"`
	Destination       string           `json:"destination"`
	GrossCost         decimal.Decimal  `json:"gross_cost"`
	TaxAmount         *decimal.Decimal `json:"tax_amount"`
}

func (in interventionInput) model(vatRate decimal.Decimal) (models.Intervention, error) {
	date, err := optionalDate(in.Date)
	if err != nil {
		return models.Intervention{}, apperr.Validation("invalid date", map[string]string{"date": "invalid"})
	}
	it := models.Intervention{
		PartnerID:         in.PartnerID,
		BatchID:           in.BatchID,
		Reference:         strings.TrimSpace(in.Reference),
		ExternalInvoiceNo: strings.TrimSpace(in.ExternalInvoiceNo),
		ClientName:        strings.TrimSpace(in.ClientName),
		Date:              date,
		Event:             in.Event,
		Status:            in.Status,
		Plate:             strings.TrimSpace(in.Plate),
		Brand:             strings.TrimSpace(in.Brand),
		BaseLocation:      strings.TrimSpace(in.BaseLocation),
		Location:          strings.TrimSpace(in.Location),
		Destination:       strings.TrimSpace(in.Destination),
		GrossCost:         in.GrossCost.Round(2),
	}
	if in.TaxAmount != nil {
		it.TaxAmount = in.TaxAmount.Round(2)
	} else {
		b, err := billing.TaxBreakdown(it.GrossCost, vatRate)
		if err != nil {
			return it, err
		}
		it.TaxAmount = b.Tax
	}
	return it, nil
}

func (h *InterventionHandler) List(w http.ResponseWriter, r *http.Request) {
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

// load fetches the intervention named by the URL and checks action on it.
func (h *InterventionHandler) load(w http.ResponseWriter, r *http.Request, action access.Action) (*models.Intervention, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	it, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	if !h.authorize(w, r, action, access.ResourceIntervention, it) {
		return nil, false
	}
	return it, true
}

func (h *InterventionHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, ok := h.load(w, r, access.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, it)
}

func (h *InterventionHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in interventionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	it, err := in.model(h.vatRate)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), &it, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, it)
}

func (h *InterventionHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	current, ok := h.load(w, r, access.ActionUpdate)
	if !ok {
		return
	}
	var in interventionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	it, err := in.model(h.vatRate)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Update(r.Context(), current, it, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

func (h *InterventionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	it, ok := h.load(w, r, access.ActionDelete)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), it, a); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

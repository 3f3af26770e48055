package handlers

import (
	"fmt"
	"net/http"
	"strconv"
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

type InvoiceHandler struct {
	base
	svc           *services.InvoiceService
	numberer      *services.Numberer
	interventions *services.InterventionService
}

func NewInvoiceHandler(
	svc *services.InvoiceService,
	numberer *services.Numberer,
	interventions *services.InterventionService,
	gate *access.AuthGate,
	log *zap.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{base: newBase(gate, log), svc: svc, numberer: numberer, interventions: interventions}
}

type invoiceInput struct {
	Number         string          `json:"number"`
	Date           string          `json:"date"`
	PartnerID      *uint           `json:"partner_id"`
	BillingName    string          `json:"billing_name"`
	BillingTaxID   string          `json:"billing_tax_id"`
	BillingAddress string          `json:"billing_address"`
	Reference      string          `json:"reference"`
	BaseLocation   string          `json:"base_location"`
	Location       string          `json:"location"`
	Destination    string          `json:"destination"`
	Perimeter      string          `json:"perimeter"`
	Description    string          `json:"description"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
}

func (in invoiceInput) model() (models.Invoice, error) {
	date, err := optionalDate(in.Date)
	if err != nil {
		return models.Invoice{}, apperr.Validation("invalid date", map[string]string{"date": "invalid"})
	}
	inv := models.Invoice{
		Number:         strings.TrimSpace(in.Number),
		PartnerID:      in.PartnerID,
		BillingName:    strings.TrimSpace(in.BillingName),
		BillingTaxID:   strings.TrimSpace(in.BillingTaxID),
		BillingAddress: strings.TrimSpace(in.BillingAddress),
		Reference:      strings.TrimSpace(in.Reference),
		BaseLocation:   strings.TrimSpace(in.BaseLocation),
		Location:       strings.TrimSpace(in.Location),
		Destination:    strings.TrimSpace(in.Destination),
		Perimeter:      strings.TrimSpace(in.Perimeter),
		Description:    strings.TrimSpace(in.Description),
		NetAmount:      in.NetAmount,
		TaxAmount:      in.TaxAmount,
		GrossAmount:    in.GrossAmount,
	}
	if date != nil {
		inv.Date = *date
	}
	return inv, nil
}

// NextNumber previews the number the next invoice will receive.
func (h *InvoiceHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.numberer.Next(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"invoice_number": n})
}

// Generate creates or refreshes the invoice of an intervention and answers
// with the rendered PDF.
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "intervention_id")
	if err != nil {
		h.fail(w, err)
		return
	}
	it, err := h.interventions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	// invoicing someone else's intervention needs the same rights as editing it
	if !h.authorize(w, r, access.ActionUpdate, access.ResourceIntervention, it) {
		return
	}
	var in services.GenerateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	inv, doc, err := h.svc.Generate(r.Context(), id, in, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("X-Invoice-Id", strconv.FormatUint(uint64(inv.ID), 10))
	w.Header().Set("X-Invoice-Number", inv.Number)
	writePDF(w, inv.Number, doc, "inline")
}

func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, access.ActionView)
	if !ok {
		return
	}
	doc, err := h.svc.Download(r.Context(), inv)
	if err != nil {
		h.fail(w, err)
		return
	}
	writePDF(w, inv.Number, doc, "attachment")
}

func writePDF(w http.ResponseWriter, number string, doc []byte, disposition string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, billing.PDFFileName(number)))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
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

func (h *InvoiceHandler) load(w http.ResponseWriter, r *http.Request, action access.Action) (*models.Invoice, bool) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	inv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	if !h.authorize(w, r, action, access.ResourceInvoice, inv) {
		return nil, false
	}
	return inv, true
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.load(w, r, access.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in invoiceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	inv, err := in.model()
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), &inv, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	current, ok := h.load(w, r, access.ActionUpdate)
	if !ok {
		return
	}
	var in invoiceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	inv, err := in.model()
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Update(r.Context(), current, inv, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, current)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	inv, ok := h.load(w, r, access.ActionDelete)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), inv, a); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

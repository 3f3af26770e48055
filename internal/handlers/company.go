package handlers

import (
	"net/http"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"go.uber.org/zap"
)

// CompanyHandler reads and edits the issuer block printed on invoices.
type CompanyHandler struct {
	base
	svc *services.CompanyService
}

func NewCompanyHandler(svc *services.CompanyService, gate *access.AuthGate, log *zap.Logger) *CompanyHandler {
	return &CompanyHandler{base: newBase(gate, log), svc: svc}
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Get(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var in models.CompanySettings
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	saved, err := h.svc.Update(r.Context(), in, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

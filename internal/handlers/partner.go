package handlers

import (
	"net/http"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"go.uber.org/zap"
)

// PartnerHandler serves the partner registry.
type PartnerHandler struct {
	base
	svc *services.PartnerService
}

func NewPartnerHandler(svc *services.PartnerService, gate *access.AuthGate, log *zap.Logger) *PartnerHandler {
	return &PartnerHandler{base: newBase(gate, log), svc: svc}
}

func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var p models.Partner
	if err := httpx.DecodeJSON(r, &p); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), &p, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in models.Partner
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	p, err := h.svc.Update(r.Context(), id, in, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id, a); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchHandler serves batch tags.
type BatchHandler struct {
	base
	svc *services.BatchService
}

func NewBatchHandler(svc *services.BatchService, gate *access.AuthGate, log *zap.Logger) *BatchHandler {
	return &BatchHandler{base: newBase(gate, log), svc: svc}
}

func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	var b models.Batch
	if err := httpx.DecodeJSON(r, &b); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), &b, a); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *BatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	var in models.Batch
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.fail(w, err)
		return
	}
	b, err := h.svc.Update(r.Context(), id, in, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *BatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id, a); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

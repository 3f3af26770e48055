package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"go.uber.org/zap"
)

// DefaultTopLocations is the length of the top-locations ranking unless ?n= says otherwise.
const DefaultTopLocations = 5

type DashboardHandler struct {
	base
	svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService, gate *access.AuthGate, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{base: newBase(gate, log), svc: svc}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	sum, err := h.svc.Summary(r.Context(), a)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

// Stat serves one statistic named by {stat}.
func (h *DashboardHandler) Stat(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	var (
		out any
		err error
	)
	switch chi.URLParam(r, "stat") {
	case "interventions-per-month":
		out, err = h.svc.InterventionsPerMonth(ctx, a)
	case "invoiced-per-month":
		out, err = h.svc.InvoicedPerMonth(ctx, a)
	case "fuel-per-month":
		out, err = h.svc.FuelPerMonth(ctx, a)
	case "interventions-by-event":
		out, err = h.svc.InterventionsByEvent(ctx, a)
	case "interventions-by-partner":
		out, err = h.svc.InterventionsByPartner(ctx, a)
	case "top-locations":
		n := DefaultTopLocations
		if s := r.URL.Query().Get("n"); s != "" {
			n, err = strconv.Atoi(s)
			if err != nil || n <= 0 || n > 100 {
				h.fail(w, apperr.Validation("invalid n", map[string]string{"n": "invalid"}))
				return
			}
		}
		out, err = h.svc.TopLocations(ctx, a, n)
	case "fuel-by-vehicle":
		out, err = h.svc.FuelByVehicle(ctx, a)
	case "profit-loss":
		out, err = h.svc.ProfitLoss(ctx, a)
	default:
		h.fail(w, apperr.NotFound("statistic"))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/export"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"go.uber.org/zap"
)

type ExportHandler struct {
	base
	exporter *export.Exporter
}

func NewExportHandler(exporter *export.Exporter, gate *access.AuthGate, log *zap.Logger) *ExportHandler {
	return &ExportHandler{base: newBase(gate, log), exporter: exporter}
}

// Export streams the ledger named by {kind} as an .xlsx attachment.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	kind, ok := models.ParseSheetKind(chi.URLParam(r, "kind"))
	if !ok {
		h.fail(w, apperr.Validation("kind must be 'intervention' or 'fuel-log'", map[string]string{"kind": "invalid_choice"}))
		return
	}
	f, err := h.exporter.Export(r.Context(), kind, a)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

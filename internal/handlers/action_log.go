package handlers

import (
	"net/http"
	"strconv"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/audit"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/models"
	"go.uber.org/zap"
)

// ActionLogHandler is the read-only view on the action log.
type ActionLogHandler struct {
	base
	audit *audit.Recorder
}

func NewActionLogHandler(rec *audit.Recorder, gate *access.AuthGate, log *zap.Logger) *ActionLogHandler {
	return &ActionLogHandler{base: newBase(gate, log), audit: rec}
}

// List accepts severity, actor_id, since, limit and offset.
func (h *ActionLogHandler) List(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	violations := map[string]string{}
	var q audit.Query

	if s := v.Get("severity"); s != "" {
		q.Severity = models.Severity(s)
		if !q.Severity.Valid() {
			violations["severity"] = "invalid_choice"
		}
	}
	if s := v.Get("actor_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			violations["actor_id"] = "invalid"
		}
		q.ActorID = uint(id)
	}
	if since, err := optionalDate(v.Get("since")); err != nil {
		violations["since"] = "invalid"
	} else {
		q.Since = since
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		s := v.Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			violations[name] = "invalid"
			continue
		}
		*dst = n
	}
	if len(violations) > 0 {
		h.fail(w, apperr.Validation("invalid query", violations))
		return
	}

	rows, total, err := h.audit.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows, "total": total})
}

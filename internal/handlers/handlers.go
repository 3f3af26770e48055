// Package handlers exposes the services over JSON HTTP. Routing and the
// profile permission middleware live in cmd/server; handlers load the record,
// check ownership through the gate and call the service.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/access"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/apperr"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/httpx"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/services"
	"github.com/itsazizbob-max/YOUSS-DASH7/internal/sheet"
	"go.uber.org/zap"
)

// base carries what every handler needs to identify the caller and report errors.
type base struct {
	gate *access.AuthGate
	log  *zap.Logger
}

func newBase(gate *access.AuthGate, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{gate: gate, log: log}
}

func (b base) fail(w http.ResponseWriter, err error) {
	httpx.Error(w, b.log, err)
}

// actor resolves the caller, writing the error response when it cannot.
func (b base) actor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	a, err := b.gate.Actor(r.Context())
	if err != nil {
		b.fail(w, err)
		return a, false
	}
	return a, true
}

// authorize checks action on a loaded record, ownership included.
func (b base) authorize(w http.ResponseWriter, r *http.Request, action access.Action, resource string, record any) bool {
	if err := b.gate.Authorize(r.Context(), action, resource, record); err != nil {
		b.fail(w, err)
		return false
	}
	return true
}

func idParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid "+name, map[string]string{name: "invalid"})
	}
	return uint(id), nil
}

// listQuery reads page, limit, status, station, search, date_from and date_to.
func listQuery(r *http.Request) (services.ListQuery, error) {
	v := r.URL.Query()
	q := services.ListQuery{
		Status:  strings.TrimSpace(v.Get("status")),
		Station: strings.TrimSpace(v.Get("station")),
		Search:  strings.TrimSpace(v.Get("search")),
	}
	violations := map[string]string{}
	intParam := func(name string) int {
		s := v.Get(name)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			violations[name] = "invalid"
		}
		return n
	}
	dateParam := func(name string) *time.Time {
		d, err := optionalDate(v.Get(name))
		if err != nil {
			violations[name] = "invalid"
		}
		return d
	}
	q.Page = intParam("page")
	q.Limit = intParam("limit")
	q.DateFrom = dateParam("date_from")
	q.DateTo = dateParam("date_to")
	if len(violations) > 0 {
		return q, apperr.Validation("invalid query", violations)
	}
	return q, nil
}

// optionalDate parses a user supplied date; empty input is nil.
func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := sheet.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

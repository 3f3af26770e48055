package models

import (
	"strings"

	"github.com/itsazizbob-max/YOUSS-DASH7/internal/textnorm"
)

// Event is the category of an intervention.
type Event string

const (
	EventTowInterurban     Event = "tow-interurban"
	EventMechanicalFailure Event = "mechanical-failure"
	EventAccident          Event = "accident"
	EventAssistance        Event = "assistance"
)

// Events lists the event categories in matching order.
var Events = []Event{EventTowInterurban, EventMechanicalFailure, EventAccident, EventAssistance}

var eventLabels = map[Event]string{
	EventTowInterurban:     "Remorquage Interurbain",
	EventMechanicalFailure: "Panne Mécanique",
	EventAccident:          "Accident",
	EventAssistance:        "Assistance",
}

// Label is the French display label.
func (e Event) Label() string {
	if l, ok := eventLabels[e]; ok {
		return l
	}
	return string(e)
}

func (e Event) Valid() bool {
	_, ok := eventLabels[e]
	return ok
}

// UnmarshalText accepts the canonical key or the French label. Unknown values
// are kept verbatim so struct validation reports them.
func (e *Event) UnmarshalText(b []byte) error {
	if v, ok := ParseEvent(string(b)); ok {
		*e = v
		return nil
	}
	*e = Event(strings.TrimSpace(string(b)))
	return nil
}

// ParseEvent resolves an exact key or label, ignoring case and accents.
func ParseEvent(s string) (Event, bool) {
	return parseExact(s, Events, eventLabels)
}

// MatchEvent resolves free text: exact key or label first, then the first
// label contained in s. Unmatched text yields EventTowInterurban.
func MatchEvent(s string) Event {
	if e, ok := ParseEvent(s); ok {
		return e
	}
	if e, ok := matchContained(s, Events, eventLabels); ok {
		return e
	}
	return EventTowInterurban
}

// Status is the lifecycle state of an intervention.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
)

var Statuses = []Status{StatusInProgress, StatusCancelled, StatusCompleted}

var statusLabels = map[Status]string{
	StatusInProgress: "En cours",
	StatusCancelled:  "Annulé",
	StatusCompleted:  "Complété",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s *Status) UnmarshalText(b []byte) error {
	if v, ok := ParseStatus(string(b)); ok {
		*s = v
		return nil
	}
	*s = Status(strings.TrimSpace(string(b)))
	return nil
}

func ParseStatus(s string) (Status, bool) {
	return parseExact(s, Statuses, statusLabels)
}

// MatchStatus is MatchEvent for statuses, defaulting to StatusInProgress.
func MatchStatus(s string) Status {
	if v, ok := ParseStatus(s); ok {
		return v
	}
	if v, ok := matchContained(s, Statuses, statusLabels); ok {
		return v
	}
	return StatusInProgress
}

// Severity grades an action log entry.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SheetKind selects which ledger a spreadsheet is imported into or exported from.
type SheetKind string

const (
	SheetInterventions SheetKind = "intervention"
	SheetFuelLogs      SheetKind = "fuel-log"
)

// ParseSheetKind accepts only the exact kind names.
func ParseSheetKind(s string) (SheetKind, bool) {
	switch k := SheetKind(strings.TrimSpace(s)); k {
	case SheetInterventions, SheetFuelLogs:
		return k, true
	}
	return "", false
}

// Stations accepted on fuel logs. An empty station is allowed.
var Stations = []string{"AFRICA", "TOTAL", "SHELL", "PETROM"}

// NormalizeStation upper-cases and trims a station name.
func NormalizeStation(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func parseExact[T ~string](s string, order []T, labels map[T]string) (T, bool) {
	key := textnorm.Fold(s)
	if key == "" {
		return "", false
	}
	for _, v := range order {
		if key == textnorm.Fold(string(v)) || key == textnorm.Fold(labels[v]) {
			return v, true
		}
	}
	return "", false
}

func matchContained[T ~string](s string, order []T, labels map[T]string) (T, bool) {
	key := textnorm.Fold(s)
	if key == "" {
		return "", false
	}
	for _, v := range order {
		if strings.Contains(key, textnorm.Fold(labels[v])) {
			return v, true
		}
	}
	return "", false
}

package events

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceCreated       EventType = "grievance_created"
	EventGrievanceRouted        EventType = "grievance_routed"
	EventGrievanceStatusChanged EventType = "grievance_status_changed"
	EventOfficerAssigned        EventType = "officer_assigned"
	EventDepartmentReassigned   EventType = "department_reassigned"
	EventSLABreached            EventType = "sla_breached"
)

var ledgerTypes = map[domain.EventType]EventType{
	domain.EventCreated:              EventGrievanceCreated,
	domain.EventRouted:               EventGrievanceRouted,
	domain.EventStatusChanged:        EventGrievanceStatusChanged,
	domain.EventOfficerAssigned:      EventOfficerAssigned,
	domain.EventDepartmentReassigned: EventDepartmentReassigned,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	ID   *string          `json:"id,omitempty"`
}

// Event represents a notification-worthy fact, published after commit.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	GrievanceID string    `json:"grievance_id"`
	TicketID    string    `json:"ticket_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// FromLedger lifts a committed ledger entry into a dispatcher event. The
// ledger payload is carried as-is.
func FromLedger(ticketID string, entry domain.Event) Event {
	t, ok := ledgerTypes[entry.Type]
	if !ok {
		t = EventType(entry.Type)
	}
	return Event{
		ID:          entry.ID,
		Type:        t,
		GrievanceID: entry.GrievanceID,
		TicketID:    ticketID,
		Actor:       Actor{Type: entry.ActorType, ID: entry.ActorID},
		Timestamp:   entry.CreatedAt,
		Payload:     entry.Payload,
	}
}

// SLABreachedPayload is published by the background sweep.
type SLABreachedPayload struct {
	Severity     domain.Severity `json:"severity"`
	Status       domain.Status   `json:"status"`
	DepartmentID *string         `json:"department_id,omitempty"`
	HoursPending float64         `json:"hours_pending"`
	TargetHours  float64         `json:"target_hours"`
	Escalated    bool            `json:"escalated"`
}

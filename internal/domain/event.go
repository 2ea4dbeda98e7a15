package domain

import (
	"fmt"
	"time"
)

// EventType captures what kind of fact an event records.
type EventType string

const (
	EventCreated              EventType = "CREATED"
	EventStatusChanged        EventType = "STATUS_CHANGED"
	EventRouted               EventType = "ROUTED"
	EventOfficerAssigned      EventType = "OFFICER_ASSIGNED"
	EventDepartmentReassigned EventType = "DEPARTMENT_REASSIGNED"
)

// ActorType indicates who caused an event.
type ActorType string

const (
	ActorCitizen ActorType = "citizen"
	ActorOfficer ActorType = "officer"
	ActorAdmin   ActorType = "admin"
	ActorSystem  ActorType = "system"
)

// Valid reports whether t is a known actor type.
func (t ActorType) Valid() bool {
	switch t {
	case ActorCitizen, ActorOfficer, ActorAdmin, ActorSystem:
		return true
	}
	return false
}

// Actor identifies the caller of a mutating operation. A nil ID means the
// system acted on its own.
type Actor struct {
	ID   *string
	Type ActorType
}

// SystemActor is used for routing and other automatic steps.
var SystemActor = Actor{Type: ActorSystem}

// NewActor builds an actor for a known identity.
func NewActor(id string, t ActorType) Actor {
	return Actor{ID: &id, Type: t}
}

// Event is an immutable ledger entry. Sequence is the position in the global
// ledger and orders a grievance's events by commit order.
type Event struct {
	ID          string
	Sequence    int64
	GrievanceID string
	Type        EventType
	Payload     map[string]any
	ActorID     *string
	ActorType   ActorType
	CreatedAt   time.Time
}

// Payload keys shared by writers and the replay fold.
const (
	PayloadFromStatus = "from_status"
	PayloadToStatus   = "to_status"
	PayloadNotes      = "notes"
)

// NewEvent stamps actor details onto an event of the given type.
func NewEvent(grievanceID string, t EventType, payload map[string]any, actor Actor) *Event {
	if payload == nil {
		payload = map[string]any{}
	}
	actorType := actor.Type
	if actorType == "" {
		actorType = ActorSystem
	}
	return &Event{
		GrievanceID: grievanceID,
		Type:        t,
		Payload:     payload,
		ActorID:     actor.ID,
		ActorType:   actorType,
	}
}

// NewStatusChangedEvent records a single state machine edge.
func NewStatusChangedEvent(grievanceID string, from, to Status, notes string, actor Actor) *Event {
	return NewEvent(grievanceID, EventStatusChanged, map[string]any{
		PayloadFromStatus: string(from),
		PayloadToStatus:   string(to),
		PayloadNotes:      notes,
	}, actor)
}

// ReplayStatus folds STATUS_CHANGED events, oldest first, into the status
// they imply. It fails if the events describe an edge that does not start at
// the status reached so far or is not part of the state graph.
func ReplayStatus(events []Event) (Status, error) {
	current := InitialStatus
	for _, e := range events {
		if e.Type != EventStatusChanged {
			continue
		}
		from, _ := e.Payload[PayloadFromStatus].(string)
		to, _ := e.Payload[PayloadToStatus].(string)
		if Status(from) != current {
			return current, fmt.Errorf("event %d: from_status %q does not follow %q", e.Sequence, from, current)
		}
		if !CanTransition(current, Status(to)) {
			return current, fmt.Errorf("event %d: %s -> %s is not a permitted transition", e.Sequence, from, to)
		}
		current = Status(to)
	}
	return current, nil
}

package domain

import "strings"

// Status enumerates lifecycle states for grievances.
type Status string

const (
	StatusNew              Status = "NEW"
	StatusIntake           Status = "INTAKE"
	StatusApprovalPending  Status = "APPROVAL_PENDING"
	StatusApproved         Status = "APPROVED"
	StatusDispatched       Status = "DISPATCHED"
	StatusAcknowledged     Status = "ACKNOWLEDGED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusResolved         Status = "RESOLVED"
	StatusCitizenConfirmed Status = "CITIZEN_CONFIRMED"
	StatusReopened         Status = "REOPENED"
	StatusClosed           Status = "CLOSED"
	StatusRejected         Status = "REJECTED"
)

// Statuses lists every lifecycle state in lifecycle order.
var Statuses = []Status{
	StatusNew, StatusIntake, StatusApprovalPending, StatusApproved, StatusDispatched,
	StatusAcknowledged, StatusInProgress, StatusResolved, StatusCitizenConfirmed,
	StatusReopened, StatusClosed, StatusRejected,
}

// InitialStatus is assigned at creation, before any recorded transition.
const InitialStatus = StatusNew

// allowedTransitions is the complete state graph. A state absent from the map
// or mapped to an empty list has no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusNew:              {StatusIntake, StatusRejected},
	StatusIntake:           {StatusApprovalPending, StatusRejected},
	StatusApprovalPending:  {StatusApproved, StatusRejected},
	StatusApproved:         {StatusDispatched},
	StatusDispatched:       {StatusAcknowledged, StatusRejected},
	StatusAcknowledged:     {StatusInProgress},
	StatusInProgress:       {StatusResolved},
	StatusResolved:         {StatusCitizenConfirmed, StatusReopened},
	StatusCitizenConfirmed: {StatusClosed},
	StatusReopened:         {StatusIntake},
	StatusClosed:           {},
	StatusRejected:         {},
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// ParseStatus normalizes user input into a Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Successors returns a copy of the permitted next states of s.
func Successors(s Status) []Status {
	next := allowedTransitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an edge of the state graph.
func CanTransition(from, to Status) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TerminalStatuses are excluded from dedup candidates and SLA evaluation.
var TerminalStatuses = []Status{StatusClosed, StatusRejected}

// Action is the short verb vocabulary used by officers.
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionStart       Action = "start"
	ActionResolve     Action = "resolve"
	ActionReject      Action = "reject"
	ActionClose       Action = "close"
	ActionReopen      Action = "reopen"
)

// Actions lists the verbs in the order they are offered to officers.
var Actions = []Action{ActionAcknowledge, ActionStart, ActionResolve, ActionReject, ActionClose, ActionReopen}

// actionTargets aliases each verb onto a state of the graph above; the
// resulting move is still validated by CanTransition.
var actionTargets = map[Action]Status{
	ActionAcknowledge: StatusAcknowledged,
	ActionStart:       StatusInProgress,
	ActionResolve:     StatusResolved,
	ActionReject:      StatusRejected,
	ActionClose:       StatusClosed,
	ActionReopen:      StatusReopened,
}

// TargetStatus resolves an action verb to the status it requests.
func (a Action) TargetStatus() (Status, bool) {
	s, ok := actionTargets[Action(strings.ToLower(strings.TrimSpace(string(a))))]
	return s, ok
}

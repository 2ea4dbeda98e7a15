package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// LocationPayload is the optional location block of an intake.
type LocationPayload struct {
	Pincode  string   `json:"pincode"`
	District string   `json:"district"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// CreateGrievanceRequest payload.
type CreateGrievanceRequest struct {
	Phone       string          `json:"phone"`
	CitizenName string          `json:"citizen_name"`
	Language    string          `json:"language"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Severity    domain.Severity `json:"severity"`
	Location    LocationPayload `json:"location"`
	Tags        []string        `json:"tags"`
}

// TransitionRequest payload for PATCH /grievances/:id/status.
type TransitionRequest struct {
	Status domain.Status `json:"status"`
	Notes  string        `json:"notes"`
}

// ActionRequest payload for POST /grievances/:id/actions/:action.
type ActionRequest struct {
	Notes string `json:"notes"`
}

// AssignOfficerRequest payload.
type AssignOfficerRequest struct {
	OfficerID string `json:"officer_id"`
}

// ReassignDepartmentRequest payload.
type ReassignDepartmentRequest struct {
	DepartmentID string `json:"department_id"`
	Notes        string `json:"notes"`
}

// GrievanceResponse is the public view of a grievance.
type GrievanceResponse struct {
	ID                string          `json:"id"`
	TicketID          string          `json:"ticket_id"`
	CitizenID         string          `json:"citizen_id"`
	Summary           string          `json:"summary"`
	Description       string          `json:"description"`
	Language          string          `json:"language"`
	Category          domain.Category `json:"category"`
	Severity          domain.Severity `json:"severity"`
	Location          LocationPayload `json:"location"`
	Status            domain.Status   `json:"status"`
	DepartmentID      *string         `json:"department_id"`
	AssignedOfficerID *string         `json:"assigned_officer_id"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DuplicateResponse describes a likely duplicate found at intake.
type DuplicateResponse struct {
	GrievanceID string  `json:"grievance_id"`
	TicketID    string  `json:"ticket_id"`
	Similarity  float64 `json:"similarity"`
}

// RoutingResponse summarises where a grievance went.
type RoutingResponse struct {
	DepartmentID          string             `json:"department_id,omitempty"`
	DepartmentName        string             `json:"department_name,omitempty"`
	DepartmentCode        string             `json:"department_code,omitempty"`
	Reason                string             `json:"reason,omitempty"`
	Priority              int                `json:"priority"`
	ResponseTargetHours   float64            `json:"response_target_hours"`
	EscalationTargetHours float64            `json:"escalation_target_hours"`
	Duplicate             *DuplicateResponse `json:"duplicate,omitempty"`
}

// CreateGrievanceResponse is returned from intake.
type CreateGrievanceResponse struct {
	TicketID  string            `json:"ticket_id"`
	Grievance GrievanceResponse `json:"grievance"`
	Routing   *RoutingResponse  `json:"routing,omitempty"`
}

// EventResponse is one ledger entry.
type EventResponse struct {
	ID          string           `json:"id"`
	Sequence    int64            `json:"sequence"`
	GrievanceID string           `json:"grievance_id"`
	Type        domain.EventType `json:"type"`
	Payload     map[string]any   `json:"payload"`
	ActorID     *string          `json:"actor_id"`
	ActorType   domain.ActorType `json:"actor_type"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TransitionsResponse lists the statuses reachable next.
type TransitionsResponse struct {
	Status    domain.Status   `json:"status"`
	Available []domain.Status `json:"available"`
}

// ProjectionResponse reports whether cached status agrees with the ledger.
type ProjectionResponse struct {
	GrievanceID string        `json:"grievance_id"`
	Status      domain.Status `json:"status"`
	Replayed    domain.Status `json:"replayed"`
	EventCount  int           `json:"event_count"`
	Consistent  bool          `json:"consistent"`
	Problem     string        `json:"problem,omitempty"`
}

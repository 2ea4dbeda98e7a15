package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// SLAStatusResponse is the SLA view of one grievance.
type SLAStatusResponse struct {
	GrievanceID  string          `json:"grievance_id"`
	TicketID     string          `json:"ticket_id"`
	DepartmentID *string         `json:"department_id"`
	Severity     domain.Severity `json:"severity"`
	Status       domain.Status   `json:"status"`
	Priority     int             `json:"priority"`
	CreatedAt    time.Time       `json:"created_at"`
	DueAt        time.Time       `json:"due_at"`
	EscalateAt   time.Time       `json:"escalate_at"`
	HoursPending float64         `json:"hours_pending"`
	Breached     bool            `json:"breached"`
	Escalated    bool            `json:"escalated"`
}

// SeverityReportResponse counts one severity bucket.
type SeverityReportResponse struct {
	Open     int `json:"open"`
	Breached int `json:"breached"`
}

// SLAReportResponse summarises compliance across open grievances.
type SLAReportResponse struct {
	GeneratedAt       time.Time                                  `json:"generated_at"`
	OpenTotal         int                                        `json:"open_total"`
	BreachedTotal     int                                        `json:"breached_total"`
	EscalatedTotal    int                                        `json:"escalated_total"`
	CompliancePercent float64                                    `json:"compliance_percent"`
	BySeverity        map[domain.Severity]SeverityReportResponse `json:"by_severity"`
}

package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// SLAStatus is the on-read SLA evaluation of one grievance.
type SLAStatus struct {
	GrievanceID  string
	TicketID     string
	DepartmentID *string
	Severity     domain.Severity
	Status       domain.Status
	Rule         domain.SLARule
	CreatedAt    time.Time
	DueAt        time.Time
	EscalateAt   time.Time
	HoursPending float64
	Breached     bool
	Escalated    bool
}

// SeverityReport counts open and breached grievances for one severity.
type SeverityReport struct {
	Open     int
	Breached int
}

// SLAReport summarises compliance across all open grievances.
type SLAReport struct {
	GeneratedAt       time.Time
	OpenTotal         int
	BreachedTotal     int
	EscalatedTotal    int
	CompliancePercent float64
	BySeverity        map[domain.Severity]SeverityReport
}

// SLAService evaluates breach status. Nothing here writes: breach is a
// function of severity, creation time, status and the clock.
type SLAService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// SLADependencies bundles SLA service collaborators.
type SLADependencies struct {
	Store  repository.Store
	Logger *zap.Logger
	Clock  func() time.Time
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	s := &SLAService{store: deps.Store, logger: deps.Logger, now: deps.Clock}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Evaluate computes the SLA status of g at now.
func Evaluate(g domain.Grievance, now time.Time) SLAStatus {
	rule := domain.RuleFor(g.Severity)
	return SLAStatus{
		GrievanceID:  g.ID,
		TicketID:     g.TicketID,
		DepartmentID: g.DepartmentID,
		Severity:     g.Severity,
		Status:       g.Status,
		Rule:         rule,
		CreatedAt:    g.CreatedAt,
		DueAt:        g.CreatedAt.Add(rule.ResponseTarget),
		EscalateAt:   g.CreatedAt.Add(rule.EscalationTarget),
		HoursPending: roundTenth(now.Sub(g.CreatedAt).Hours()),
		Breached:     domain.Breached(g.Severity, g.CreatedAt, g.Status, now),
		Escalated:    domain.Escalation(g.Severity, g.CreatedAt, g.Status, now),
	}
}

// EvaluateSLA evaluates a single grievance.
func (s *SLAService) EvaluateSLA(ctx context.Context, grievanceID string) (*SLAStatus, error) {
	g, err := s.store.Repos().Grievances.GetByID(ctx, grievanceID)
	if err != nil {
		return nil, mapRepoError(err, "grievance", grievanceID)
	}
	status := Evaluate(*g, s.now())
	return &status, nil
}

// ListBreached returns every breached open grievance, longest pending first.
func (s *SLAService) ListBreached(ctx context.Context) ([]SLAStatus, error) {
	open, err := s.store.Repos().Grievances.ListOpen(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	var breached []SLAStatus
	for _, g := range open {
		if status := Evaluate(g, now); status.Breached {
			breached = append(breached, status)
		}
	}
	sort.SliceStable(breached, func(i, j int) bool {
		return breached[i].HoursPending > breached[j].HoursPending
	})
	return breached, nil
}

// Report summarises SLA compliance over the open set. With nothing open the
// compliance is 100%.
func (s *SLAService) Report(ctx context.Context) (*SLAReport, error) {
	open, err := s.store.Repos().Grievances.ListOpen(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	report := &SLAReport{
		GeneratedAt:       now,
		OpenTotal:         len(open),
		CompliancePercent: 100,
		BySeverity:        make(map[domain.Severity]SeverityReport),
	}
	for _, g := range open {
		status := Evaluate(g, now)
		bucket := report.BySeverity[g.Severity]
		bucket.Open++
		if status.Breached {
			bucket.Breached++
			report.BreachedTotal++
		}
		if status.Escalated {
			report.EscalatedTotal++
		}
		report.BySeverity[g.Severity] = bucket
	}
	if report.OpenTotal > 0 {
		compliant := float64(report.OpenTotal - report.BreachedTotal)
		report.CompliancePercent = roundTenth(compliant / float64(report.OpenTotal) * 100)
	}
	return report, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

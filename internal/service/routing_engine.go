package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// Routing reasons recorded on ROUTED events.
const (
	reasonCategoryPrefix = "routed based on category: "
	ReasonFallback       = "fallback routing"
)

// RoutingDecision is the department chosen for a grievance and why.
type RoutingDecision struct {
	Department *domain.Department
	Reason     string
	Rule       domain.SLARule
}

// RoutingEngine picks the department for a new grievance from its category,
// preferring one in the grievance's district.
type RoutingEngine struct {
	defaultDistrict string
}

// NewRoutingEngine builds an engine. defaultDistrict is used when a grievance
// only carries a pincode.
func NewRoutingEngine(defaultDistrict string) *RoutingEngine {
	return &RoutingEngine{defaultDistrict: strings.TrimSpace(defaultDistrict)}
}

// District returns the district routing should prefer for loc, or "" when the
// grievance carries no location.
func (e *RoutingEngine) District(loc domain.Location) string {
	if d := strings.TrimSpace(loc.District); d != "" {
		return d
	}
	if loc.HasData() {
		return e.defaultDistrict
	}
	return ""
}

// Resolve selects an active department. Severity only contributes the SLA
// rule; it never changes the department.
func (e *RoutingEngine) Resolve(ctx context.Context, departments repository.DepartmentRepository, g *domain.Grievance) (*RoutingDecision, error) {
	name := domain.DepartmentNameFor(g.Category)
	decision := &RoutingDecision{Rule: domain.RuleFor(g.Severity)}

	if district := e.District(g.Location); district != "" {
		dept, err := departments.FindActiveByName(ctx, name, district)
		switch {
		case err == nil:
			decision.Department = dept
			decision.Reason = reasonCategoryPrefix + string(g.Category)
			return decision, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}

		dept, err = departments.FindActiveByName(ctx, name, "")
		switch {
		case err == nil:
			decision.Department = dept
			decision.Reason = ReasonFallback
			return decision, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNoDepartmentAvailable(string(g.Category), name)
		default:
			return nil, err
		}
	}

	dept, err := departments.FindActiveByName(ctx, name, "")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNoDepartmentAvailable(string(g.Category), name)
		}
		return nil, err
	}
	decision.Department = dept
	decision.Reason = reasonCategoryPrefix + string(g.Category)
	return decision, nil
}

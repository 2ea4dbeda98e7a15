package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
	"github.com/spec-kit/grievance-service/pkg/util/ticketid"
)

// GrievanceService runs the grievance lifecycle: intake, routing, status
// transitions and assignment. Every mutation commits its entity change and
// ledger entries in one Store transaction and publishes them afterwards.
type GrievanceService struct {
	store          repository.Store
	routing        *RoutingEngine
	duplicates     *DuplicateDetector
	classifier     Classifier
	tickets        *ticketid.Generator
	ticketAttempts int
	ticketLoc      *time.Location
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// GrievanceDependencies bundles collaborators for the grievance service.
type GrievanceDependencies struct {
	Store            repository.Store
	Routing          *RoutingEngine
	Duplicates       *DuplicateDetector
	Classifier       Classifier
	TicketIDs        *ticketid.Generator
	TicketIDAttempts int
	// TicketLocation is the zone whose calendar date goes into ticket ids.
	TicketLocation *time.Location
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          func() time.Time
}

// CreateGrievanceInput is the intake payload.
type CreateGrievanceInput struct {
	Phone       string          `validate:"required,e164"`
	CitizenName string          `validate:"omitempty,max=120"`
	Language    string          `validate:"omitempty,oneof=mr hi en"`
	Summary     string          `validate:"required,min=10,max=500"`
	Description string          `validate:"required,min=20,max=2000"`
	Category    domain.Category `validate:"omitempty,oneof=water road electricity health sanitation women_child police revenue education other"`
	Severity    domain.Severity `validate:"omitempty,oneof=critical high medium low"`
	Pincode     string          `validate:"omitempty,len=6,numeric"`
	District    string          `validate:"omitempty,max=80"`
	Lat         *float64        `validate:"omitempty,gte=-90,lte=90"`
	Lng         *float64        `validate:"omitempty,gte=-180,lte=180"`
	Tags        []string        `validate:"omitempty,max=20,dive,required,max=50"`
}

// RoutingResult is the outcome of routing a grievance. Department is nil
// when no department could take it.
type RoutingResult struct {
	Department *domain.Department
	Reason     string
	Duplicate  *DuplicateMatch
	Rule       domain.SLARule
}

// CreateResult is returned by CreateGrievance.
type CreateResult struct {
	TicketID  string
	Grievance *domain.Grievance
	Routing   *RoutingResult
}

// ProjectionReport compares the cached status with the ledger replay.
type ProjectionReport struct {
	GrievanceID string
	Status      domain.Status
	Replayed    domain.Status
	EventCount  int
	Consistent  bool
	Problem     string
}

// NewGrievanceService constructs the service.
func NewGrievanceService(deps GrievanceDependencies) *GrievanceService {
	s := &GrievanceService{
		store:          deps.Store,
		routing:        deps.Routing,
		duplicates:     deps.Duplicates,
		classifier:     deps.Classifier,
		tickets:        deps.TicketIDs,
		ticketAttempts: deps.TicketIDAttempts,
		ticketLoc:      deps.TicketLocation,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		now:            deps.Clock,
	}
	if s.routing == nil {
		s.routing = NewRoutingEngine("")
	}
	if s.duplicates == nil {
		s.duplicates = NewDuplicateDetector(0, 0)
	}
	if s.tickets == nil {
		s.tickets = ticketid.NewGenerator()
	}
	if s.ticketAttempts <= 0 {
		s.ticketAttempts = 5
	}
	if s.ticketLoc == nil {
		s.ticketLoc = time.UTC
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// CreateGrievance records a new grievance in NEW and then routes it. When no
// department is available the returned error is NoDepartmentAvailable and
// the result still carries the unrouted grievance and duplicate screening.
func (s *GrievanceService) CreateGrievance(ctx context.Context, input CreateGrievanceInput) (*CreateResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	input = s.classify(ctx, normalizeIntake(input))

	var (
		g       *domain.Grievance
		created *domain.Event
	)
	var err error
	for attempt := 1; attempt <= s.ticketAttempts; attempt++ {
		g, created, err = s.insertGrievance(ctx, input)
		switch {
		case errors.Is(err, repository.ErrDuplicateTicketID):
			s.logger.Warn("ticket id collision; regenerating", zap.Int("attempt", attempt))
			continue
		case errors.Is(err, repository.ErrDuplicateCitizen):
			// Another intake registered this phone first; the retry reuses it.
			s.logger.Warn("citizen registered concurrently; retrying", zap.Int("attempt", attempt))
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTicketID) {
			return nil, apperrors.NewConflict("could not allocate a unique ticket id", map[string]any{"attempts": s.ticketAttempts})
		}
		if errors.Is(err, repository.ErrDuplicateCitizen) {
			return nil, apperrors.NewConflict("citizen registration kept conflicting", map[string]any{"attempts": s.ticketAttempts})
		}
		return nil, mapRepoError(err, "grievance", "")
	}
	s.publish(ctx, g.TicketID, created)
	s.logger.Info("grievance created",
		zap.String("grievance_id", g.ID),
		zap.String("ticket_id", g.TicketID),
		zap.String("category", string(g.Category)),
		zap.String("severity", string(g.Severity)))

	result := &CreateResult{TicketID: g.TicketID, Grievance: g}
	routed, routing, err := s.route(ctx, g.ID)
	result.Routing = routing
	if routed != nil {
		result.Grievance = routed
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *GrievanceService) insertGrievance(ctx context.Context, input CreateGrievanceInput) (*domain.Grievance, *domain.Event, error) {
	var (
		g       *domain.Grievance
		created *domain.Event
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		citizen, err := getOrCreateCitizen(ctx, repos.Citizens, input)
		if err != nil {
			return err
		}
		g = &domain.Grievance{
			TicketID:    s.tickets.Next(s.now().In(s.ticketLoc)),
			CitizenID:   citizen.ID,
			Summary:     input.Summary,
			Description: input.Description,
			Language:    input.Language,
			Category:    input.Category,
			Severity:    input.Severity,
			Location: domain.Location{
				Pincode:  input.Pincode,
				District: input.District,
				Lat:      input.Lat,
				Lng:      input.Lng,
			},
			Status: domain.InitialStatus,
		}
		if err := repos.Grievances.Create(ctx, g); err != nil {
			return err
		}
		payload := map[string]any{
			"ticket_id": g.TicketID,
			"category":  string(g.Category),
			"severity":  string(g.Severity),
			"summary":   g.Summary,
		}
		if len(input.Tags) > 0 {
			payload["tags"] = append([]string(nil), input.Tags...)
		}
		created = domain.NewEvent(g.ID, domain.EventCreated, payload, domain.NewActor(citizen.ID, domain.ActorCitizen))
		return repos.Events.Append(ctx, created)
	})
	return g, created, err
}

func getOrCreateCitizen(ctx context.Context, citizens repository.CitizenRepository, input CreateGrievanceInput) (*domain.Citizen, error) {
	citizen, err := citizens.GetByPhone(ctx, input.Phone)
	if err == nil {
		return citizen, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	citizen = &domain.Citizen{Phone: input.Phone, Name: input.CitizenName, Language: input.Language}
	if err := citizens.Create(ctx, citizen); err != nil {
		return nil, err
	}
	return citizen, nil
}

func normalizeIntake(input CreateGrievanceInput) CreateGrievanceInput {
	input.Summary = strings.TrimSpace(input.Summary)
	input.Description = strings.TrimSpace(input.Description)
	input.CitizenName = strings.TrimSpace(input.CitizenName)
	input.District = strings.TrimSpace(input.District)
	if input.Language == "" {
		input.Language = "mr"
	}
	input.Tags = normalizeTags(input.Tags)
	return input
}

// normalizeTags trims and lowercases tags, dropping blanks and repeats while
// keeping first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// classify fills category and severity from the classifier when the caller
// left the category out. Classifier failures degrade to "other".
func (s *GrievanceService) classify(ctx context.Context, input CreateGrievanceInput) CreateGrievanceInput {
	if input.Category == "" && s.classifier != nil {
		c, err := s.classifier.Classify(ctx, input.Summary+" "+input.Description)
		if err != nil {
			s.logger.Warn("classification failed", zap.Error(err))
		} else {
			if c.Category.Valid() {
				input.Category = c.Category
			}
			if input.Severity == "" && c.Severity.Valid() {
				input.Severity = c.Severity
			}
		}
	}
	if input.Category == "" {
		input.Category = domain.CategoryOther
	}
	if input.Severity == "" {
		input.Severity = domain.SeverityMedium
	}
	return input
}

// RouteGrievance retries routing for a grievance still in NEW, typically
// after an operator created the missing department.
func (s *GrievanceService) RouteGrievance(ctx context.Context, grievanceID string) (*domain.Grievance, *RoutingResult, error) {
	return s.route(ctx, grievanceID)
}

// route screens for duplicates, resolves the department and, in one
// transaction, assigns it, moves NEW to INTAKE and appends ROUTED.
func (s *GrievanceService) route(ctx context.Context, grievanceID string) (*domain.Grievance, *RoutingResult, error) {
	var (
		g        *domain.Grievance
		result   *RoutingResult
		ledger   []*domain.Event
		fromDesk domain.Status
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		g, err = repos.Grievances.GetByID(ctx, grievanceID)
		if err != nil {
			return err
		}
		if g.Status != domain.StatusNew {
			return apperrors.NewConflict("grievance already routed", map[string]any{
				"grievance_id": g.ID,
				"status":       string(g.Status),
			})
		}

		duplicate, err := s.duplicates.Screen(ctx, repos.Grievances, g, s.now())
		if err != nil {
			return err
		}
		result = &RoutingResult{Duplicate: duplicate, Rule: domain.RuleFor(g.Severity)}

		decision, err := s.routing.Resolve(ctx, repos.Departments, g)
		if err != nil {
			return err
		}
		result.Department = decision.Department
		result.Reason = decision.Reason

		if err := repos.Grievances.UpdateDepartment(ctx, g, decision.Department.ID); err != nil {
			return err
		}
		fromDesk = g.Status
		changed, err := applyTransition(ctx, repos, g, domain.StatusIntake, decision.Reason, domain.SystemActor)
		if err != nil {
			return err
		}
		routed := domain.NewEvent(g.ID, domain.EventRouted, routedPayload(decision, duplicate), domain.SystemActor)
		if err := repos.Events.Append(ctx, routed); err != nil {
			return err
		}
		ledger = []*domain.Event{changed, routed}
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNoDepartmentAvailable) {
			s.metrics.RecordRouting("no_department")
			s.logger.Warn("grievance left unrouted", zap.String("grievance_id", grievanceID), zap.Error(err))
			return g, result, err
		}
		return nil, nil, mapRepoError(err, "grievance", grievanceID)
	}

	outcome := "routed"
	if result.Reason == ReasonFallback {
		outcome = "fallback"
	}
	s.metrics.RecordRouting(outcome)
	s.metrics.RecordTransition(string(fromDesk), string(g.Status))
	s.publish(ctx, g.TicketID, ledger...)
	s.logger.Info("grievance routed",
		zap.String("grievance_id", g.ID),
		zap.String("department_id", result.Department.ID),
		zap.String("reason", result.Reason),
		zap.Bool("duplicate", result.Duplicate != nil))
	return g, result, nil
}

func routedPayload(decision *RoutingDecision, duplicate *DuplicateMatch) map[string]any {
	payload := map[string]any{
		"department_id":           decision.Department.ID,
		"department_name":         decision.Department.Name,
		"routing_reason":          decision.Reason,
		"priority":                decision.Rule.Priority,
		"response_target_hours":   decision.Rule.ResponseTarget.Hours(),
		"escalation_target_hours": decision.Rule.EscalationTarget.Hours(),
		"duplicate":               duplicate != nil,
	}
	if duplicate != nil {
		payload["duplicate_of"] = duplicate.TicketID
		payload["duplicate_grievance_id"] = duplicate.GrievanceID
		payload["similarity"] = duplicate.Similarity
	}
	return payload
}

// Transition moves a grievance to target if the state table allows it.
func (s *GrievanceService) Transition(ctx context.Context, grievanceID string, target domain.Status, notes string, actor domain.Actor) (*domain.Grievance, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(target)})
	}
	var (
		g       *domain.Grievance
		from    domain.Status
		changed *domain.Event
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		g, err = repos.Grievances.GetByID(ctx, grievanceID)
		if err != nil {
			return err
		}
		from = g.Status
		changed, err = applyTransition(ctx, repos, g, target, strings.TrimSpace(notes), actor)
		return err
	})
	if err != nil {
		return nil, mapRepoError(err, "grievance", grievanceID)
	}

	s.metrics.RecordTransition(string(from), string(target))
	s.publish(ctx, g.TicketID, changed)
	s.logger.Info("grievance status changed",
		zap.String("grievance_id", g.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_type", string(changed.ActorType)))
	return g, nil
}

// applyTransition is the single write path for status. It validates the edge,
// performs the version checked update and appends the STATUS_CHANGED entry.
func applyTransition(ctx context.Context, repos repository.Repositories, g *domain.Grievance, target domain.Status, notes string, actor domain.Actor) (*domain.Event, error) {
	from := g.Status
	if !domain.CanTransition(from, target) {
		return nil, apperrors.NewInvalidTransition(string(from), string(target))
	}
	if err := repos.Grievances.UpdateStatus(ctx, g, target); err != nil {
		return nil, err
	}
	event := domain.NewStatusChangedEvent(g.ID, from, target, notes, actor)
	if err := repos.Events.Append(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ApplyAction maps an officer verb onto Transition.
func (s *GrievanceService) ApplyAction(ctx context.Context, grievanceID, action, notes string, actor domain.Actor) (*domain.Grievance, error) {
	target, ok := domain.Action(action).TargetStatus()
	if !ok {
		return nil, apperrors.NewValidationError("unknown action", map[string]any{
			"action":    action,
			"supported": domain.Actions,
		})
	}
	return s.Transition(ctx, grievanceID, target, notes, actor)
}

// AvailableTransitions lists the statuses the grievance may move to next.
func (s *GrievanceService) AvailableTransitions(ctx context.Context, grievanceID string) ([]domain.Status, error) {
	g, err := s.GetGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	return domain.Successors(g.Status), nil
}

// AssignOfficer sets the working officer. Assignment is orthogonal to status
// but refused once the grievance is closed or rejected.
func (s *GrievanceService) AssignOfficer(ctx context.Context, grievanceID, officerID string, actor domain.Actor) (*domain.Grievance, error) {
	var (
		g        *domain.Grievance
		assigned *domain.Event
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		g, err = repos.Grievances.GetByID(ctx, grievanceID)
		if err != nil {
			return err
		}
		if g.Status.Terminal() {
			return apperrors.NewConflict("grievance is closed", map[string]any{
				"grievance_id": g.ID,
				"status":       string(g.Status),
			})
		}
		officer, err := repos.Officers.GetByID(ctx, officerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("officer", map[string]any{"officer_id": officerID})
			}
			return err
		}
		if !officer.Active {
			return apperrors.NewConflict("officer inactive", map[string]any{"officer_id": officerID})
		}

		payload := map[string]any{
			"officer_id":            officer.ID,
			"officer_name":          officer.Name,
			"officer_department_id": officer.DepartmentID,
		}
		if g.AssignedOfficerID != nil {
			payload["previous_officer_id"] = *g.AssignedOfficerID
		}
		if err := repos.Grievances.UpdateOfficer(ctx, g, officer.ID); err != nil {
			return err
		}
		assigned = domain.NewEvent(g.ID, domain.EventOfficerAssigned, payload, actor)
		return repos.Events.Append(ctx, assigned)
	})
	if err != nil {
		return nil, mapRepoError(err, "grievance", grievanceID)
	}
	s.publish(ctx, g.TicketID, assigned)
	s.logger.Info("officer assigned", zap.String("grievance_id", g.ID), zap.String("officer_id", officerID))
	return g, nil
}

// ReassignDepartment moves a grievance to another active department without
// going through routing or changing its status.
func (s *GrievanceService) ReassignDepartment(ctx context.Context, grievanceID, departmentID, notes string, actor domain.Actor) (*domain.Grievance, error) {
	var (
		g          *domain.Grievance
		reassigned *domain.Event
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		g, err = repos.Grievances.GetByID(ctx, grievanceID)
		if err != nil {
			return err
		}
		if g.Status.Terminal() {
			return apperrors.NewConflict("grievance is closed", map[string]any{
				"grievance_id": g.ID,
				"status":       string(g.Status),
			})
		}
		dept, err := repos.Departments.GetByID(ctx, departmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
			}
			return err
		}
		if !dept.Active {
			return apperrors.NewConflict("department inactive", map[string]any{"department_id": departmentID})
		}
		if g.DepartmentID != nil && *g.DepartmentID == dept.ID {
			return apperrors.NewConflict("grievance already with department", map[string]any{"department_id": departmentID})
		}

		payload := map[string]any{
			"to_department_id":   dept.ID,
			"to_department_name": dept.Name,
			domain.PayloadNotes:  strings.TrimSpace(notes),
		}
		if g.DepartmentID != nil {
			payload["from_department_id"] = *g.DepartmentID
		}
		if err := repos.Grievances.UpdateDepartment(ctx, g, dept.ID); err != nil {
			return err
		}
		reassigned = domain.NewEvent(g.ID, domain.EventDepartmentReassigned, payload, actor)
		return repos.Events.Append(ctx, reassigned)
	})
	if err != nil {
		return nil, mapRepoError(err, "grievance", grievanceID)
	}
	s.publish(ctx, g.TicketID, reassigned)
	s.logger.Info("department reassigned", zap.String("grievance_id", g.ID), zap.String("department_id", departmentID))
	return g, nil
}

// GetGrievance fetches a grievance by internal id.
func (s *GrievanceService) GetGrievance(ctx context.Context, grievanceID string) (*domain.Grievance, error) {
	g, err := s.store.Repos().Grievances.GetByID(ctx, grievanceID)
	if err != nil {
		return nil, mapRepoError(err, "grievance", grievanceID)
	}
	return g, nil
}

// GetByTicketID fetches a grievance by its public ticket id.
func (s *GrievanceService) GetByTicketID(ctx context.Context, ticketID string) (*domain.Grievance, error) {
	ticketID = strings.ToUpper(strings.TrimSpace(ticketID))
	if _, ok := ticketid.Parse(ticketID); !ok {
		return nil, apperrors.NewValidationError("malformed ticket id", map[string]any{"ticket_id": ticketID})
	}
	g, err := s.store.Repos().Grievances.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"ticket_id": ticketID})
		}
		return nil, mapRepoError(err, "grievance", ticketID)
	}
	return g, nil
}

// ListGrievances returns grievances matching filter, newest first.
func (s *GrievanceService) ListGrievances(ctx context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
		}
	}
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": string(*filter.Category)})
	}
	if filter.Severity != nil && !filter.Severity.Valid() {
		return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": string(*filter.Severity)})
	}
	list, err := s.store.Repos().Grievances.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// ListEvents returns a grievance's ledger, oldest first.
func (s *GrievanceService) ListEvents(ctx context.Context, grievanceID string) ([]domain.Event, error) {
	repos := s.store.Repos()
	if _, err := repos.Grievances.GetByID(ctx, grievanceID); err != nil {
		return nil, mapRepoError(err, "grievance", grievanceID)
	}
	list, err := repos.Events.ListByGrievance(ctx, grievanceID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// ListEventsByType returns the most recent ledger entries of one type across
// all grievances, newest first.
func (s *GrievanceService) ListEventsByType(ctx context.Context, eventType domain.EventType, limit int) ([]domain.Event, error) {
	switch eventType {
	case domain.EventCreated, domain.EventStatusChanged, domain.EventRouted,
		domain.EventOfficerAssigned, domain.EventDepartmentReassigned:
	default:
		return nil, apperrors.NewValidationError("unknown event type", map[string]any{"type": string(eventType)})
	}
	list, err := s.store.Repos().Events.ListByType(ctx, eventType, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// VerifyProjection replays the ledger and compares it with the stored status.
func (s *GrievanceService) VerifyProjection(ctx context.Context, grievanceID string) (*ProjectionReport, error) {
	g, err := s.GetGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.Repos().Events.ListByGrievance(ctx, grievanceID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	report := &ProjectionReport{GrievanceID: g.ID, Status: g.Status, EventCount: len(list)}
	replayed, err := domain.ReplayStatus(list)
	report.Replayed = replayed
	if err != nil {
		report.Problem = err.Error()
	}
	report.Consistent = err == nil && replayed == g.Status
	if !report.Consistent {
		s.logger.Error("projection mismatch",
			zap.String("grievance_id", g.ID),
			zap.String("status", string(g.Status)),
			zap.String("replayed", string(replayed)),
			zap.String("problem", report.Problem))
	}
	return report, nil
}

func (s *GrievanceService) publish(ctx context.Context, ticketID string, ledger ...*domain.Event) {
	if s.dispatcher == nil {
		return
	}
	for _, entry := range ledger {
		if entry == nil {
			continue
		}
		_ = s.dispatcher.Publish(ctx, events.FromLedger(ticketID, *entry))
	}
}

// mapRepoError translates repository sentinels into domain errors. Domain
// errors pass through unchanged.
func mapRepoError(err error, resource, id string) error {
	var domainErr *apperrors.DomainError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConcurrentModification(resource, id)
	default:
		return apperrors.NewInternalError(err)
	}
}

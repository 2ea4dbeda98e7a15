package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
	"github.com/spec-kit/grievance-service/pkg/util/ticketid"
)

func TestCreateGrievanceRoutesToDistrictDepartment(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	nashik := env.department("Water Resources", "Nashik")
	ctx := context.Background()

	res, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryWater, "Nashik"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TicketID != "JD-MH-20260210-001" {
		t.Fatalf("unexpected ticket id %s", res.TicketID)
	}
	if res.Routing.Department.ID != nashik.ID || res.Routing.Reason != "routed based on category: water" {
		t.Fatalf("unexpected routing %+v", res.Routing)
	}
	if res.Routing.Rule.Severity != domain.SeverityHigh || res.Routing.Duplicate != nil {
		t.Fatalf("unexpected routing metadata %+v", res.Routing)
	}
	g := res.Grievance
	if g.Status != domain.StatusIntake || g.DepartmentID == nil || *g.DepartmentID != nashik.ID {
		t.Fatalf("unexpected grievance %+v", g)
	}

	list, err := env.grievances.ListEvents(ctx, g.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	wantTypes := []domain.EventType{domain.EventCreated, domain.EventStatusChanged, domain.EventRouted}
	if len(list) != len(wantTypes) {
		t.Fatalf("expected %d events, got %+v", len(wantTypes), list)
	}
	for i, want := range wantTypes {
		if list[i].Type != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, list[i].Type)
		}
		if i > 0 && list[i].Sequence <= list[i-1].Sequence {
			t.Fatalf("events out of order: %+v", list)
		}
	}
	if list[0].ActorType != domain.ActorCitizen || list[1].ActorType != domain.ActorSystem || list[1].ActorID != nil {
		t.Fatalf("unexpected actors %+v", list)
	}
	routed := list[2].Payload
	if routed["department_id"] != nashik.ID || routed["priority"] != 2 || routed["response_target_hours"] != 24.0 {
		t.Fatalf("unexpected routed payload %+v", routed)
	}
}

func TestCreateGrievanceFallbackRouting(t *testing.T) {
	env := newTestEnv(t)
	pune := env.department("Water Resources", "Pune")

	res, err := env.grievances.CreateGrievance(context.Background(), intake(phone(1), domain.CategoryWater, "Satara"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Routing.Department.ID != pune.ID || res.Routing.Reason != ReasonFallback {
		t.Fatalf("expected fallback routing, got %+v", res.Routing)
	}
	if env.metrics.Snapshot().RoutingOutcomes["fallback"] != 1 {
		t.Fatalf("fallback not counted")
	}
}

func TestCreateGrievancePincodeUsesDefaultDistrict(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Nashik")
	pune := env.department("Water Resources", "Pune")

	input := intake(phone(1), domain.CategoryWater, "")
	input.Pincode = "411001"
	res, err := env.grievances.CreateGrievance(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Routing.Department.ID != pune.ID || res.Routing.Reason != "routed based on category: water" {
		t.Fatalf("expected default district routing, got %+v", res.Routing)
	}
}

func TestCreateGrievanceWithoutDepartmentStaysUnrouted(t *testing.T) {
	env := newTestEnv(t)
	env.department("Health", "Pune")
	ctx := context.Background()

	res, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryRoad, "Pune"))
	if !errors.Is(err, apperrors.ErrNoDepartmentAvailable) {
		t.Fatalf("expected NoDepartmentAvailable, got %v", err)
	}
	if res == nil || res.Grievance == nil || res.TicketID == "" {
		t.Fatalf("expected unrouted grievance in result, got %+v", res)
	}
	if res.Grievance.Status != domain.StatusNew || res.Grievance.DepartmentID != nil {
		t.Fatalf("grievance must stay unrouted, got %+v", res.Grievance)
	}
	list, _ := env.grievances.ListEvents(ctx, res.Grievance.ID)
	if len(list) != 1 || list[0].Type != domain.EventCreated {
		t.Fatalf("unrouted grievance should only have CREATED, got %+v", list)
	}

	works := env.department("Public Works", "Pune")
	g, routing, err := env.grievances.RouteGrievance(ctx, res.Grievance.ID)
	if err != nil {
		t.Fatalf("reroute: %v", err)
	}
	if g.Status != domain.StatusIntake || routing.Department.ID != works.ID {
		t.Fatalf("unexpected reroute %+v %+v", g, routing)
	}
	if _, _, err := env.grievances.RouteGrievance(ctx, res.Grievance.ID); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict on second route, got %v", err)
	}
}

func TestCreateGrievanceDeactivatedDepartmentIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dept := env.department("Water Resources", "Pune")
	inactive := false
	if _, err := env.directory.UpdateDepartment(ctx, admin, dept.ID, DepartmentInput{Name: dept.Name, District: dept.District, Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryWater, "Pune"))
	if !errors.Is(err, apperrors.ErrNoDepartmentAvailable) {
		t.Fatalf("inactive department must not be a routing target, got %v", err)
	}
}

func TestCreateGrievanceValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := map[string]struct {
		mutate func(*CreateGrievanceInput)
		field  string
	}{
		"bad phone":     {func(in *CreateGrievanceInput) { in.Phone = "98123" }, "phone"},
		"short summary": {func(in *CreateGrievanceInput) { in.Summary = "water" }, "summary"},
		"bad category":  {func(in *CreateGrievanceInput) { in.Category = "weather" }, "category"},
		"bad severity":  {func(in *CreateGrievanceInput) { in.Severity = "urgent" }, "severity"},
		"bad pincode":   {func(in *CreateGrievanceInput) { in.Pincode = "41100" }, "pincode"},
		"bad language":  {func(in *CreateGrievanceInput) { in.Language = "fr" }, "language"},
		"too many tags": {func(in *CreateGrievanceInput) { in.Tags = make([]string, 21); fillTags(in.Tags) }, "tags"},
		"long tag":      {func(in *CreateGrievanceInput) { in.Tags = []string{strings.Repeat("x", 51)} }, "tags[0]"},
		"blank tag":     {func(in *CreateGrievanceInput) { in.Tags = []string{"water", ""} }, "tags[1]"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			input := intake(phone(1), domain.CategoryWater, "Pune")
			tc.mutate(&input)
			_, err := env.grievances.CreateGrievance(context.Background(), input)
			domainErr := apperrors.ToDomainError(err)
			if domainErr == nil || domainErr.Code != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := domainErr.Details[tc.field]; !ok {
				t.Fatalf("expected %s in details, got %+v", tc.field, domainErr.Details)
			}
		})
	}
	if env.store.EventCount() != 0 {
		t.Fatalf("validation failures must not write")
	}
}

func fillTags(tags []string) {
	for i := range tags {
		tags[i] = fmt.Sprintf("tag-%d", i)
	}
}

func TestCreateGrievanceCarriesNormalizedTags(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "trimmed lowercased deduped", tags: []string{" Water ", "ward-12", "WATER", "  "}, want: []string{"water", "ward-12"}},
		{name: "twenty tags at the limit", tags: make([]string, 20), want: nil},
		{name: "no tags", tags: nil, want: nil},
	}
	tests[1].want = make([]string, 20)
	fillTags(tests[1].tags)
	fillTags(tests[1].want)

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := intake(phone(100+i), domain.CategoryWater, "Pune")
			input.Tags = tc.tags
			res, err := env.grievances.CreateGrievance(ctx, input)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			list, err := env.grievances.ListEvents(ctx, res.Grievance.ID)
			if err != nil || len(list) == 0 || list[0].Type != domain.EventCreated {
				t.Fatalf("expected CREATED first, got %+v %v", list, err)
			}
			got, present := list[0].Payload["tags"]
			if tc.want == nil {
				if present {
					t.Fatalf("expected no tags in payload, got %v", got)
				}
				return
			}
			tags, ok := got.([]string)
			if !ok || !reflect.DeepEqual(tags, tc.want) {
				t.Fatalf("expected tags %v, got %#v", tc.want, got)
			}
		})
	}
}

func TestCreateGrievanceTicketDateUsesConfiguredZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		name     string
		location *time.Location
		want     string
	}{
		{name: "utc by default", want: "JD-MH-20260209-001"},
		{name: "india crosses midnight", location: ist, want: "JD-MH-20260210-001"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(deps *GrievanceDependencies) {
				deps.TicketLocation = tc.location
			})
			env.clock.now = time.Date(2026, 2, 9, 19, 0, 0, 0, time.UTC)
			env.department("Water Resources", "Pune")
			res, err := env.grievances.CreateGrievance(context.Background(), intake(phone(1), domain.CategoryWater, "Pune"))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if res.TicketID != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, res.TicketID)
			}
			if !res.Grievance.CreatedAt.Equal(env.clock.Now()) {
				t.Fatalf("created_at must keep the instant, got %v", res.Grievance.CreatedAt)
			}
		})
	}
}

func TestCreateGrievanceUsesClassifierWhenCategoryMissing(t *testing.T) {
	var seen string
	env := newTestEnv(t, func(deps *GrievanceDependencies) {
		deps.Classifier = ClassifierFunc(func(_ context.Context, text string) (Classification, error) {
			seen = text
			return Classification{Category: domain.CategoryElectricity, Severity: domain.SeverityCritical}, nil
		})
	})
	dept := env.department("Electricity", "Pune")

	input := intake(phone(1), "", "Pune")
	input.Severity = ""
	res, err := env.grievances.CreateGrievance(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" || res.Grievance.Category != domain.CategoryElectricity || res.Grievance.Severity != domain.SeverityCritical {
		t.Fatalf("classifier output not applied: %+v", res.Grievance)
	}
	if res.Routing.Department.ID != dept.ID {
		t.Fatalf("expected electricity routing, got %+v", res.Routing)
	}
}

func TestCreateGrievanceFlagsDuplicatesPerCitizen(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()

	first, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryWater, "Pune"))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryWater, "Pune"))
	if err != nil {
		t.Fatalf("duplicates must not block creation: %v", err)
	}
	dup := second.Routing.Duplicate
	if dup == nil || dup.TicketID != first.TicketID || dup.Similarity != 1.0 {
		t.Fatalf("expected duplicate of %s, got %+v", first.TicketID, dup)
	}
	if second.Grievance.CitizenID != first.Grievance.CitizenID {
		t.Fatalf("citizen should be reused by phone")
	}
	list, _ := env.grievances.ListEvents(ctx, second.Grievance.ID)
	routed := list[len(list)-1]
	if routed.Type != domain.EventRouted || routed.Payload["duplicate_of"] != first.TicketID {
		t.Fatalf("duplicate metadata missing from ROUTED: %+v", routed.Payload)
	}

	other, err := env.grievances.CreateGrievance(ctx, intake(phone(2), domain.CategoryWater, "Pune"))
	if err != nil {
		t.Fatalf("other citizen: %v", err)
	}
	if other.Routing.Duplicate != nil {
		t.Fatalf("identical text from another citizen must not be flagged")
	}
}

func TestCreateGrievanceRetriesTicketCollision(t *testing.T) {
	env := newTestEnv(t, func(deps *GrievanceDependencies) {
		deps.TicketIDs = ticketid.NewSequenceGenerator(7, 7, 8)
	})
	env.department("Water Resources", "Pune")
	ctx := context.Background()

	first, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryWater, "Pune"))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := env.grievances.CreateGrievance(ctx, intake(phone(2), domain.CategoryWater, "Pune"))
	if err != nil {
		t.Fatalf("collision should be retried: %v", err)
	}
	if first.TicketID != "JD-MH-20260210-007" || second.TicketID != "JD-MH-20260210-008" {
		t.Fatalf("unexpected ticket ids %s %s", first.TicketID, second.TicketID)
	}
}

func TestCreateGrievanceGivesUpAfterTicketAttempts(t *testing.T) {
	env := newTestEnv(t, func(deps *GrievanceDependencies) {
		deps.TicketIDs = ticketid.NewSequenceGenerator(7)
		deps.TicketIDAttempts = 2
	})
	env.department("Water Resources", "Pune")
	ctx := context.Background()

	if _, err := env.grievances.CreateGrievance(ctx, intake(phone(1), domain.CategoryWater, "Pune")); err != nil {
		t.Fatalf("first: %v", err)
	}
	before := env.store.EventCount()
	_, err := env.grievances.CreateGrievance(ctx, intake(phone(2), domain.CategoryWater, "Pune"))
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict after exhausting attempts, got %v", err)
	}
	if env.store.EventCount() != before {
		t.Fatalf("failed creation must not write events")
	}
}

func TestTransitionFollowsTableExhaustively(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()
	n := 0

	for _, from := range domain.Statuses {
		for _, target := range domain.Statuses {
			n++
			var g *domain.Grievance
			if from == domain.StatusNew {
				res, err := env.grievances.CreateGrievance(ctx, intake(phone(n), domain.CategoryHealth, "Pune"))
				if !errors.Is(err, apperrors.ErrNoDepartmentAvailable) {
					t.Fatalf("expected unrouted grievance, got %v", err)
				}
				g = res.Grievance
			} else {
				g = env.drive(env.routed(phone(n)), from)
			}
			before, _ := env.grievances.ListEvents(ctx, g.ID)

			got, err := env.grievances.Transition(ctx, g.ID, target, "table walk", officer)
			after, _ := env.grievances.ListEvents(ctx, g.ID)

			if domain.CanTransition(from, target) {
				if err != nil {
					t.Fatalf("%s -> %s should succeed: %v", from, target, err)
				}
				if got.Status != target {
					t.Fatalf("%s -> %s left status %s", from, target, got.Status)
				}
				if len(after) != len(before)+1 {
					t.Fatalf("%s -> %s should add exactly one event", from, target)
				}
				last := after[len(after)-1]
				if last.Type != domain.EventStatusChanged ||
					last.Payload[domain.PayloadFromStatus] != string(from) ||
					last.Payload[domain.PayloadToStatus] != string(target) ||
					last.Payload[domain.PayloadNotes] != "table walk" {
					t.Fatalf("%s -> %s recorded %+v", from, target, last)
				}
			} else {
				if !errors.Is(err, apperrors.ErrInvalidTransition) {
					t.Fatalf("%s -> %s should be invalid, got %v", from, target, err)
				}
				details := apperrors.ToDomainError(err).Details
				if details["from"] != string(from) || details["to"] != string(target) {
					t.Fatalf("invalid transition details %+v", details)
				}
				if len(after) != len(before) {
					t.Fatalf("%s -> %s must not write", from, target)
				}
				current, _ := env.grievances.GetGrievance(ctx, g.ID)
				if current.Status != from {
					t.Fatalf("%s -> %s mutated status to %s", from, target, current.Status)
				}
			}

			report, err := env.grievances.VerifyProjection(ctx, g.ID)
			if err != nil || !report.Consistent {
				t.Fatalf("projection inconsistent after %s -> %s: %+v %v", from, target, report, err)
			}
		}
	}
}

func TestTerminalStatusesRejectEveryTarget(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()

	closed := env.drive(env.routed(phone(1)), domain.StatusClosed)
	rejected := env.drive(env.routed(phone(2)), domain.StatusRejected)
	for _, g := range []*domain.Grievance{closed, rejected} {
		for _, target := range domain.Statuses {
			if _, err := env.grievances.Transition(ctx, g.ID, target, "", admin); !errors.Is(err, apperrors.ErrInvalidTransition) {
				t.Fatalf("%s -> %s: expected InvalidTransition, got %v", g.Status, target, err)
			}
		}
	}
}

func TestTransitionUnknownInputs(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()
	g := env.routed(phone(1))

	if _, err := env.grievances.Transition(ctx, g.ID, "ESCALATED", "", admin); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := env.grievances.Transition(ctx, "missing", domain.StatusRejected, "", admin); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.grievances.ListEvents(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for events, got %v", err)
	}
}

func TestApplyActionGoesThroughTable(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()
	g := env.routed(phone(1))

	if _, err := env.grievances.ApplyAction(ctx, g.ID, "start", "", officer); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("start from INTAKE must be rejected, got %v", err)
	}
	if _, err := env.grievances.ApplyAction(ctx, g.ID, "escalate", "", officer); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("unknown action must be a validation error, got %v", err)
	}

	g = env.drive(g, domain.StatusDispatched)
	steps := []struct {
		action string
		want   domain.Status
	}{
		{"acknowledge", domain.StatusAcknowledged},
		{"START", domain.StatusInProgress},
		{"resolve", domain.StatusResolved},
		{"reopen", domain.StatusReopened},
	}
	for _, step := range steps {
		got, err := env.grievances.ApplyAction(ctx, g.ID, step.action, "field visit", officer)
		if err != nil {
			t.Fatalf("%s: %v", step.action, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: expected %s, got %s", step.action, step.want, got.Status)
		}
	}

	next, err := env.grievances.AvailableTransitions(ctx, g.ID)
	if err != nil || len(next) != 1 || next[0] != domain.StatusIntake {
		t.Fatalf("unexpected available transitions %v %v", next, err)
	}
}

func TestAssignOfficer(t *testing.T) {
	env := newTestEnv(t)
	dept := env.department("Water Resources", "Pune")
	ctx := context.Background()
	o := env.officer(dept.ID)
	g := env.routed(phone(1))

	got, err := env.grievances.AssignOfficer(ctx, g.ID, o.ID, admin)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.AssignedOfficerID == nil || *got.AssignedOfficerID != o.ID || got.Status != domain.StatusIntake {
		t.Fatalf("assignment must not touch status: %+v", got)
	}
	list, _ := env.grievances.ListEvents(ctx, g.ID)
	last := list[len(list)-1]
	if last.Type != domain.EventOfficerAssigned || last.Payload["officer_id"] != o.ID || *last.ActorID != "admin-1" {
		t.Fatalf("unexpected assignment event %+v", last)
	}

	if _, err := env.grievances.AssignOfficer(ctx, g.ID, "missing", admin); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown officer, got %v", err)
	}

	inactive := false
	if _, err := env.directory.UpdateOfficer(ctx, admin, o.ID, OfficerInput{Name: o.Name, DepartmentID: dept.ID, Active: &inactive}); err != nil {
		t.Fatalf("deactivate officer: %v", err)
	}
	if _, err := env.grievances.AssignOfficer(ctx, g.ID, o.ID, admin); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict for inactive officer, got %v", err)
	}

	active := env.officer(dept.ID)
	closed := env.drive(env.routed(phone(2)), domain.StatusRejected)
	if _, err := env.grievances.AssignOfficer(ctx, closed.ID, active.ID, admin); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict for terminal grievance, got %v", err)
	}
}

func TestReassignDepartment(t *testing.T) {
	env := newTestEnv(t)
	water := env.department("Water Resources", "Pune")
	health := env.department("Health", "Pune")
	ctx := context.Background()
	g := env.routed(phone(1))

	got, err := env.grievances.ReassignDepartment(ctx, g.ID, health.ID, "wrong desk", admin)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if *got.DepartmentID != health.ID || got.Status != domain.StatusIntake {
		t.Fatalf("unexpected grievance %+v", got)
	}
	list, _ := env.grievances.ListEvents(ctx, g.ID)
	last := list[len(list)-1]
	if last.Type != domain.EventDepartmentReassigned || last.Payload["from_department_id"] != water.ID {
		t.Fatalf("unexpected reassignment event %+v", last)
	}
	if _, err := env.grievances.ReassignDepartment(ctx, g.ID, health.ID, "", admin); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict for same department, got %v", err)
	}
	if _, err := env.grievances.ReassignDepartment(ctx, g.ID, "missing", "", admin); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListEventsByTypeAndLookup(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()
	g := env.routed(phone(1))
	env.routed(phone(2))

	routed, err := env.grievances.ListEventsByType(ctx, domain.EventRouted, 10)
	if err != nil || len(routed) != 2 || routed[0].Sequence < routed[1].Sequence {
		t.Fatalf("unexpected routed feed %+v %v", routed, err)
	}
	if _, err := env.grievances.ListEventsByType(ctx, "DELETED", 10); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	byTicket, err := env.grievances.GetByTicketID(ctx, " "+g.TicketID+" ")
	if err != nil || byTicket.ID != g.ID {
		t.Fatalf("unexpected ticket lookup %+v %v", byTicket, err)
	}
	if _, err := env.grievances.GetByTicketID(ctx, "TICKET-1"); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected malformed ticket id error, got %v", err)
	}
	if _, err := env.grievances.GetByTicketID(ctx, "JD-MH-20260210-999"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	intakeStatus := []domain.Status{domain.StatusIntake}
	list, err := env.grievances.ListGrievances(ctx, repository.GrievanceFilter{Statuses: intakeStatus})
	if err != nil || len(list) != 2 {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	if _, err := env.grievances.ListGrievances(ctx, repository.GrievanceFilter{Statuses: []domain.Status{"OPEN"}}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

// barrierStore holds every transaction at its first grievance read until
// all parties have read, forcing them to observe the same version.
type barrierStore struct {
	repository.Store
	wg *sync.WaitGroup
}

func (b barrierStore) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return b.Store.InTx(ctx, func(repos repository.Repositories) error {
		repos.Grievances = barrierGrievances{GrievanceRepository: repos.Grievances, wg: b.wg}
		return fn(repos)
	})
}

type barrierGrievances struct {
	repository.GrievanceRepository
	wg *sync.WaitGroup
}

func (b barrierGrievances) GetByID(ctx context.Context, id string) (*domain.Grievance, error) {
	g, err := b.GrievanceRepository.GetByID(ctx, id)
	b.wg.Done()
	b.wg.Wait()
	return g, err
}

// phoneBarrierStore holds the first parties' citizen lookups until all of
// them have looked, so each one sees the phone as unregistered.
type phoneBarrierStore struct {
	repository.Store
	wg      *sync.WaitGroup
	parties int32
	calls   *atomic.Int32
}

func (b phoneBarrierStore) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return b.Store.InTx(ctx, func(repos repository.Repositories) error {
		repos.Citizens = phoneBarrierCitizens{CitizenRepository: repos.Citizens, store: b}
		return fn(repos)
	})
}

type phoneBarrierCitizens struct {
	repository.CitizenRepository
	store phoneBarrierStore
}

func (b phoneBarrierCitizens) GetByPhone(ctx context.Context, phone string) (*domain.Citizen, error) {
	citizen, err := b.CitizenRepository.GetByPhone(ctx, phone)
	if b.store.calls.Add(1) <= b.store.parties {
		b.store.wg.Done()
		b.store.wg.Wait()
	}
	return citizen, err
}

func TestConcurrentIntakeSamePhoneSharesCitizen(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()

	const parties = 2
	var barrier sync.WaitGroup
	barrier.Add(parties)
	racing := NewGrievanceService(GrievanceDependencies{
		Store:     phoneBarrierStore{Store: env.store, wg: &barrier, parties: parties, calls: new(atomic.Int32)},
		Routing:   NewRoutingEngine("Pune"),
		TicketIDs: ticketid.NewGenerator(),
		Clock:     env.clock.Now,
	})

	results := make([]*CreateResult, parties)
	errs := make([]error, parties)
	var done sync.WaitGroup
	for i := 0; i < parties; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			results[i], errs[i] = racing.CreateGrievance(ctx, intake(phone(7), domain.CategoryWater, "Pune"))
		}(i)
	}
	done.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("intake %d: expected success after retry, got %v", i, err)
		}
	}
	if results[0].Grievance.CitizenID != results[1].Grievance.CitizenID {
		t.Fatalf("expected one citizen, got %s and %s", results[0].Grievance.CitizenID, results[1].Grievance.CitizenID)
	}
	if results[0].TicketID == results[1].TicketID {
		t.Fatalf("expected distinct tickets, got %s twice", results[0].TicketID)
	}
}

func TestConcurrentTransitionsOneWins(t *testing.T) {
	env := newTestEnv(t)
	env.department("Water Resources", "Pune")
	ctx := context.Background()
	g := env.drive(env.routed(phone(1)), domain.StatusApprovalPending)

	var barrier sync.WaitGroup
	barrier.Add(2)
	racing := NewGrievanceService(GrievanceDependencies{
		Store: barrierStore{Store: env.store, wg: &barrier},
		Clock: env.clock.Now,
	})

	targets := []domain.Status{domain.StatusApproved, domain.StatusRejected}
	errs := make([]error, len(targets))
	var done sync.WaitGroup
	for i, target := range targets {
		done.Add(1)
		go func(i int, target domain.Status) {
			defer done.Done()
			_, errs[i] = racing.Transition(ctx, g.ID, target, "race", admin)
		}(i, target)
	}
	done.Wait()

	var winner domain.Status
	successes, conflicts := 0, 0
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
			winner = targets[i]
		case errors.Is(err, apperrors.ErrConcurrentModification):
			conflicts++
			if !apperrors.ToDomainError(err).Retryable() {
				t.Fatalf("concurrent modification should be retryable")
			}
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected one winner and one conflict, got %d/%d", successes, conflicts)
	}

	current, _ := env.grievances.GetGrievance(ctx, g.ID)
	if current.Status != winner {
		t.Fatalf("expected status %s, got %s", winner, current.Status)
	}
	list, _ := env.grievances.ListEvents(ctx, g.ID)
	fromPending := 0
	for _, e := range list {
		if e.Type == domain.EventStatusChanged && e.Payload[domain.PayloadFromStatus] == string(domain.StatusApprovalPending) {
			fromPending++
		}
	}
	if fromPending != 1 {
		t.Fatalf("expected exactly one transition out of APPROVAL_PENDING, got %d", fromPending)
	}
	report, _ := env.grievances.VerifyProjection(ctx, g.ID)
	if !report.Consistent {
		t.Fatalf("projection inconsistent after race: %+v", report)
	}
}

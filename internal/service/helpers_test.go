package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository/memstore"
	"github.com/spec-kit/grievance-service/pkg/util/ticketid"
)

var (
	admin   = domain.NewActor("admin-1", domain.ActorAdmin)
	officer = domain.NewActor("officer-1", domain.ActorOfficer)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	t          *testing.T
	clock      *testClock
	store      *memstore.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	grievances *GrievanceService
	sla        *SLAService
	directory  *DirectoryService
	analytics  *AnalyticsService
}

func sequentialSuffixes() []int {
	out := make([]int, 1000)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func newTestEnv(t *testing.T, customize ...func(*GrievanceDependencies)) *testEnv {
	t.Helper()
	clock := newTestClock()
	store := memstore.New(memstore.WithClock(clock.Now))
	env := &testEnv{
		t:          t,
		clock:      clock,
		store:      store,
		dispatcher: events.NewInMemoryDispatcher(nil),
		metrics:    observability.NewMetrics(),
	}
	deps := GrievanceDependencies{
		Store:            store,
		Routing:          NewRoutingEngine("Pune"),
		Duplicates:       NewDuplicateDetector(0.8, 30*24*time.Hour),
		TicketIDs:        ticketid.NewSequenceGenerator(sequentialSuffixes()...),
		TicketIDAttempts: 5,
		Dispatcher:       env.dispatcher,
		Metrics:          env.metrics,
		Clock:            clock.Now,
	}
	for _, fn := range customize {
		fn(&deps)
	}
	env.grievances = NewGrievanceService(deps)
	env.sla = NewSLAService(SLADependencies{Store: store, Clock: clock.Now})
	env.directory = NewDirectoryService(store, nil)
	env.analytics = NewAnalyticsService(AnalyticsDependencies{Store: store, Clock: clock.Now})
	return env
}

func (e *testEnv) department(name, district string) *domain.Department {
	e.t.Helper()
	dept, err := e.directory.CreateDepartment(context.Background(), admin, DepartmentInput{
		Name:            name,
		District:        district,
		ContactWhatsApp: "+912020000000",
	})
	if err != nil {
		e.t.Fatalf("create department: %v", err)
	}
	return dept
}

func (e *testEnv) officer(deptID string) *domain.Officer {
	e.t.Helper()
	o, err := e.directory.CreateOfficer(context.Background(), admin, OfficerInput{
		Name:         "Asha Patil",
		Role:         "Junior Engineer",
		DepartmentID: deptID,
		WhatsApp:     "+919800000099",
	})
	if err != nil {
		e.t.Fatalf("create officer: %v", err)
	}
	return o
}

func intake(phone string, category domain.Category, district string) CreateGrievanceInput {
	return CreateGrievanceInput{
		Phone:       phone,
		CitizenName: "Ramesh Shinde",
		Summary:     "No water supply in our ward",
		Description: "There has been no water supply in ward 12 for three days now",
		Category:    category,
		Severity:    domain.SeverityHigh,
		District:    district,
	}
}

// routed creates a water grievance that reaches INTAKE.
func (e *testEnv) routed(phone string) *domain.Grievance {
	e.t.Helper()
	res, err := e.grievances.CreateGrievance(context.Background(), intake(phone, domain.CategoryWater, "Pune"))
	if err != nil {
		e.t.Fatalf("create grievance: %v", err)
	}
	if res.Grievance.Status != domain.StatusIntake {
		e.t.Fatalf("expected INTAKE, got %s", res.Grievance.Status)
	}
	return res.Grievance
}

// drive walks g along the shortest permitted path to target.
func (e *testEnv) drive(g *domain.Grievance, target domain.Status) *domain.Grievance {
	e.t.Helper()
	path := pathTo(g.Status, target)
	if path == nil && g.Status != target {
		e.t.Fatalf("no path from %s to %s", g.Status, target)
	}
	current := g
	for _, next := range path {
		var err error
		current, err = e.grievances.Transition(context.Background(), current.ID, next, "step", admin)
		if err != nil {
			e.t.Fatalf("transition to %s: %v", next, err)
		}
	}
	return current
}

func pathTo(from, to domain.Status) []domain.Status {
	if from == to {
		return nil
	}
	prev := map[domain.Status]domain.Status{from: from}
	queue := []domain.Status{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range domain.Successors(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				var path []domain.Status
				for s := to; s != from; s = prev[s] {
					path = append([]domain.Status{s}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func phone(i int) string {
	return fmt.Sprintf("+9198%08d", i)
}

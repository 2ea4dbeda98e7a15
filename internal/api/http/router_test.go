package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository/memstore"
	"github.com/spec-kit/grievance-service/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t            *testing.T
	app          *fiber.App
	directory    *service.DirectoryService
	adminToken   string
	officerToken string
	citizenToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher(logger)

	grievances := service.NewGrievanceService(service.GrievanceDependencies{
		Store:      store,
		Routing:    service.NewRoutingEngine("Pune"),
		Dispatcher: dispatcher,
		Metrics:    metrics,
	})
	sla := service.NewSLAService(service.SLADependencies{Store: store})
	directory := service.NewDirectoryService(store, logger)
	analytics := service.NewAnalyticsService(service.AnalyticsDependencies{Store: store})

	tokens := auth.NewTokenManager("test-secret", 10)
	adminToken, _, err := tokens.GenerateToken("admin-1", domain.ActorAdmin)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	officerToken, _, _ := tokens.GenerateToken("officer-1", domain.ActorOfficer)
	citizenToken, _, _ := tokens.GenerateToken("citizen-1", domain.ActorCitizen)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("grievance-service", "test", map[string]handlers.Pinger{"store": store}, metrics),
		Grievances:     handlers.NewGrievancesHandler(grievances),
		Directory:      handlers.NewDirectoryHandler(directory),
		SLA:            handlers.NewSLAHandler(sla),
		Analytics:      handlers.NewAnalyticsHandler(analytics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{t: t, app: app, directory: directory, adminToken: adminToken, officerToken: officerToken, citizenToken: citizenToken}
}

func (s *testServer) department(name string) *domain.Department {
	s.t.Helper()
	dept, err := s.directory.CreateDepartment(context.Background(), domain.NewActor("admin-1", domain.ActorAdmin), service.DepartmentInput{Name: name, District: "Pune"})
	if err != nil {
		s.t.Fatalf("department: %v", err)
	}
	return dept
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		s.t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func intakeBody() map[string]any {
	return map[string]any{
		"phone":       "+919812345678",
		"summary":     "No water supply in our ward",
		"description": "There has been no water supply in ward 12 for three days now",
		"category":    "water",
		"severity":    "high",
		"location":    map[string]any{"district": "Pune"},
	}
}

type createdGrievance struct {
	TicketID  string `json:"ticket_id"`
	Grievance struct {
		ID     string        `json:"id"`
		Status domain.Status `json:"status"`
	} `json:"grievance"`
	Routing struct {
		DepartmentCode string `json:"department_code"`
		Reason         string `json:"reason"`
		Priority       int    `json:"priority"`
	} `json:"routing"`
}

func TestIntakeAndLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.department("Water Resources")

	status, env := s.do(fiber.MethodPost, "/grievances", "", intakeBody())
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", status, env.Error)
	}
	var created createdGrievance
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Grievance.Status != domain.StatusIntake || created.Routing.DepartmentCode != "WR" || created.Routing.Priority != 2 {
		t.Fatalf("unexpected intake response %+v", created)
	}
	id := created.Grievance.ID

	if status, _ := s.do(fiber.MethodGet, "/grievances/ticket/"+created.TicketID, s.officerToken, nil); status != fiber.StatusOK {
		t.Fatalf("lookup by ticket: %d", status)
	}

	status, env = s.do(fiber.MethodPatch, "/grievances/"+id+"/status", s.officerToken, map[string]any{"status": "approval_pending"})
	if status != fiber.StatusOK {
		t.Fatalf("status change: %d %+v", status, env.Error)
	}
	status, env = s.do(fiber.MethodPatch, "/grievances/"+id+"/status", s.officerToken, map[string]any{"status": "CLOSED"})
	if status != fiber.StatusConflict || env.Error == nil || env.Error.Code != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION, got %d %+v", status, env.Error)
	}
	if env.Error.Details["from"] != "APPROVAL_PENDING" || env.Error.Details["to"] != "CLOSED" {
		t.Fatalf("unexpected details %+v", env.Error.Details)
	}

	status, env = s.do(fiber.MethodGet, "/grievances/"+id+"/events", s.officerToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("events: %d", status)
	}
	var ledger []struct {
		Type domain.EventType `json:"type"`
	}
	_ = json.Unmarshal(env.Data, &ledger)
	want := []domain.EventType{domain.EventCreated, domain.EventStatusChanged, domain.EventRouted, domain.EventStatusChanged}
	if len(ledger) != len(want) {
		t.Fatalf("unexpected ledger %+v", ledger)
	}
	for i := range want {
		if ledger[i].Type != want[i] {
			t.Fatalf("unexpected ledger %+v", ledger)
		}
	}

	status, env = s.do(fiber.MethodGet, "/grievances/"+id+"/projection", s.adminToken, nil)
	var report struct {
		Consistent bool `json:"consistent"`
	}
	_ = json.Unmarshal(env.Data, &report)
	if status != fiber.StatusOK || !report.Consistent {
		t.Fatalf("projection: %d %s", status, env.Data)
	}

	if status, _ := s.do(fiber.MethodGet, "/sla/report", s.adminToken, nil); status != fiber.StatusOK {
		t.Fatalf("sla report: %d", status)
	}
}

func TestIntakeWithoutDepartmentReturnsGrievance(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(fiber.MethodPost, "/grievances", "", intakeBody())
	if status != fiber.StatusUnprocessableEntity || env.Error == nil || env.Error.Code != "NO_DEPARTMENT_AVAILABLE" {
		t.Fatalf("expected NO_DEPARTMENT_AVAILABLE, got %d %+v", status, env.Error)
	}
	var created createdGrievance
	_ = json.Unmarshal(env.Data, &created)
	if created.TicketID == "" || created.Grievance.Status != domain.StatusNew {
		t.Fatalf("unrouted grievance missing from response: %s", env.Data)
	}

	s.department("Water Resources")
	status, env = s.do(fiber.MethodPost, "/grievances/"+created.Grievance.ID+"/route", s.adminToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("retry route: %d %+v", status, env.Error)
	}
}

func TestErrorEnvelopes(t *testing.T) {
	s := newTestServer(t)

	bad := intakeBody()
	bad["phone"] = "12345"
	tooManyTags := intakeBody()
	tags := make([]string, 21)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag-%d", i)
	}
	tooManyTags["tags"] = tags
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"validation", fiber.MethodPost, "/grievances", "", bad, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"anonymous listing", fiber.MethodGet, "/grievances", "", nil, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{"officer creates department", fiber.MethodPost, "/departments", s.officerToken, map[string]any{"name": "Health"}, fiber.StatusForbidden, "FORBIDDEN"},
		{"unknown grievance", fiber.MethodGet, "/grievances/missing", s.officerToken, nil, fiber.StatusNotFound, "NOT_FOUND"},
		{"unknown action", fiber.MethodPost, "/grievances/missing/actions/teleport", s.officerToken, nil, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown route", fiber.MethodGet, "/nowhere", "", nil, fiber.StatusNotFound, "NOT_FOUND"},
		{"bad event type", fiber.MethodGet, "/events?type=NOPE", s.adminToken, nil, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"too many tags", fiber.MethodPost, "/grievances", "", tooManyTags, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"malformed department id", fiber.MethodGet, "/departments/not-a-uuid", s.officerToken, nil, fiber.StatusNotFound, "NOT_FOUND"},
		{"citizen reads analytics", fiber.MethodGet, "/analytics/dashboard", s.citizenToken, nil, fiber.StatusForbidden, "FORBIDDEN"},
		{"bad analytics days", fiber.MethodGet, "/analytics/dashboard?days=abc", s.adminToken, nil, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"analytics days over a year", fiber.MethodGet, "/analytics/performance?days=400", s.adminToken, nil, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown analytics department", fiber.MethodGet, "/analytics/performance?department_id=nope", s.adminToken, nil, fiber.StatusNotFound, "NOT_FOUND"},
		{"unknown officer stats", fiber.MethodGet, "/officers/nope/stats", s.adminToken, nil, fiber.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(tc.method, tc.path, tc.token, tc.body)
			if status != tc.status || env.Error == nil || env.Error.Code != tc.code {
				t.Fatalf("expected %d %s, got %d %+v", tc.status, tc.code, status, env.Error)
			}
		})
	}
}

func TestDirectoryAndHealthOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(fiber.MethodPost, "/departments", s.adminToken, map[string]any{"name": "Public Works", "district": "Pune"})
	if status != fiber.StatusCreated {
		t.Fatalf("create department: %d %+v", status, env.Error)
	}
	var dept struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	_ = json.Unmarshal(env.Data, &dept)
	if dept.Code != "PW" {
		t.Fatalf("unexpected department %s", env.Data)
	}

	status, env = s.do(fiber.MethodPost, "/officers", s.adminToken, map[string]any{"name": "Asha Patil", "department_id": dept.ID})
	if status != fiber.StatusCreated {
		t.Fatalf("create officer: %d %+v", status, env.Error)
	}
	status, env = s.do(fiber.MethodGet, "/officers?department_id="+dept.ID, s.officerToken, nil)
	var officers []map[string]any
	_ = json.Unmarshal(env.Data, &officers)
	if status != fiber.StatusOK || len(officers) != 1 {
		t.Fatalf("list officers: %d %s", status, env.Data)
	}

	if status, _ := s.do(fiber.MethodGet, "/health/live", "", nil); status != fiber.StatusOK {
		t.Fatalf("live: %d", status)
	}
	if status, _ := s.do(fiber.MethodGet, "/health/ready", "", nil); status != fiber.StatusOK {
		t.Fatalf("ready: %d", status)
	}
	if status, _ := s.do(fiber.MethodGet, "/metrics", s.adminToken, nil); status != fiber.StatusOK {
		t.Fatalf("metrics: %d", status)
	}
}

func TestAnalyticsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	dept := s.department("Water Resources")

	body := intakeBody()
	body["tags"] = []string{" Ward-12 ", "ward-12", "pipeline"}
	status, env := s.do(fiber.MethodPost, "/grievances", "", body)
	if status != fiber.StatusCreated {
		t.Fatalf("intake: %d %+v", status, env.Error)
	}
	var created createdGrievance
	_ = json.Unmarshal(env.Data, &created)

	status, env = s.do(fiber.MethodGet, "/grievances/"+created.Grievance.ID+"/events", s.officerToken, nil)
	var ledger []struct {
		Payload map[string]any `json:"payload"`
	}
	_ = json.Unmarshal(env.Data, &ledger)
	if status != fiber.StatusOK || len(ledger) == 0 {
		t.Fatalf("events: %d %s", status, env.Data)
	}
	if tags, _ := ledger[0].Payload["tags"].([]any); len(tags) != 2 || tags[0] != "ward-12" || tags[1] != "pipeline" {
		t.Fatalf("expected normalized tags on CREATED, got %v", ledger[0].Payload["tags"])
	}

	status, env = s.do(fiber.MethodGet, "/analytics/dashboard?days=7", s.officerToken, nil)
	var dashboard struct {
		PeriodDays int `json:"period_days"`
		Overall    struct {
			Total  int `json:"total"`
			Recent int `json:"recent"`
		} `json:"overall_stats"`
		DepartmentPerformance []struct {
			DepartmentID string `json:"department_id"`
			Total        int    `json:"total"`
		} `json:"department_performance"`
		SLABreaches []json.RawMessage `json:"sla_breaches"`
	}
	_ = json.Unmarshal(env.Data, &dashboard)
	if status != fiber.StatusOK || dashboard.PeriodDays != 7 || dashboard.Overall.Total != 1 || dashboard.Overall.Recent != 1 {
		t.Fatalf("dashboard: %d %s", status, env.Data)
	}
	if len(dashboard.DepartmentPerformance) != 1 || dashboard.DepartmentPerformance[0].DepartmentID != dept.ID || dashboard.SLABreaches == nil {
		t.Fatalf("unexpected dashboard departments %s", env.Data)
	}

	tests := []struct {
		name       string
		query      string
		department string
		total      int
	}{
		{name: "all departments", query: "", department: "all", total: 1},
		{name: "one department", query: "?department_id=" + dept.ID, department: dept.ID, total: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(fiber.MethodGet, "/analytics/performance"+tc.query, s.adminToken, nil)
			var perf struct {
				DepartmentID  string  `json:"department_id"`
				Total         int     `json:"total"`
				PeriodDays    int     `json:"period_days"`
				SLACompliance float64 `json:"sla_compliance"`
			}
			_ = json.Unmarshal(env.Data, &perf)
			if status != fiber.StatusOK || perf.DepartmentID != tc.department || perf.Total != tc.total || perf.PeriodDays != 30 || perf.SLACompliance != 100 {
				t.Fatalf("performance: %d %s", status, env.Data)
			}
		})
	}

	status, env = s.do(fiber.MethodPost, "/officers", s.adminToken, map[string]any{"name": "Asha Patil", "department_id": dept.ID})
	var officer struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &officer)
	if status != fiber.StatusCreated {
		t.Fatalf("create officer: %d %+v", status, env.Error)
	}
	if status, env := s.do(fiber.MethodPatch, "/grievances/"+created.Grievance.ID+"/assign", s.adminToken, map[string]any{"officer_id": officer.ID}); status != fiber.StatusOK {
		t.Fatalf("assign: %d %+v", status, env.Error)
	}
	status, env = s.do(fiber.MethodGet, "/officers/"+officer.ID+"/stats?days=14", s.officerToken, nil)
	var stats struct {
		OfficerID  string `json:"officer_id"`
		PeriodDays int    `json:"period_days"`
		Stats      struct {
			Total int `json:"total"`
		} `json:"stats"`
		RecentAssignments int `json:"recent_assignments"`
	}
	_ = json.Unmarshal(env.Data, &stats)
	if status != fiber.StatusOK || stats.OfficerID != officer.ID || stats.PeriodDays != 14 || stats.Stats.Total != 1 || stats.RecentAssignments != 1 {
		t.Fatalf("officer stats: %d %s", status, env.Data)
	}

	status, env = s.do(fiber.MethodGet, "/analytics/routing", s.adminToken, nil)
	var routing []struct {
		DepartmentID string `json:"department_id"`
		Total        int    `json:"total_grievances"`
		HighCount    int    `json:"high_count"`
	}
	_ = json.Unmarshal(env.Data, &routing)
	if status != fiber.StatusOK || len(routing) != 1 || routing[0].Total != 1 || routing[0].HighCount != 1 {
		t.Fatalf("routing stats: %d %s", status, env.Data)
	}
}

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

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
)

// AnalyticsService aggregates grievances into dashboard figures. Everything
// is computed on read from the grievance rows; nothing is cached.
type AnalyticsService struct {
	store    repository.Store
	logger   *zap.Logger
	now      func() time.Time
	location *time.Location
}

// AnalyticsDependencies bundles analytics collaborators. Location decides
// which calendar day a grievance falls on in daily trends.
type AnalyticsDependencies struct {
	Store    repository.Store
	Logger   *zap.Logger
	Clock    func() time.Time
	Location *time.Location
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	s := &AnalyticsService{store: deps.Store, logger: deps.Logger, now: deps.Clock, location: deps.Location}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.location == nil {
		s.location = time.UTC
	}
	return s
}

// StatusCounts is the lifecycle breakdown shared by every report.
type StatusCounts struct {
	Total              int
	Resolved           int
	InProgress         int
	New                int
	AvgResolutionHours *float64
}

// OverallStats covers every grievance ever filed; Recent counts the ones
// inside the window.
type OverallStats struct {
	StatusCounts
	Recent int
}

// CountBucket is one row of a distribution.
type CountBucket struct {
	Key   string
	Count int
}

// DepartmentPerformance is one active department's window figures.
// ResolutionRate is nil when the department received nothing.
type DepartmentPerformance struct {
	DepartmentID       string
	Name               string
	NameMarathi        string
	Total              int
	Resolved           int
	ResolutionRate     *float64
	AvgResolutionHours *float64
}

// DailyTrend counts a calendar day's intake and how much of it is closed.
type DailyTrend struct {
	Date     string
	Created  int
	Resolved int
}

// Dashboard is the admin overview for a trailing window.
type Dashboard struct {
	GeneratedAt           time.Time
	PeriodDays            int
	Overall               OverallStats
	StatusDistribution    []CountBucket
	CategoryDistribution  []CountBucket
	DepartmentPerformance []DepartmentPerformance
	DailyTrends           []DailyTrend
	SLABreaches           []SLAStatus
}

// Performance summarises resolution and SLA compliance for a window,
// optionally for one department.
type Performance struct {
	GeneratedAt    time.Time
	PeriodDays     int
	DepartmentID   *string
	Counts         StatusCounts
	SLABreaches    int
	ResolutionRate float64
	SLACompliance  float64
}

// OfficerStats summarises one officer's caseload over their whole history.
// RecentAssignments counts the ones filed inside the window.
type OfficerStats struct {
	OfficerID         string
	PeriodDays        int
	Counts            StatusCounts
	RecentAssignments int
}

// RoutingStats is one active department's all-time routing load.
type RoutingStats struct {
	DepartmentID       string
	Name               string
	Total              int
	CriticalCount      int
	HighCount          int
	AvgResolutionHours *float64
}

// Dashboard builds the overview for the trailing days window.
func (s *AnalyticsService) Dashboard(ctx context.Context, days int) (*Dashboard, error) {
	days, err := analyticsWindow(days)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	all, err := repos.Grievances.ListCreatedSince(ctx, time.Time{}, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	departments, err := repos.Departments.List(ctx, true)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	since := windowStart(now, days)
	window := createdSince(all, since)

	dashboard := &Dashboard{
		GeneratedAt:          now,
		PeriodDays:           days,
		Overall:              OverallStats{StatusCounts: countStatuses(all), Recent: len(window)},
		StatusDistribution:   distribution(window, func(g domain.Grievance) string { return string(g.Status) }),
		CategoryDistribution: distribution(window, func(g domain.Grievance) string { return string(g.Category) }),
		DailyTrends:          s.dailyTrends(window),
	}

	byDepartment := make(map[string][]domain.Grievance)
	for _, g := range window {
		if g.DepartmentID != nil {
			byDepartment[*g.DepartmentID] = append(byDepartment[*g.DepartmentID], g)
		}
	}
	for _, dept := range departments {
		counts := countStatuses(byDepartment[dept.ID])
		perf := DepartmentPerformance{
			DepartmentID:       dept.ID,
			Name:               dept.Name,
			NameMarathi:        dept.NameMarathi,
			Total:              counts.Total,
			Resolved:           counts.Resolved,
			AvgResolutionHours: counts.AvgResolutionHours,
		}
		if counts.Total > 0 {
			rate := roundHundredth(float64(counts.Resolved) / float64(counts.Total) * 100)
			perf.ResolutionRate = &rate
		}
		dashboard.DepartmentPerformance = append(dashboard.DepartmentPerformance, perf)
	}
	sort.SliceStable(dashboard.DepartmentPerformance, func(i, j int) bool {
		return dashboard.DepartmentPerformance[i].Total > dashboard.DepartmentPerformance[j].Total
	})

	for _, g := range window {
		if status := Evaluate(g, now); status.Breached {
			dashboard.SLABreaches = append(dashboard.SLABreaches, status)
		}
	}
	sort.SliceStable(dashboard.SLABreaches, func(i, j int) bool {
		return dashboard.SLABreaches[i].HoursPending > dashboard.SLABreaches[j].HoursPending
	})
	return dashboard, nil
}

// Performance reports resolution rate and SLA compliance for the window.
// A grievance counts against compliance when it stayed open past its
// response target, whether or not it has since been closed. With nothing
// filed the rate is 0 and compliance 100.
func (s *AnalyticsService) Performance(ctx context.Context, days int, departmentID *string) (*Performance, error) {
	days, err := analyticsWindow(days)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if departmentID != nil {
		if _, err := repos.Departments.GetByID(ctx, *departmentID); err != nil {
			return nil, mapRepoError(err, "department", *departmentID)
		}
	}
	now := s.now()
	rows, err := repos.Grievances.ListCreatedSince(ctx, windowStart(now, days), departmentID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	perf := &Performance{
		GeneratedAt:   now,
		PeriodDays:    days,
		DepartmentID:  departmentID,
		Counts:        countStatuses(rows),
		SLACompliance: 100,
	}
	for _, g := range rows {
		if missedResponseTarget(g, now) {
			perf.SLABreaches++
		}
	}
	if total := perf.Counts.Total; total > 0 {
		perf.ResolutionRate = roundHundredth(float64(perf.Counts.Resolved) / float64(total) * 100)
		perf.SLACompliance = roundHundredth(float64(total-perf.SLABreaches) / float64(total) * 100)
	}
	return perf, nil
}

// OfficerStats summarises the grievances assigned to an officer.
func (s *AnalyticsService) OfficerStats(ctx context.Context, officerID string, days int) (*OfficerStats, error) {
	days, err := analyticsWindow(days)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if _, err := repos.Officers.GetByID(ctx, officerID); err != nil {
		return nil, mapRepoError(err, "officer", officerID)
	}
	rows, err := repos.Grievances.ListByOfficer(ctx, officerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &OfficerStats{
		OfficerID:         officerID,
		PeriodDays:        days,
		Counts:            countStatuses(rows),
		RecentAssignments: len(createdSince(rows, windowStart(s.now(), days))),
	}, nil
}

// RoutingStats reports how much each active department has been routed,
// busiest first.
func (s *AnalyticsService) RoutingStats(ctx context.Context) ([]RoutingStats, error) {
	repos := s.store.Repos()
	all, err := repos.Grievances.ListCreatedSince(ctx, time.Time{}, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	departments, err := repos.Departments.List(ctx, true)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	byDepartment := make(map[string][]domain.Grievance)
	for _, g := range all {
		if g.DepartmentID != nil {
			byDepartment[*g.DepartmentID] = append(byDepartment[*g.DepartmentID], g)
		}
	}
	stats := make([]RoutingStats, 0, len(departments))
	for _, dept := range departments {
		rows := byDepartment[dept.ID]
		entry := RoutingStats{
			DepartmentID:       dept.ID,
			Name:               dept.Name,
			Total:              len(rows),
			AvgResolutionHours: countStatuses(rows).AvgResolutionHours,
		}
		for _, g := range rows {
			switch g.Severity {
			case domain.SeverityCritical:
				entry.CriticalCount++
			case domain.SeverityHigh:
				entry.HighCount++
			}
		}
		stats = append(stats, entry)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Total > stats[j].Total })
	return stats, nil
}

func (s *AnalyticsService) dailyTrends(rows []domain.Grievance) []DailyTrend {
	byDate := make(map[string]*DailyTrend)
	for _, g := range rows {
		date := g.CreatedAt.In(s.location).Format("2006-01-02")
		trend, ok := byDate[date]
		if !ok {
			trend = &DailyTrend{Date: date}
			byDate[date] = trend
		}
		trend.Created++
		if g.Status == domain.StatusClosed {
			trend.Resolved++
		}
	}
	trends := make([]DailyTrend, 0, len(byDate))
	for _, trend := range byDate {
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends
}

func analyticsWindow(days int) (int, error) {
	if days == 0 {
		return defaultAnalyticsDays, nil
	}
	if days < 0 || days > maxAnalyticsDays {
		return 0, apperrors.NewValidationError("invalid period", map[string]any{"days": "min=1,max=365"})
	}
	return days, nil
}

func windowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

func createdSince(rows []domain.Grievance, since time.Time) []domain.Grievance {
	var out []domain.Grievance
	for _, g := range rows {
		if !g.CreatedAt.Before(since) {
			out = append(out, g)
		}
	}
	return out
}

// countStatuses treats CLOSED as resolved; its resolution time is the span
// from filing to the closing update.
func countStatuses(rows []domain.Grievance) StatusCounts {
	counts := StatusCounts{Total: len(rows)}
	var hours float64
	for _, g := range rows {
		switch g.Status {
		case domain.StatusClosed:
			counts.Resolved++
			hours += g.UpdatedAt.Sub(g.CreatedAt).Hours()
		case domain.StatusInProgress:
			counts.InProgress++
		case domain.StatusNew:
			counts.New++
		}
	}
	if counts.Resolved > 0 {
		avg := roundHundredth(hours / float64(counts.Resolved))
		counts.AvgResolutionHours = &avg
	}
	return counts
}

// distribution counts rows per key, largest bucket first.
func distribution(rows []domain.Grievance, key func(domain.Grievance) string) []CountBucket {
	counts := make(map[string]int)
	for _, g := range rows {
		counts[key(g)]++
	}
	buckets := make([]CountBucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, CountBucket{Key: k, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

func missedResponseTarget(g domain.Grievance, now time.Time) bool {
	target := domain.RuleFor(g.Severity).ResponseTarget
	if g.Status.Terminal() {
		return g.UpdatedAt.Sub(g.CreatedAt) > target
	}
	return now.Sub(g.CreatedAt) > target
}

func roundHundredth(v float64) float64 {
	return math.Round(v*100) / 100
}

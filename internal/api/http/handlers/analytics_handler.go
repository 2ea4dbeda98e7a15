package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// AnalyticsHandler serves dashboard aggregates.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard GET /analytics/dashboard?days=30.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	days, err := queryDays(c)
	if err != nil {
		return err
	}
	d, err := h.analytics.Dashboard(c.UserContext(), days)
	if err != nil {
		return err
	}
	resp := dto.DashboardResponse{
		GeneratedAt: d.GeneratedAt,
		PeriodDays:  d.PeriodDays,
		Overall: dto.OverallStatsResponse{
			StatusCountsResponse: statusCountsResponse(d.Overall.StatusCounts),
			Recent:               d.Overall.Recent,
		},
		StatusDistribution:    bucketResponses(d.StatusDistribution),
		CategoryDistribution:  bucketResponses(d.CategoryDistribution),
		DepartmentPerformance: make([]dto.DepartmentPerformanceResponse, 0, len(d.DepartmentPerformance)),
		DailyTrends:           make([]dto.DailyTrendResponse, 0, len(d.DailyTrends)),
		SLABreaches:           make([]dto.SLAStatusResponse, 0, len(d.SLABreaches)),
	}
	for _, p := range d.DepartmentPerformance {
		resp.DepartmentPerformance = append(resp.DepartmentPerformance, dto.DepartmentPerformanceResponse{
			DepartmentID:       p.DepartmentID,
			Name:               p.Name,
			NameMarathi:        p.NameMarathi,
			Total:              p.Total,
			Resolved:           p.Resolved,
			ResolutionRate:     p.ResolutionRate,
			AvgResolutionHours: p.AvgResolutionHours,
		})
	}
	for _, t := range d.DailyTrends {
		resp.DailyTrends = append(resp.DailyTrends, dto.DailyTrendResponse{Date: t.Date, Created: t.Created, Resolved: t.Resolved})
	}
	for _, st := range d.SLABreaches {
		resp.SLABreaches = append(resp.SLABreaches, slaResponse(st))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Performance GET /analytics/performance?days=30&department_id=.
func (h *AnalyticsHandler) Performance(c *fiber.Ctx) error {
	days, err := queryDays(c)
	if err != nil {
		return err
	}
	var departmentID *string
	if v := strings.TrimSpace(c.Query("department_id")); v != "" && v != "all" {
		departmentID = &v
	}
	p, err := h.analytics.Performance(c.UserContext(), days, departmentID)
	if err != nil {
		return err
	}
	resp := dto.PerformanceResponse{
		StatusCountsResponse: statusCountsResponse(p.Counts),
		GeneratedAt:          p.GeneratedAt,
		PeriodDays:           p.PeriodDays,
		DepartmentID:         "all",
		SLABreaches:          p.SLABreaches,
		ResolutionRate:       p.ResolutionRate,
		SLACompliance:        p.SLACompliance,
	}
	if p.DepartmentID != nil {
		resp.DepartmentID = *p.DepartmentID
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Routing GET /analytics/routing.
func (h *AnalyticsHandler) Routing(c *fiber.Ctx) error {
	stats, err := h.analytics.RoutingStats(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.RoutingStatsResponse, 0, len(stats))
	for _, s := range stats {
		items = append(items, dto.RoutingStatsResponse{
			DepartmentID:       s.DepartmentID,
			Name:               s.Name,
			Total:              s.Total,
			CriticalCount:      s.CriticalCount,
			HighCount:          s.HighCount,
			AvgResolutionHours: s.AvgResolutionHours,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// OfficerStats GET /officers/:id/stats?days=30.
func (h *AnalyticsHandler) OfficerStats(c *fiber.Ctx) error {
	days, err := queryDays(c)
	if err != nil {
		return err
	}
	stats, err := h.analytics.OfficerStats(c.UserContext(), c.Params("id"), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OfficerStatsResponse{
		OfficerID:         stats.OfficerID,
		PeriodDays:        stats.PeriodDays,
		Stats:             statusCountsResponse(stats.Counts),
		RecentAssignments: stats.RecentAssignments,
	}})
}

// queryDays reads ?days; absent means the service default.
func queryDays(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, apperrors.NewValidationError("invalid period", map[string]any{"days": "min=1,max=365"})
	}
	return days, nil
}

func statusCountsResponse(s service.StatusCounts) dto.StatusCountsResponse {
	return dto.StatusCountsResponse{
		Total:              s.Total,
		Resolved:           s.Resolved,
		InProgress:         s.InProgress,
		New:                s.New,
		AvgResolutionHours: s.AvgResolutionHours,
	}
}

func bucketResponses(buckets []service.CountBucket) []dto.CountBucketResponse {
	out := make([]dto.CountBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dto.CountBucketResponse{Key: b.Key, Count: b.Count})
	}
	return out
}

package dto

import "time"

// StatusCountsResponse is the lifecycle breakdown shared by analytics views.
type StatusCountsResponse struct {
	Total              int      `json:"total"`
	Resolved           int      `json:"resolved"`
	InProgress         int      `json:"in_progress"`
	New                int      `json:"new"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours"`
}

// OverallStatsResponse covers every grievance ever filed.
type OverallStatsResponse struct {
	StatusCountsResponse
	Recent int `json:"recent"`
}

// CountBucketResponse is one distribution row.
type CountBucketResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DepartmentPerformanceResponse is one department's window figures.
type DepartmentPerformanceResponse struct {
	DepartmentID       string   `json:"department_id"`
	Name               string   `json:"name"`
	NameMarathi        string   `json:"name_marathi"`
	Total              int      `json:"total"`
	Resolved           int      `json:"resolved"`
	ResolutionRate     *float64 `json:"resolution_rate"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours"`
}

// DailyTrendResponse counts one day.
type DailyTrendResponse struct {
	Date     string `json:"date"`
	Created  int    `json:"created"`
	Resolved int    `json:"resolved"`
}

// DashboardResponse is GET /analytics/dashboard.
type DashboardResponse struct {
	GeneratedAt           time.Time                       `json:"generated_at"`
	PeriodDays            int                             `json:"period_days"`
	Overall               OverallStatsResponse            `json:"overall_stats"`
	StatusDistribution    []CountBucketResponse           `json:"status_distribution"`
	CategoryDistribution  []CountBucketResponse           `json:"category_distribution"`
	DepartmentPerformance []DepartmentPerformanceResponse `json:"department_performance"`
	DailyTrends           []DailyTrendResponse            `json:"daily_trends"`
	SLABreaches           []SLAStatusResponse             `json:"sla_breaches"`
}

// PerformanceResponse is GET /analytics/performance. DepartmentID is "all"
// when no department filter was given.
type PerformanceResponse struct {
	StatusCountsResponse
	GeneratedAt    time.Time `json:"generated_at"`
	PeriodDays     int       `json:"period_days"`
	DepartmentID   string    `json:"department_id"`
	SLABreaches    int       `json:"sla_breaches"`
	ResolutionRate float64   `json:"resolution_rate"`
	SLACompliance  float64   `json:"sla_compliance"`
}

// OfficerStatsResponse is GET /officers/:id/stats.
type OfficerStatsResponse struct {
	OfficerID         string               `json:"officer_id"`
	PeriodDays        int                  `json:"period_days"`
	Stats             StatusCountsResponse `json:"stats"`
	RecentAssignments int                  `json:"recent_assignments"`
}

// RoutingStatsResponse is one row of GET /analytics/routing.
type RoutingStatsResponse struct {
	DepartmentID       string   `json:"department_id"`
	Name               string   `json:"name"`
	Total              int      `json:"total_grievances"`
	CriticalCount      int      `json:"critical_count"`
	HighCount          int      `json:"high_count"`
	AvgResolutionHours *float64 `json:"avg_resolution_hours"`
}

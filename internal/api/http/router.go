package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Grievances     *handlers.GrievancesHandler
	Directory      *handlers.DirectoryHandler
	SLA            *handlers.SLAHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authed := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireActorType(domain.ActorAdmin)
	staff := auth.RequireActorType(domain.ActorAdmin, domain.ActorOfficer)

	app.Get("/metrics", authed, adminOnly, cfg.Health.Metrics)
	app.Get("/events", authed, adminOnly, cfg.Grievances.EventsByType)

	grievances := app.Group("/grievances")
	grievances.Post("", cfg.AuthMiddleware.Optional, cfg.Grievances.Create)
	grievances.Get("", authed, auth.RequireAnyActor(), cfg.Grievances.List)
	grievances.Get("/ticket/:ticket_id", authed, auth.RequireAnyActor(), cfg.Grievances.GetByTicket)
	grievances.Get("/:id", authed, auth.RequireAnyActor(), cfg.Grievances.Get)
	grievances.Get("/:id/events", authed, auth.RequireAnyActor(), cfg.Grievances.Events)
	grievances.Get("/:id/transitions", authed, auth.RequireAnyActor(), cfg.Grievances.Transitions)
	grievances.Get("/:id/sla", authed, auth.RequireAnyActor(), cfg.SLA.Grievance)
	grievances.Get("/:id/projection", authed, adminOnly, cfg.Grievances.Projection)
	grievances.Patch("/:id/status", authed, staff, cfg.Grievances.UpdateStatus)
	grievances.Post("/:id/actions/:action", authed, staff, cfg.Grievances.Action)
	grievances.Patch("/:id/assign", authed, adminOnly, cfg.Grievances.Assign)
	grievances.Patch("/:id/department", authed, adminOnly, cfg.Grievances.Reassign)
	grievances.Post("/:id/route", authed, adminOnly, cfg.Grievances.Route)

	sla := app.Group("/sla", authed, adminOnly)
	sla.Get("/breaches", cfg.SLA.Breaches)
	sla.Get("/report", cfg.SLA.Report)

	analytics := app.Group("/analytics", authed, staff)
	analytics.Get("/dashboard", cfg.Analytics.Dashboard)
	analytics.Get("/performance", cfg.Analytics.Performance)
	analytics.Get("/routing", cfg.Analytics.Routing)

	departments := app.Group("/departments", authed, auth.RequireAnyActor())
	departments.Get("", cfg.Directory.ListDepartments)
	departments.Get("/:id", cfg.Directory.GetDepartment)
	departments.Post("", adminOnly, cfg.Directory.CreateDepartment)
	departments.Patch("/:id", adminOnly, cfg.Directory.UpdateDepartment)

	officers := app.Group("/officers", authed, auth.RequireAnyActor())
	officers.Get("", cfg.Directory.ListOfficers)
	officers.Get("/:id", cfg.Directory.GetOfficer)
	officers.Get("/:id/stats", staff, cfg.Analytics.OfficerStats)
	officers.Post("", adminOnly, cfg.Directory.CreateOfficer)
	officers.Patch("/:id", adminOnly, cfg.Directory.UpdateOfficer)
}

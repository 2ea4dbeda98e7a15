package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
)

// SLAHandler exposes SLA evaluation.
type SLAHandler struct {
	sla *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(sla *service.SLAService) *SLAHandler {
	return &SLAHandler{sla: sla}
}

// Grievance GET /grievances/:id/sla.
func (h *SLAHandler) Grievance(c *fiber.Ctx) error {
	st, err := h.sla.EvaluateSLA(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaResponse(*st)})
}

// Breaches GET /sla/breaches.
func (h *SLAHandler) Breaches(c *fiber.Ctx) error {
	breached, err := h.sla.ListBreached(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.SLAStatusResponse, 0, len(breached))
	for _, st := range breached {
		items = append(items, slaResponse(st))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Report GET /sla/report.
func (h *SLAHandler) Report(c *fiber.Ctx) error {
	report, err := h.sla.Report(c.UserContext())
	if err != nil {
		return err
	}
	bySeverity := make(map[domain.Severity]dto.SeverityReportResponse, len(report.BySeverity))
	for severity, counts := range report.BySeverity {
		bySeverity[severity] = dto.SeverityReportResponse{Open: counts.Open, Breached: counts.Breached}
	}
	return c.JSON(fiber.Map{"data": dto.SLAReportResponse{
		GeneratedAt:       report.GeneratedAt,
		OpenTotal:         report.OpenTotal,
		BreachedTotal:     report.BreachedTotal,
		EscalatedTotal:    report.EscalatedTotal,
		CompliancePercent: report.CompliancePercent,
		BySeverity:        bySeverity,
	}})
}

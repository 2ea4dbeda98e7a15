package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// GrievancesHandler serves intake, lifecycle and ledger endpoints.
type GrievancesHandler struct {
	service *service.GrievanceService
}

// NewGrievancesHandler constructs handler.
func NewGrievancesHandler(grievanceService *service.GrievanceService) *GrievancesHandler {
	return &GrievancesHandler{service: grievanceService}
}

// Create POST /grievances.
func (h *GrievancesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.CreateGrievanceInput{
		Phone:       strings.TrimSpace(req.Phone),
		CitizenName: req.CitizenName,
		Language:    req.Language,
		Summary:     req.Summary,
		Description: req.Description,
		Category:    req.Category,
		Severity:    req.Severity,
		Pincode:     strings.TrimSpace(req.Location.Pincode),
		District:    req.Location.District,
		Lat:         req.Location.Lat,
		Lng:         req.Location.Lng,
		Tags:        req.Tags,
	}
	result, err := h.service.CreateGrievance(c.UserContext(), input)
	if err != nil {
		// The grievance is recorded even when nobody can take it yet.
		if result != nil && apperrors.HasCode(err, apperrors.CodeNoDepartmentAvailable) {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{
				"data":  createResponse(result),
				"error": fiber.Map{"code": de.Code, "message": de.Message, "details": de.Details},
			})
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": createResponse(result)})
}

// List GET /grievances.
func (h *GrievancesHandler) List(c *fiber.Ctx) error {
	items, err := h.service.ListGrievances(c.UserContext(), parseGrievanceQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponses(items)})
}

// Get GET /grievances/:id.
func (h *GrievancesHandler) Get(c *fiber.Ctx) error {
	g, err := h.service.GetGrievance(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponse(g)})
}

// GetByTicket GET /grievances/ticket/:ticket_id.
func (h *GrievancesHandler) GetByTicket(c *fiber.Ctx) error {
	g, err := h.service.GetByTicketID(c.UserContext(), c.Params("ticket_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponse(g)})
}

// Events GET /grievances/:id/events.
func (h *GrievancesHandler) Events(c *fiber.Ctx) error {
	entries, err := h.service.ListEvents(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(entries)})
}

// EventsByType GET /events?type=STATUS_CHANGED&limit=50.
func (h *GrievancesHandler) EventsByType(c *fiber.Ctx) error {
	entries, err := h.service.ListEventsByType(c.UserContext(), domain.EventType(c.Query("type")), parseInt(c.Query("limit"), 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(entries)})
}

// Transitions GET /grievances/:id/transitions.
func (h *GrievancesHandler) Transitions(c *fiber.Ctx) error {
	g, err := h.service.GetGrievance(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransitionsResponse{Status: g.Status, Available: domain.Successors(g.Status)}})
}

// Projection GET /grievances/:id/projection.
func (h *GrievancesHandler) Projection(c *fiber.Ctx) error {
	report, err := h.service.VerifyProjection(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProjectionResponse{
		GrievanceID: report.GrievanceID,
		Status:      report.Status,
		Replayed:    report.Replayed,
		EventCount:  report.EventCount,
		Consistent:  report.Consistent,
		Problem:     report.Problem,
	}})
}

// UpdateStatus PATCH /grievances/:id/status.
func (h *GrievancesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	g, err := h.service.Transition(c.UserContext(), c.Params("id"), domain.Status(strings.ToUpper(string(req.Status))), req.Notes, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponse(g)})
}

// Action POST /grievances/:id/actions/:action.
func (h *GrievancesHandler) Action(c *fiber.Ctx) error {
	var req dto.ActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	g, err := h.service.ApplyAction(c.UserContext(), c.Params("id"), strings.ToLower(c.Params("action")), req.Notes, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponse(g)})
}

// Assign PATCH /grievances/:id/assign.
func (h *GrievancesHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignOfficerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.OfficerID) == "" {
		return apperrors.NewValidationError("officer_id required", nil)
	}
	g, err := h.service.AssignOfficer(c.UserContext(), c.Params("id"), req.OfficerID, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponse(g)})
}

// Reassign PATCH /grievances/:id/department.
func (h *GrievancesHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.DepartmentID) == "" {
		return apperrors.NewValidationError("department_id required", nil)
	}
	g, err := h.service.ReassignDepartment(c.UserContext(), c.Params("id"), req.DepartmentID, req.Notes, auth.ActorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceResponse(g)})
}

// Route POST /grievances/:id/route retries routing of a NEW grievance.
func (h *GrievancesHandler) Route(c *fiber.Ctx) error {
	g, routing, err := h.service.RouteGrievance(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CreateGrievanceResponse{
		TicketID:  g.TicketID,
		Grievance: grievanceResponse(g),
		Routing:   routingResponse(routing),
	}})
}

func parseGrievanceQuery(c *fiber.Ctx) repository.GrievanceFilter {
	filter := repository.GrievanceFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.Status(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if v := c.Query("department_id"); v != "" {
		filter.DepartmentID = &v
	}
	if v := c.Query("officer_id"); v != "" {
		filter.OfficerID = &v
	}
	if v := c.Query("category"); v != "" {
		category := domain.Category(v)
		filter.Category = &category
	}
	if v := c.Query("severity"); v != "" {
		severity := domain.Severity(v)
		filter.Severity = &severity
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		filter.SearchTerm = &v
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

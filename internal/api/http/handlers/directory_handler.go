package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// DirectoryHandler manages departments and officers.
type DirectoryHandler struct {
	service *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: directory}
}

// ListDepartments GET /departments.
func (h *DirectoryHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.service.ListDepartments(c.UserContext(), c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDepartment GET /departments/:id.
func (h *DirectoryHandler) GetDepartment(c *fiber.Ctx) error {
	dept, err := h.service.GetDepartment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// CreateDepartment POST /departments.
func (h *DirectoryHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.service.CreateDepartment(c.UserContext(), auth.ActorFromContext(c), departmentInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// UpdateDepartment PATCH /departments/:id.
func (h *DirectoryHandler) UpdateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.service.UpdateDepartment(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), departmentInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListOfficers GET /officers?department_id=.
func (h *DirectoryHandler) ListOfficers(c *fiber.Ctx) error {
	var deptID *string
	if v := c.Query("department_id"); v != "" {
		deptID = &v
	}
	officers, err := h.service.ListOfficers(c.UserContext(), deptID, c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	items := make([]dto.OfficerResponse, 0, len(officers))
	for i := range officers {
		items = append(items, officerResponse(&officers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetOfficer GET /officers/:id.
func (h *DirectoryHandler) GetOfficer(c *fiber.Ctx) error {
	officer, err := h.service.GetOfficer(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": officerResponse(officer)})
}

// CreateOfficer POST /officers.
func (h *DirectoryHandler) CreateOfficer(c *fiber.Ctx) error {
	var req dto.OfficerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	officer, err := h.service.CreateOfficer(c.UserContext(), auth.ActorFromContext(c), officerInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": officerResponse(officer)})
}

// UpdateOfficer PATCH /officers/:id.
func (h *DirectoryHandler) UpdateOfficer(c *fiber.Ctx) error {
	var req dto.OfficerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	officer, err := h.service.UpdateOfficer(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), officerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": officerResponse(officer)})
}

func departmentInput(req dto.DepartmentRequest) service.DepartmentInput {
	return service.DepartmentInput{
		Name:            req.Name,
		NameMarathi:     req.NameMarathi,
		District:        req.District,
		ContactWhatsApp: req.ContactWhatsApp,
		ContactEmail:    req.ContactEmail,
		Active:          req.Active,
	}
}

func officerInput(req dto.OfficerRequest) service.OfficerInput {
	return service.OfficerInput{
		Name:         req.Name,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		WhatsApp:     req.WhatsApp,
		Email:        req.Email,
		Active:       req.Active,
	}
}

package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// DirectoryService manages departments and the officers working in them.
type DirectoryService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(store repository.Store, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{store: store, logger: logger}
}

// DepartmentInput creates or replaces a department.
type DepartmentInput struct {
	Name            string `validate:"required,min=2,max=120"`
	NameMarathi     string `validate:"omitempty,max=120"`
	District        string `validate:"omitempty,max=80"`
	ContactWhatsApp string `validate:"omitempty,e164"`
	ContactEmail    string `validate:"omitempty,email"`
	Active          *bool
}

// OfficerInput creates or replaces an officer.
type OfficerInput struct {
	Name         string `validate:"required,min=2,max=120"`
	Role         string `validate:"omitempty,max=80"`
	DepartmentID string `validate:"required"`
	WhatsApp     string `validate:"omitempty,e164"`
	Email        string `validate:"omitempty,email"`
	Active       *bool
}

func requireAdmin(actor domain.Actor) error {
	if actor.Type != domain.ActorAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment registers a routing target.
func (s *DirectoryService) CreateDepartment(ctx context.Context, actor domain.Actor, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	dept := &domain.Department{Active: true}
	applyDepartmentInput(dept, input)
	if err := s.store.Repos().Departments.Create(ctx, dept); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("department created", zap.String("department_id", dept.ID), zap.String("name", dept.Name))
	return dept, nil
}

// UpdateDepartment replaces a department's attributes. Deactivating keeps
// existing assignments but stops new routing to it.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, actor domain.Actor, id string, input DepartmentInput) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	repo := s.store.Repos().Departments
	dept, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "department", id)
	}
	applyDepartmentInput(dept, input)
	if err := repo.Update(ctx, dept); err != nil {
		return nil, mapRepoError(err, "department", id)
	}
	return dept, nil
}

func applyDepartmentInput(dept *domain.Department, input DepartmentInput) {
	dept.Name = strings.TrimSpace(input.Name)
	dept.NameMarathi = strings.TrimSpace(input.NameMarathi)
	dept.District = strings.TrimSpace(input.District)
	dept.ContactWhatsApp = input.ContactWhatsApp
	dept.ContactEmail = input.ContactEmail
	if input.Active != nil {
		dept.Active = *input.Active
	}
}

// ListDepartments returns departments, optionally including inactive ones.
func (s *DirectoryService) ListDepartments(ctx context.Context, includeInactive bool) ([]domain.Department, error) {
	list, err := s.store.Repos().Departments.List(ctx, !includeInactive)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// GetDepartment fetches a department.
func (s *DirectoryService) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.store.Repos().Departments.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "department", id)
	}
	return dept, nil
}

// CreateOfficer adds an officer to an existing department.
func (s *DirectoryService) CreateOfficer(ctx context.Context, actor domain.Actor, input OfficerInput) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if err := s.ensureDepartment(ctx, repos.Departments, input.DepartmentID); err != nil {
		return nil, err
	}
	officer := &domain.Officer{Active: true}
	applyOfficerInput(officer, input)
	if err := repos.Officers.Create(ctx, officer); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("officer created", zap.String("officer_id", officer.ID), zap.String("department_id", officer.DepartmentID))
	return officer, nil
}

// UpdateOfficer replaces an officer's attributes. An inactive officer cannot
// receive new assignments.
func (s *DirectoryService) UpdateOfficer(ctx context.Context, actor domain.Actor, id string, input OfficerInput) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	officer, err := repos.Officers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "officer", id)
	}
	if input.DepartmentID != officer.DepartmentID {
		if err := s.ensureDepartment(ctx, repos.Departments, input.DepartmentID); err != nil {
			return nil, err
		}
	}
	applyOfficerInput(officer, input)
	if err := repos.Officers.Update(ctx, officer); err != nil {
		return nil, mapRepoError(err, "officer", id)
	}
	return officer, nil
}

func (s *DirectoryService) ensureDepartment(ctx context.Context, departments repository.DepartmentRepository, id string) error {
	if _, err := departments.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func applyOfficerInput(officer *domain.Officer, input OfficerInput) {
	officer.Name = strings.TrimSpace(input.Name)
	officer.Role = strings.TrimSpace(input.Role)
	officer.DepartmentID = input.DepartmentID
	officer.WhatsApp = input.WhatsApp
	officer.Email = input.Email
	if input.Active != nil {
		officer.Active = *input.Active
	}
}

// ListOfficers lists officers, optionally for one department.
func (s *DirectoryService) ListOfficers(ctx context.Context, departmentID *string, includeInactive bool) ([]domain.Officer, error) {
	list, err := s.store.Repos().Officers.List(ctx, departmentID, !includeInactive)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// GetOfficer fetches an officer.
func (s *DirectoryService) GetOfficer(ctx context.Context, id string) (*domain.Officer, error) {
	officer, err := s.store.Repos().Officers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "officer", id)
	}
	return officer, nil
}

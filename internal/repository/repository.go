package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionConflict is returned when a versioned update lost a race.
	ErrVersionConflict = errors.New("repository: version conflict")
	// ErrDuplicateTicketID is returned when a generated ticket id already exists.
	ErrDuplicateTicketID = errors.New("repository: duplicate ticket id")
	// ErrDuplicateCitizen is returned when another writer registered the phone first.
	ErrDuplicateCitizen = errors.New("repository: duplicate citizen phone")
)

// GrievanceFilter captures listing parameters.
type GrievanceFilter struct {
	Statuses     []domain.Status
	DepartmentID *string
	OfficerID    *string
	Category     *domain.Category
	Severity     *domain.Severity
	SearchTerm   *string
	Limit        int
	Offset       int
}

// GrievanceRepository persists grievances. Every update is guarded by the
// grievance's Version: the update succeeds only if the stored version equals
// g.Version, after which g.Version is incremented in place.
type GrievanceRepository interface {
	Create(ctx context.Context, g *domain.Grievance) error
	GetByID(ctx context.Context, id string) (*domain.Grievance, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Grievance, error)
	UpdateStatus(ctx context.Context, g *domain.Grievance, status domain.Status) error
	UpdateDepartment(ctx context.Context, g *domain.Grievance, departmentID string) error
	UpdateOfficer(ctx context.Context, g *domain.Grievance, officerID string) error
	ListRecentByCitizen(ctx context.Context, citizenID string, since time.Time) ([]domain.Grievance, error)
	ListOpen(ctx context.Context) ([]domain.Grievance, error)
	List(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error)
	// ListCreatedSince returns every grievance created at or after since,
	// oldest first, optionally limited to one department.
	ListCreatedSince(ctx context.Context, since time.Time, departmentID *string) ([]domain.Grievance, error)
	ListByOfficer(ctx context.Context, officerID string) ([]domain.Grievance, error)
}

// EventRepository is the append-only ledger. There is intentionally no
// update or delete.
type EventRepository interface {
	Append(ctx context.Context, event *domain.Event) error
	ListByGrievance(ctx context.Context, grievanceID string) ([]domain.Event, error)
	ListByType(ctx context.Context, eventType domain.EventType, limit int) ([]domain.Event, error)
}

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Department, error)
	// FindActiveByName returns the oldest active department with the given
	// name. An empty district matches any district.
	FindActiveByName(ctx context.Context, name, district string) (*domain.Department, error)
}

// OfficerRepository manages officers.
type OfficerRepository interface {
	Create(ctx context.Context, officer *domain.Officer) error
	Update(ctx context.Context, officer *domain.Officer) error
	GetByID(ctx context.Context, id string) (*domain.Officer, error)
	List(ctx context.Context, departmentID *string, activeOnly bool) ([]domain.Officer, error)
}

// CitizenRepository manages citizens keyed by phone.
type CitizenRepository interface {
	Create(ctx context.Context, citizen *domain.Citizen) error
	GetByID(ctx context.Context, id string) (*domain.Citizen, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Citizen, error)
}

// Repositories bundles repositories bound to one connection or transaction.
type Repositories struct {
	Grievances  GrievanceRepository
	Events      EventRepository
	Departments DepartmentRepository
	Officers    OfficerRepository
	Citizens    CitizenRepository
}

// Store hands out repositories. Repos are for standalone reads; InTx runs fn
// in a single transaction that commits only if fn returns nil.
type Store interface {
	Repos() Repositories
	InTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
}

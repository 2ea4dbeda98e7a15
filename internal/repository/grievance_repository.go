package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
)

const grievanceColumns = `id, ticket_id, citizen_id, summary, description, language, category, severity,
               pincode, district, lat, lng, status, department_id, assigned_officer_id, version,
               created_at, updated_at`

type grievanceRepository struct {
	db DBTX
}

// NewGrievanceRepository binds the repository to a pool or transaction.
func NewGrievanceRepository(db DBTX) GrievanceRepository {
	return &grievanceRepository{db: db}
}

func (r *grievanceRepository) Create(ctx context.Context, g *domain.Grievance) error {
	const query = `
        INSERT INTO grievances (ticket_id, citizen_id, summary, description, language, category, severity,
            pincode, district, lat, lng, status, department_id, assigned_officer_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, version, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		g.TicketID,
		g.CitizenID,
		g.Summary,
		g.Description,
		g.Language,
		g.Category,
		g.Severity,
		g.Location.Pincode,
		g.Location.District,
		g.Location.Lat,
		g.Location.Lng,
		g.Status,
		g.DepartmentID,
		g.AssignedOfficerID,
	).Scan(&g.ID, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if isUniqueViolation(err, "grievances_ticket_id_key") {
		return ErrDuplicateTicketID
	}
	return err
}

func (r *grievanceRepository) GetByID(ctx context.Context, id string) (*domain.Grievance, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + grievanceColumns + ` FROM grievances WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *grievanceRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Grievance, error) {
	query := `SELECT ` + grievanceColumns + ` FROM grievances WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *grievanceRepository) UpdateStatus(ctx context.Context, g *domain.Grievance, status domain.Status) error {
	if err := r.versionedUpdate(ctx, g, "status", status); err != nil {
		return err
	}
	g.Status = status
	return nil
}

func (r *grievanceRepository) UpdateDepartment(ctx context.Context, g *domain.Grievance, departmentID string) error {
	if err := r.versionedUpdate(ctx, g, "department_id", departmentID); err != nil {
		return err
	}
	g.DepartmentID = &departmentID
	return nil
}

func (r *grievanceRepository) UpdateOfficer(ctx context.Context, g *domain.Grievance, officerID string) error {
	if err := r.versionedUpdate(ctx, g, "assigned_officer_id", officerID); err != nil {
		return err
	}
	g.AssignedOfficerID = &officerID
	return nil
}

// versionedUpdate writes one column if the stored version still matches
// g.Version. A miss is ErrNotFound when the row is gone, ErrVersionConflict
// otherwise.
func (r *grievanceRepository) versionedUpdate(ctx context.Context, g *domain.Grievance, column string, value any) error {
	query := fmt.Sprintf(`
        UPDATE grievances SET %s=$1, version=version+1, updated_at=NOW()
        WHERE id=$2 AND version=$3
        RETURNING version, updated_at`, column)
	var (
		version   int64
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, query, value, g.ID, g.Version).Scan(&version, &updatedAt)
	if err == nil {
		g.Version = version
		g.UpdatedAt = updatedAt
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM grievances WHERE id=$1)`, g.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *grievanceRepository) ListRecentByCitizen(ctx context.Context, citizenID string, since time.Time) ([]domain.Grievance, error) {
	query := `SELECT ` + grievanceColumns + `
        FROM grievances WHERE citizen_id=$1 AND created_at >= $2
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, citizenID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) ListOpen(ctx context.Context) ([]domain.Grievance, error) {
	query := `SELECT ` + grievanceColumns + `
        FROM grievances WHERE status NOT IN ($1, $2)
        ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, domain.StatusClosed, domain.StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) List(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error) {
	if !filterIDsValid(filter) {
		return nil, nil
	}
	clauses := []string{"1=1"}
	args := []any{}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.OfficerID != nil {
		args = append(args, *filter.OfficerID)
		clauses = append(clauses, fmt.Sprintf("assigned_officer_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		clauses = append(clauses, fmt.Sprintf("severity=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(summary) LIKE %s OR LOWER(description) LIKE %s OR ticket_id LIKE UPPER(%s))",
			placeholder, placeholder, placeholder))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		grievanceColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) ListCreatedSince(ctx context.Context, since time.Time, departmentID *string) ([]domain.Grievance, error) {
	if departmentID != nil && !isUUID(*departmentID) {
		return nil, nil
	}
	query := `SELECT ` + grievanceColumns + ` FROM grievances WHERE created_at >= $1`
	args := []any{since}
	if departmentID != nil {
		args = append(args, *departmentID)
		query += ` AND department_id=$2`
	}
	query += ` ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) ListByOfficer(ctx context.Context, officerID string) ([]domain.Grievance, error) {
	if !isUUID(officerID) {
		return nil, nil
	}
	query := `SELECT ` + grievanceColumns + `
        FROM grievances WHERE assigned_officer_id=$1
        ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, officerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

// filterIDsValid is false when a uuid filter can match nothing.
func filterIDsValid(filter GrievanceFilter) bool {
	if filter.DepartmentID != nil && !isUUID(*filter.DepartmentID) {
		return false
	}
	return filter.OfficerID == nil || isUUID(*filter.OfficerID)
}

func (r *grievanceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Grievance, error) {
	g, err := scanGrievance(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return g, nil
}

func scanGrievance(row pgx.Row) (*domain.Grievance, error) {
	var g domain.Grievance
	if err := row.Scan(
		&g.ID,
		&g.TicketID,
		&g.CitizenID,
		&g.Summary,
		&g.Description,
		&g.Language,
		&g.Category,
		&g.Severity,
		&g.Location.Pincode,
		&g.Location.District,
		&g.Location.Lat,
		&g.Location.Lng,
		&g.Status,
		&g.DepartmentID,
		&g.AssignedOfficerID,
		&g.Version,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGrievances(rows pgx.Rows) ([]domain.Grievance, error) {
	var result []domain.Grievance
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	return result, rows.Err()
}

// normalizePage applies the default page size of 20 and a ceiling of 200.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

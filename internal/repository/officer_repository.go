package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
)

const officerColumns = `id, name, role, department_id, whatsapp, email, is_active, created_at, updated_at`

type officerRepository struct {
	db DBTX
}

// NewOfficerRepository instantiates the repository.
func NewOfficerRepository(db DBTX) OfficerRepository {
	return &officerRepository{db: db}
}

func (r *officerRepository) Create(ctx context.Context, officer *domain.Officer) error {
	const query = `
        INSERT INTO officers (name, role, department_id, whatsapp, email, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		officer.Name,
		officer.Role,
		officer.DepartmentID,
		officer.WhatsApp,
		officer.Email,
		officer.Active,
	).Scan(&officer.ID, &officer.CreatedAt, &officer.UpdatedAt)
}

func (r *officerRepository) Update(ctx context.Context, officer *domain.Officer) error {
	if !isUUID(officer.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE officers SET name=$1, role=$2, department_id=$3, whatsapp=$4, email=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		officer.Name,
		officer.Role,
		officer.DepartmentID,
		officer.WhatsApp,
		officer.Email,
		officer.Active,
		officer.ID,
	).Scan(&officer.UpdatedAt)
	return translateNoRows(err)
}

func (r *officerRepository) GetByID(ctx context.Context, id string) (*domain.Officer, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + officerColumns + ` FROM officers WHERE id=$1`
	officer, err := scanOfficer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return officer, nil
}

func (r *officerRepository) List(ctx context.Context, departmentID *string, activeOnly bool) ([]domain.Officer, error) {
	if departmentID != nil && !isUUID(*departmentID) {
		return nil, nil
	}
	query := `SELECT ` + officerColumns + ` FROM officers`
	args := []any{}
	clauses := []string{}
	if departmentID != nil {
		args = append(args, *departmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if activeOnly {
		clauses = append(clauses, "is_active")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Officer
	for rows.Next() {
		officer, err := scanOfficer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *officer)
	}
	return result, rows.Err()
}

func scanOfficer(row pgx.Row) (*domain.Officer, error) {
	var officer domain.Officer
	if err := row.Scan(
		&officer.ID,
		&officer.Name,
		&officer.Role,
		&officer.DepartmentID,
		&officer.WhatsApp,
		&officer.Email,
		&officer.Active,
		&officer.CreatedAt,
		&officer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &officer, nil
}

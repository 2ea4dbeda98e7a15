package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
)

const departmentColumns = `id, name, name_marathi, district, contact_whatsapp, contact_email, is_active, created_at, updated_at`

type departmentRepository struct {
	db DBTX
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db DBTX) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, name_marathi, district, contact_whatsapp, contact_email, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		dept.Name,
		dept.NameMarathi,
		dept.District,
		dept.ContactWhatsApp,
		dept.ContactEmail,
		dept.Active,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	if !isUUID(dept.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE departments SET name=$1, name_marathi=$2, district=$3, contact_whatsapp=$4,
            contact_email=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		dept.Name,
		dept.NameMarathi,
		dept.District,
		dept.ContactWhatsApp,
		dept.ContactEmail,
		dept.Active,
		dept.ID,
	).Scan(&dept.UpdatedAt)
	return translateNoRows(err)
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1`
	dept, err := scanDepartment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return dept, nil
}

func (r *departmentRepository) List(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func (r *departmentRepository) FindActiveByName(ctx context.Context, name, district string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + `
        FROM departments
        WHERE is_active AND name=$1 AND ($2 = '' OR LOWER(district) = LOWER($2))
        ORDER BY created_at ASC LIMIT 1`
	dept, err := scanDepartment(r.db.QueryRow(ctx, query, name, district))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return dept, nil
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.NameMarathi,
		&dept.District,
		&dept.ContactWhatsApp,
		&dept.ContactEmail,
		&dept.Active,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

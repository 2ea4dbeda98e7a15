package repository

import (
	"context"

	"github.com/spec-kit/grievance-service/internal/domain"
)

type citizenRepository struct {
	db DBTX
}

// NewCitizenRepository returns a Postgres-backed implementation.
func NewCitizenRepository(db DBTX) CitizenRepository {
	return &citizenRepository{db: db}
}

func (r *citizenRepository) Create(ctx context.Context, citizen *domain.Citizen) error {
	const query = `
        INSERT INTO citizens (phone, name, language)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		citizen.Phone,
		citizen.Name,
		citizen.Language,
	).Scan(&citizen.ID, &citizen.CreatedAt)
	if isUniqueViolation(err, "citizens_phone_key") {
		return ErrDuplicateCitizen
	}
	return err
}

func (r *citizenRepository) GetByID(ctx context.Context, id string) (*domain.Citizen, error) {
	if !isUUID(id) {
		return nil, ErrNotFound
	}
	const query = `
        SELECT id, phone, name, language, created_at
        FROM citizens WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *citizenRepository) GetByPhone(ctx context.Context, phone string) (*domain.Citizen, error) {
	const query = `
        SELECT id, phone, name, language, created_at
        FROM citizens WHERE phone=$1`
	return r.fetchSingle(ctx, query, phone)
}

func (r *citizenRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Citizen, error) {
	var citizen domain.Citizen
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&citizen.ID,
		&citizen.Phone,
		&citizen.Name,
		&citizen.Language,
		&citizen.CreatedAt,
	); err != nil {
		return nil, translateNoRows(err)
	}
	return &citizen, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
)

type eventRepository struct {
	db DBTX
}

// NewEventRepository binds the ledger to a pool or transaction.
func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO grievance_events (grievance_id, event_type, payload, actor_id, actor_type)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, seq, created_at`
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return r.db.QueryRow(ctx, query,
		event.GrievanceID,
		event.Type,
		payload,
		event.ActorID,
		event.ActorType,
	).Scan(&event.ID, &event.Sequence, &event.CreatedAt)
}

func (r *eventRepository) ListByGrievance(ctx context.Context, grievanceID string) ([]domain.Event, error) {
	const query = `
        SELECT id, seq, grievance_id, event_type, payload, actor_id, actor_type, created_at
        FROM grievance_events WHERE grievance_id=$1 ORDER BY seq ASC`
	if !isUUID(grievanceID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, query, grievanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) ListByType(ctx context.Context, eventType domain.EventType, limit int) ([]domain.Event, error) {
	const query = `
        SELECT id, seq, grievance_id, event_type, payload, actor_id, actor_type, created_at
        FROM grievance_events WHERE event_type=$1 ORDER BY seq DESC LIMIT $2`
	limit, _ = normalizePage(limit, 0)
	rows, err := r.db.Query(ctx, query, eventType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.Sequence,
			&event.GrievanceID,
			&event.Type,
			&event.Payload,
			&event.ActorID,
			&event.ActorType,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

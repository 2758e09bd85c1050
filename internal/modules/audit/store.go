// README: Change event store backed by PostgreSQL; rows are never updated or deleted.
package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, e *Event) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO change_events (entity_type, entity_id, actor_id, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		string(e.EntityType), e.EntityID, e.ActorID, e.Action, e.OldValue, e.NewValue, e.CreatedAt,
	).Scan(&e.ID)
}

func (s *Store) ListByEntity(ctx context.Context, entity EntityType, id string) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, entity_type, entity_id, actor_id, action, old_value, new_value, created_at
		FROM change_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, id`, string(entity), id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.ActorID, &e.Action, &e.OldValue, &e.NewValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

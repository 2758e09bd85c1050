// README: Contact submission store backed by PostgreSQL.
package contact

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

func (s *Store) Create(ctx context.Context, sub *Submission) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO contact_submissions (id, name, email, phone, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`,
		string(sub.ID), sub.Name, sub.Email, sub.Phone, sub.Subject, sub.Message,
	).Scan(&sub.CreatedAt)
}

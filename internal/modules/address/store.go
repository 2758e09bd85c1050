// README: Address store backed by PostgreSQL; one default address per user.
package address

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vdrop/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListCities(ctx context.Context) ([]City, error) {
	rows, err := s.db.Query(ctx, `SELECT id::text, name, state FROM cities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []City{}
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.State); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCity(ctx context.Context, id types.ID) (*City, error) {
	var c City
	err := s.db.QueryRow(ctx, `SELECT id::text, name, state FROM cities WHERE id = $1`, string(id)).
		Scan(&c.ID, &c.Name, &c.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownCity
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetDefault(ctx context.Context, userID string) (*Address, error) {
	var a Address
	var c City
	err := s.db.QueryRow(ctx, `
		SELECT a.id::text, a.user_id, a.street_address, a.unit, a.city_id::text, a.zip_code, a.is_default, a.created_at,
		       c.id::text, c.name, c.state
		FROM addresses a
		JOIN cities c ON c.id = a.city_id
		WHERE a.user_id = $1 AND a.is_default`, userID,
	).Scan(&a.ID, &a.UserID, &a.StreetAddress, &a.Unit, &a.CityID, &a.ZipCode, &a.IsDefault, &a.CreatedAt,
		&c.ID, &c.Name, &c.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.City = &c
	return &a, nil
}

// UpsertDefault rewrites the user's default address in place, inserting it
// the first time. The partial unique index keeps it to one row.
func (s *Store) UpsertDefault(ctx context.Context, a *Address) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE addresses
		SET street_address = $2, unit = $3, city_id = $4, zip_code = $5
		WHERE user_id = $1 AND is_default`,
		a.UserID, a.StreetAddress, a.Unit, string(a.CityID), a.ZipCode,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO addresses (id, user_id, street_address, unit, city_id, zip_code, is_default, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())`,
			string(a.ID), a.UserID, a.StreetAddress, a.Unit, string(a.CityID), a.ZipCode,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

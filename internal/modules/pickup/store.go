// README: Pickup store backed by PostgreSQL; ownership scoping is applied by the service.
package pickup

import (
	"context"
	"errors"
	"strings"

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

const pickupColumns = `
	p.id::text, p.user_id, p.service_type, p.price, p.number_of_boxes, p.item_size,
	p.label_file_url, p.pickup_address, p.pickup_zip, to_char(p.pickup_date, 'YYYY-MM-DD'),
	p.pickup_time, p.status, p.dropoff_photo_url, p.tracking_number, p.created_at, p.updated_at`

func (s *Store) Create(ctx context.Context, p *Pickup) error {
	var size *string
	if p.ItemSize != nil {
		v := string(*p.ItemSize)
		size = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO pickups (
			id, user_id, service_type, price, number_of_boxes, item_size,
			label_file_url, pickup_address, pickup_zip, pickup_date, pickup_time,
			status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10::date, $11,
			$12, $13, $13
		)`,
		string(p.ID),
		p.UserID,
		string(p.ServiceType),
		p.Price,
		p.NumberOfBoxes,
		size,
		p.LabelFileURL,
		p.PickupAddress,
		p.PickupZip,
		p.PickupDate,
		p.PickupTime,
		string(p.Status),
		p.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Pickup, error) {
	row := s.db.QueryRow(ctx, `SELECT `+pickupColumns+` FROM pickups p WHERE p.id = $1`, string(id))
	p, err := scanPickup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListByOwner(ctx context.Context, userID string) ([]Pickup, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+pickupColumns+`
		FROM pickups p
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, false)
}

// ListAll joins the owner's profile for the admin console.
func (s *Store) ListAll(ctx context.Context, f ListFilter) ([]Pickup, error) {
	var status *string
	if f.Status != nil {
		v := string(*f.Status)
		status = &v
	}
	var q *string
	if trimmed := strings.TrimSpace(f.Query); trimmed != "" {
		v := "%" + escapeLike(trimmed) + "%"
		q = &v
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+pickupColumns+`, pr.full_name, pr.phone
		FROM pickups p
		LEFT JOIN profiles pr ON pr.user_id = p.user_id
		WHERE ($1::text IS NULL OR p.status = $1)
		  AND ($2::text IS NULL
		       OR p.pickup_address ILIKE $2
		       OR pr.full_name ILIKE $2
		       OR p.id::text ILIKE $2)
		ORDER BY p.created_at DESC`, status, q,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, true)
}

// UpdateStatus overwrites the status (last write wins). When expect is set the
// write only applies if the row is still in that state.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, expect *Status, to Status) (bool, error) {
	var from *string
	if expect != nil {
		v := string(*expect)
		from = &v
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE pickups
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND ($3::text IS NULL OR status = $3)`,
		string(to), string(id), from,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetLabel(ctx context.Context, id types.ID, url string) (bool, error) {
	return s.setText(ctx, id, "label_file_url", url)
}

func (s *Store) SetDropoffPhoto(ctx context.Context, id types.ID, url string) (bool, error) {
	return s.setText(ctx, id, "dropoff_photo_url", url)
}

func (s *Store) SetTracking(ctx context.Context, id types.ID, number string) (bool, error) {
	return s.setText(ctx, id, "tracking_number", number)
}

// setText updates one whitelisted column; column is never caller input.
func (s *Store) setText(ctx context.Context, id types.ID, column, value string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE pickups SET `+column+` = $1, updated_at = NOW() WHERE id = $2`, value, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanPickup(row pgx.Row, extra ...any) (*Pickup, error) {
	var p Pickup
	var size *string
	dest := []any{
		&p.ID, &p.UserID, &p.ServiceType, &p.Price, &p.NumberOfBoxes, &size,
		&p.LabelFileURL, &p.PickupAddress, &p.PickupZip, &p.PickupDate,
		&p.PickupTime, &p.Status, &p.DropoffPhotoURL, &p.TrackingNumber, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if size != nil {
		v := ItemSize(*size)
		p.ItemSize = &v
	}
	return &p, nil
}

func collect(rows pgx.Rows, withOwner bool) ([]Pickup, error) {
	defer rows.Close()
	out := []Pickup{}
	for rows.Next() {
		var name, phone *string
		var extra []any
		if withOwner {
			extra = []any{&name, &phone}
		}
		p, err := scanPickup(rows, extra...)
		if err != nil {
			return nil, err
		}
		p.OwnerName, p.OwnerPhone = name, phone
		out = append(out, *p)
	}
	return out, rows.Err()
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

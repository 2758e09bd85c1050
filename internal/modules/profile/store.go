// README: Profile store backed by PostgreSQL; rows are soft-deleted, never removed.
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vdrop/internal/modules/identity"
	"vdrop/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const profileColumns = `
	id::text, user_id, email, full_name, phone, role, deleted_at,
	notification_marketing_email, notification_order_email, created_at, updated_at`

// LookupRole returns nil, nil when no row exists for the user.
func (s *Store) LookupRole(ctx context.Context, userID string) (*identity.StoredProfile, error) {
	var sp identity.StoredProfile
	err := s.db.QueryRow(ctx, `SELECT role, deleted_at FROM profiles WHERE user_id = $1`, userID).
		Scan(&sp.Role, &sp.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Profile, error) {
	return s.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, string(id))
}

func (s *Store) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	return s.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns active profiles only.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Profile, error) {
	var role *string
	if f.Role != nil {
		v := string(*f.Role)
		role = &v
	}
	var q *string
	if trimmed := strings.TrimSpace(f.Query); trimmed != "" {
		v := "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(trimmed) + "%"
		q = &v
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE deleted_at IS NULL
		  AND ($1::text IS NULL OR role = $1)
		  AND ($2::text IS NULL OR full_name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)
		ORDER BY created_at DESC`, role, q,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// EnsureExists inserts the row if the user has none; existing rows are untouched.
func (s *Store) EnsureExists(ctx context.Context, p *Profile) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO profiles (id, user_id, email, full_name, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`,
		string(p.ID), p.UserID, p.Email, p.FullName, p.Phone, string(p.Role),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertSelf writes the owner-editable fields, creating the row if needed.
func (s *Store) UpsertSelf(ctx context.Context, p *Profile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO profiles (id, user_id, email, full_name, phone, notification_marketing_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    phone = EXCLUDED.phone,
		    notification_marketing_email = EXCLUDED.notification_marketing_email,
		    email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE profiles.email END,
		    updated_at = NOW()`,
		string(p.ID), p.UserID, p.Email, p.FullName, p.Phone, p.MarketingEmail,
	)
	return err
}

type AdminEdit struct {
	Role     identity.Role
	FullName *string
	SetPhone bool
	Phone    *string
}

// UpdateAdmin persists a role edit (plus optional name/phone) as one statement.
func (s *Store) UpdateAdmin(ctx context.Context, id types.ID, e AdminEdit) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE profiles
		SET role = $2,
		    full_name = COALESCE($3, full_name),
		    phone = CASE WHEN $4 THEN $5 ELSE phone END,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		string(id), string(e.Role), e.FullName, e.SetPhone, e.Phone,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SoftDelete(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE profiles
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Email, &p.FullName, &p.Phone, &p.Role, &p.DeletedAt,
		&p.MarketingEmail, &p.OrderEmail, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

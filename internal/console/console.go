// README: Operator console: pickup and user boards over the admin API.
package console

import (
	"context"
	"slices"

	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
)

// Backend is the admin API surface the console needs; Client implements it.
type Backend interface {
	ListPickups(ctx context.Context, status, q string) ([]pickup.Pickup, error)
	Transition(ctx context.Context, id types.ID, status string) (*pickup.Pickup, error)
	ListUsers(ctx context.Context, role, q string) ([]profile.Profile, error)
	SetRole(ctx context.Context, id types.ID, role string) (*profile.Profile, error)
	Deactivate(ctx context.Context, id types.ID) error
	Invite(ctx context.Context, cmd profile.InviteCommand) (*profile.Profile, error)
}

type PickupFilter struct {
	Status string
	Query  string
}

type UserFilter struct {
	Role  string
	Query string
}

type Console struct {
	backend Backend
	Pickups *Board[pickup.Pickup]
	Users   *Board[profile.Profile]
}

func New(backend Backend, pf PickupFilter, uf UserFilter) *Console {
	return &Console{
		backend: backend,
		Pickups: NewBoard(func(ctx context.Context) ([]pickup.Pickup, error) {
			return backend.ListPickups(ctx, pf.Status, pf.Query)
		}),
		Users: NewBoard(func(ctx context.Context) ([]profile.Profile, error) {
			return backend.ListUsers(ctx, uf.Role, uf.Query)
		}),
	}
}

// Stats is recomputed from the board rows, never cached.
func (c *Console) Stats() pickup.Stats {
	return pickup.ComputeStats(c.Pickups.Rows())
}

// TransitionPickup sends the raw target so the server remains the judge of
// validity; only a parseable target is shown tentatively.
func (c *Console) TransitionPickup(ctx context.Context, id types.ID, target string) error {
	return c.Pickups.Apply(ctx,
		func(rows []pickup.Pickup) []pickup.Pickup {
			to, err := pickup.ParseStatus(target)
			if err != nil {
				return rows
			}
			for i := range rows {
				if rows[i].ID == id {
					rows[i].Status = to
				}
			}
			return rows
		},
		func(ctx context.Context) error {
			_, err := c.backend.Transition(ctx, id, target)
			return err
		},
	)
}

func (c *Console) SetRole(ctx context.Context, id types.ID, role string) error {
	return c.Users.Apply(ctx,
		func(rows []profile.Profile) []profile.Profile {
			r, ok := identity.ParseRole(role)
			if !ok {
				return rows
			}
			for i := range rows {
				if rows[i].ID == id {
					rows[i].Role = r
				}
			}
			return rows
		},
		func(ctx context.Context) error {
			_, err := c.backend.SetRole(ctx, id, role)
			return err
		},
	)
}

// Deactivate hides the row at once; the directory never lists deleted users.
func (c *Console) Deactivate(ctx context.Context, id types.ID) error {
	return c.Users.Apply(ctx,
		func(rows []profile.Profile) []profile.Profile {
			return slices.DeleteFunc(rows, func(p profile.Profile) bool { return p.ID == id })
		},
		func(ctx context.Context) error {
			return c.backend.Deactivate(ctx, id)
		},
	)
}

// Invite is not optimistic; the row appears on the next refresh.
func (c *Console) Invite(ctx context.Context, cmd profile.InviteCommand) (*profile.Profile, error) {
	p, err := c.backend.Invite(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return p, c.Users.Refresh(ctx)
}

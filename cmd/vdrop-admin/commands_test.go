// README: vdrop-admin dispatch tests against an in-memory backend.
package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
)

const (
	pickupID = "0b6d3a7e-2f4c-4d1a-9e8b-5c6d7e8f9a0b"
	userID   = "1c7e4b8f-3a5d-4e2b-8f9c-6d7e8f9a0b1c"
)

type stubBackend struct {
	pickups     []pickup.Pickup
	users       []profile.Profile
	status      string
	q           string
	transitions []string
	invited     *profile.InviteCommand
	deactivated []types.ID
	err         error
}

func (s *stubBackend) ListPickups(_ context.Context, status, q string) ([]pickup.Pickup, error) {
	s.status, s.q = status, q
	return s.pickups, nil
}

func (s *stubBackend) Transition(_ context.Context, id types.ID, status string) (*pickup.Pickup, error) {
	s.transitions = append(s.transitions, string(id)+"->"+status)
	if s.err != nil {
		return nil, s.err
	}
	return &pickup.Pickup{ID: id}, nil
}

func (s *stubBackend) ListUsers(context.Context, string, string) ([]profile.Profile, error) {
	return s.users, nil
}

func (s *stubBackend) SetRole(_ context.Context, id types.ID, role string) (*profile.Profile, error) {
	return &profile.Profile{ID: id, Role: identity.Role(role)}, s.err
}

func (s *stubBackend) Deactivate(_ context.Context, id types.ID) error {
	s.deactivated = append(s.deactivated, id)
	return s.err
}

func (s *stubBackend) Invite(_ context.Context, cmd profile.InviteCommand) (*profile.Profile, error) {
	s.invited = &cmd
	return &profile.Profile{ID: types.NewID(), Email: cmd.Email, Role: identity.RoleCustomer}, nil
}

func TestRun_PickupsPassesFiltersAndPrintsStats(t *testing.T) {
	be := &stubBackend{pickups: []pickup.Pickup{
		{ID: pickupID, Status: pickup.StatusCompleted, Price: 25},
	}}
	var out bytes.Buffer

	err := run(context.Background(), be, &out, "pickups", []string{"-status", "completed", "-q", "king"})
	require.NoError(t, err)
	assert.Equal(t, "completed", be.status)
	assert.Equal(t, "king", be.q)
	assert.Contains(t, out.String(), pickupID)
	assert.Contains(t, out.String(), "completed=1")
	assert.Contains(t, out.String(), "revenue=$25 CAD")
}

func TestRun_TransitionSendsRawTarget(t *testing.T) {
	be := &stubBackend{pickups: []pickup.Pickup{{ID: pickupID, Status: pickup.StatusPending}}}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), be, &out, "transition", []string{pickupID, "confirmed"}))
	assert.Equal(t, []string{pickupID + "->confirmed"}, be.transitions)
	assert.Contains(t, out.String(), "active=1")

	be.err = errors.New("boom")
	assert.Error(t, run(context.Background(), be, &out, "transition", []string{pickupID, "completed"}))

	assert.Error(t, run(context.Background(), be, &out, "transition", []string{"not-a-uuid", "completed"}))
	assert.ErrorIs(t, run(context.Background(), be, &out, "transition", []string{pickupID}), errUsage)
}

func TestRun_UserCommands(t *testing.T) {
	be := &stubBackend{users: []profile.Profile{{ID: userID, FullName: "Casey", Role: identity.RoleCustomer}}}
	var out bytes.Buffer
	ctx := context.Background()

	require.NoError(t, run(ctx, be, &out, "users", nil))
	assert.Contains(t, out.String(), "Casey")

	require.NoError(t, run(ctx, be, &out, "set-role", []string{userID, "driver"}))
	require.NoError(t, run(ctx, be, &out, "deactivate", []string{userID}))
	assert.Equal(t, []types.ID{userID}, be.deactivated)

	require.NoError(t, run(ctx, be, &out, "invite", []string{"new@example.com", "-name", "Nia", "-role", "driver"}))
	require.NotNil(t, be.invited)
	assert.Equal(t, "new@example.com", be.invited.Email)
	assert.Equal(t, "Nia", be.invited.FullName)
	assert.Equal(t, "driver", be.invited.Role)

	assert.Error(t, run(ctx, be, &out, "bogus", nil))
}

// README: Console tests: optimistic apply, revert-by-refetch, and the HTTP client.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/profile"
	"vdrop/internal/types"
)

type fakeBackend struct {
	pickups  []pickup.Pickup
	users    []profile.Profile
	failNext error
	loads    int
	invited  []profile.InviteCommand
}

func (f *fakeBackend) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeBackend) ListPickups(context.Context, string, string) ([]pickup.Pickup, error) {
	f.loads++
	return append([]pickup.Pickup(nil), f.pickups...), nil
}

func (f *fakeBackend) Transition(_ context.Context, id types.ID, status string) (*pickup.Pickup, error) {
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	for i := range f.pickups {
		if f.pickups[i].ID == id {
			f.pickups[i].Status = pickup.Status(status)
			return &f.pickups[i], nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound}
}

func (f *fakeBackend) ListUsers(context.Context, string, string) ([]profile.Profile, error) {
	f.loads++
	return append([]profile.Profile(nil), f.users...), nil
}

func (f *fakeBackend) SetRole(_ context.Context, id types.ID, role string) (*profile.Profile, error) {
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Role = identity.Role(role)
			return &f.users[i], nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound}
}

func (f *fakeBackend) Deactivate(_ context.Context, id types.ID) error {
	if err := f.takeErr(); err != nil {
		return err
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return &APIError{Status: http.StatusNotFound}
}

func (f *fakeBackend) Invite(_ context.Context, cmd profile.InviteCommand) (*profile.Profile, error) {
	f.invited = append(f.invited, cmd)
	p := profile.Profile{ID: types.NewID(), Email: cmd.Email, FullName: cmd.FullName, Role: identity.RoleCustomer}
	f.users = append(f.users, p)
	return &p, nil
}

func seeded() *fakeBackend {
	return &fakeBackend{
		pickups: []pickup.Pickup{
			{ID: "p1", Status: pickup.StatusPending, Price: 10},
			{ID: "p2", Status: pickup.StatusPickedUp, Price: 20},
		},
		users: []profile.Profile{
			{ID: "u1", FullName: "Casey", Role: identity.RoleCustomer},
			{ID: "u2", FullName: "Dana", Role: identity.RoleDriver},
		},
	}
}

func TestTransitionPickup_RecomputesStats(t *testing.T) {
	be := seeded()
	c := New(be, PickupFilter{}, UserFilter{})
	ctx := context.Background()
	require.NoError(t, c.Pickups.Refresh(ctx))

	before := c.Stats()
	assert.Equal(t, 1, before.Pending)

	require.NoError(t, c.TransitionPickup(ctx, "p1", "confirmed"))
	after := c.Stats()
	assert.Equal(t, 0, after.Pending)
	assert.Equal(t, 2, after.Active)
	assert.Equal(t, int64(30), after.Revenue)
	assert.Equal(t, 1, be.loads, "success must not refetch")
}

func TestTransitionPickup_FailureRevertsByRefetch(t *testing.T) {
	be := seeded()
	c := New(be, PickupFilter{}, UserFilter{})
	ctx := context.Background()
	require.NoError(t, c.Pickups.Refresh(ctx))

	be.failNext = &APIError{Status: http.StatusBadRequest, Message: "validation failed"}
	err := c.TransitionPickup(ctx, "p1", "cancelled")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	assert.Equal(t, 2, be.loads)
	assert.Equal(t, pickup.StatusPending, c.Pickups.Rows()[0].Status)
	assert.Equal(t, 1, c.Stats().Pending)
}

func TestUserBoard_SetRoleAndDeactivate(t *testing.T) {
	be := seeded()
	c := New(be, PickupFilter{}, UserFilter{})
	ctx := context.Background()
	require.NoError(t, c.Users.Refresh(ctx))

	require.NoError(t, c.SetRole(ctx, "u1", "admin"))
	assert.Equal(t, identity.RoleAdmin, c.Users.Rows()[0].Role)

	be.failNext = errors.New("connection reset")
	require.Error(t, c.Deactivate(ctx, "u2"))
	assert.Len(t, c.Users.Rows(), 2, "failed deactivate must restore the row")

	require.NoError(t, c.Deactivate(ctx, "u2"))
	assert.Len(t, c.Users.Rows(), 1)

	p, err := c.Invite(ctx, profile.InviteCommand{Email: "new@example.com", FullName: "Nia"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)
	assert.Len(t, c.Users.Rows(), 2)
}

func TestClient_SendsTokenAndDecodesErrors(t *testing.T) {
	var gotAuth, gotQuery, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/pickups":
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode(map[string]any{
				"pickups": []pickup.Pickup{{ID: "p1", Status: pickup.StatusPending, Price: 10}},
			})
		case r.Method == http.MethodPatch && r.URL.Path == "/api/admin/pickups/p1/status":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotBody = body["status"]
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":        "validation failed",
				"field_errors": map[string]string{"status": "Invalid status"},
			})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok", time.Second)
	ctx := context.Background()

	list, err := c.ListPickups(ctx, "pending", "main st")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "q=main+st&status=pending", gotQuery)

	_, err = c.Transition(ctx, "p1", "teleported")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "teleported", gotBody)
	assert.Equal(t, "Invalid status", apiErr.FieldErrors["status"])
	assert.Contains(t, apiErr.Error(), "status: Invalid status")

	require.NoError(t, c.Deactivate(ctx, "u1"))
}

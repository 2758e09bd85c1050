// README: Pickup store tests against Postgres (skipped without VDROP_TEST_DSN).
package pickup

import (
	"context"
	"sync"
	"testing"
	"time"

	"vdrop/internal/modules/pricing"
	"vdrop/internal/testutil"
	"vdrop/internal/types"
)

func setupTestService(t *testing.T) (*Service, *Store) {
	t.Helper()
	db := testutil.Pool(t)
	if _, err := db.Exec(context.Background(), `
		INSERT INTO profiles (id, user_id, email, full_name, phone)
		VALUES ($1, 'cust1', 'cust1@example.com', 'Casey Customer', '5195550100')`, string(types.NewID())); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	store := NewStore(db)
	svc := NewService(Deps{
		Store:   store,
		Pricing: pricing.NewService(pricing.DefaultRates),
		Now:     func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) },
	})
	return svc, store
}

func TestStore_CreateAndGet(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, customer, standardCmd())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 7 || got.Status != StatusPending || got.ItemSize != nil {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.NumberOfBoxes == nil || *got.NumberOfBoxes != 2 {
		t.Fatalf("expected 2 boxes, got %v", got.NumberOfBoxes)
	}
	if got.PickupDate != "2025-06-01" || got.PickupZip != "N6A 1A1" {
		t.Fatalf("unexpected schedule: %s %s", got.PickupDate, got.PickupZip)
	}

	if _, err := store.Get(ctx, types.NewID()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListAllSearchAndOwnerJoin(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, customer, standardCmd())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cmd := premiumCmd()
	cmd.Address = "9 Dundas St"
	b, err := svc.Create(ctx, customer, cmd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transition(ctx, admin, TransitionCommand{PickupID: b.ID, Target: "cancelled"}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	byName, err := store.ListAll(ctx, ListFilter{Query: "casey"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byName) != 2 || byName[0].OwnerName == nil || *byName[0].OwnerName != "Casey Customer" {
		t.Fatalf("expected both rows with owner name, got %+v", byName)
	}

	byAddress, _ := store.ListAll(ctx, ListFilter{Query: "dundas"})
	if len(byAddress) != 1 || byAddress[0].ID != b.ID {
		t.Fatalf("expected only %s, got %+v", b.ID, byAddress)
	}

	pending := StatusPending
	byStatus, _ := store.ListAll(ctx, ListFilter{Status: &pending})
	if len(byStatus) != 1 || byStatus[0].ID != a.ID {
		t.Fatalf("expected only %s, got %+v", a.ID, byStatus)
	}

	byID, _ := store.ListAll(ctx, ListFilter{Query: string(a.ID)[:8]})
	if len(byID) != 1 {
		t.Fatalf("expected id prefix match, got %d rows", len(byID))
	}
}

// TestConcurrentTransitionsLastWriteWins checks that racing staff updates never error
// and leave the row in one of the requested states.
func TestConcurrentTransitionsLastWriteWins(t *testing.T) {
	svc, store := setupTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, customer, standardCmd())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	targets := []string{"driver_assigned", "picked_up", "driver_assigned", "picked_up"}
	start := make(chan struct{})
	errs := make(chan error, len(targets))
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			<-start
			_, err := svc.Transition(ctx, admin, TransitionCommand{PickupID: p.ID, Target: to})
			errs <- err
		}(target)
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got, _ := store.Get(ctx, p.ID)
	if got.Status != StatusDriverAssigned && got.Status != StatusPickedUp {
		t.Fatalf("unexpected final status %s", got.Status)
	}
}

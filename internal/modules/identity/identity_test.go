// README: Role resolution, capability, resolver caching, and gate tests.
package identity

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestPolicy_ResolveRole(t *testing.T) {
	deleted := time.Now()
	policy := NewPolicy([]string{"Boss@Vdrop.ca"})

	cases := []struct {
		name    string
		email   string
		profile *StoredProfile
		want    Role
	}{
		{"no profile", "someone@example.com", nil, RoleCustomer},
		{"no profile but allow-listed", "boss@vdrop.ca", nil, RoleAdmin},
		{"stored customer", "someone@example.com", &StoredProfile{Role: RoleCustomer}, RoleCustomer},
		{"stored customer but allow-listed", "BOSS@vdrop.ca", &StoredProfile{Role: RoleCustomer}, RoleAdmin},
		{"stored driver", "d@example.com", &StoredProfile{Role: RoleDriver}, RoleDriver},
		{"stored driver and allow-listed", "boss@vdrop.ca", &StoredProfile{Role: RoleDriver}, RoleAdmin},
		{"stored admin", "a@example.com", &StoredProfile{Role: RoleAdmin}, RoleAdmin},
		{"soft-deleted admin", "a@example.com", &StoredProfile{Role: RoleAdmin, DeletedAt: &deleted}, RoleCustomer},
		{"soft-deleted allow-listed", "boss@vdrop.ca", &StoredProfile{Role: RoleCustomer, DeletedAt: &deleted}, RoleCustomer},
	}
	for _, tc := range cases {
		if got := policy.ResolveRole(tc.email, tc.profile); got != tc.want {
			t.Errorf("%s: ResolveRole = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCapabilitiesFor(t *testing.T) {
	cases := []struct {
		role Role
		want Capabilities
	}{
		{RoleAdmin, Capabilities{CanViewAdmin: true, CanMutatePickups: true, CanManageUsers: true}},
		{RoleDriver, Capabilities{CanViewAdmin: true, CanMutatePickups: true}},
		{RoleCustomer, Capabilities{}},
		{Role("ghost"), Capabilities{}},
	}
	for _, tc := range cases {
		if got := CapabilitiesFor(tc.role); got != tc.want {
			t.Errorf("CapabilitiesFor(%s) = %+v, want %+v", tc.role, got, tc.want)
		}
	}
}

type stubLookup struct {
	profile *StoredProfile
	err     error
	calls   int
}

func (s *stubLookup) LookupRole(_ context.Context, _ string) (*StoredProfile, error) {
	s.calls++
	return s.profile, s.err
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]Actor
	gens    map[string]int64
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]Actor{}, gens: map[string]int64{}}
}

func (m *memCache) Get(_ context.Context, uid string) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.entries[uid]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memCache) Generation(_ context.Context, uid string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[uid], nil
}

func (m *memCache) SetIfGeneration(_ context.Context, a Actor, gen int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[a.UserID] == gen {
		m.entries[a.UserID] = a
	}
	return nil
}

func (m *memCache) Invalidate(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[uid]++
	delete(m.entries, uid)
	return nil
}

// blockingLookup returns the profile it held when the call started, after
// release is closed.
type blockingLookup struct {
	mu      sync.Mutex
	profile *StoredProfile
	entered chan struct{}
	release chan struct{}
}

func (b *blockingLookup) set(p *StoredProfile) {
	b.mu.Lock()
	b.profile = p
	b.mu.Unlock()
}

func (b *blockingLookup) LookupRole(_ context.Context, _ string) (*StoredProfile, error) {
	b.mu.Lock()
	p := b.profile
	entered := b.entered
	b.entered = nil
	b.mu.Unlock()
	if entered != nil {
		close(entered)
		<-b.release
	}
	return p, nil
}

func TestResolver_CachesUntilInvalidated(t *testing.T) {
	lookup := &stubLookup{profile: &StoredProfile{Role: RoleDriver}}
	cache := newMemCache()
	r := NewResolver(lookup, NewPolicy(nil), cache, nil)
	ctx := context.Background()

	first := r.Resolve(ctx, "u1", "d@example.com")
	second := r.Resolve(ctx, "u1", "d@example.com")
	if first.Role != RoleDriver || second.Role != RoleDriver {
		t.Fatalf("expected driver, got %s / %s", first.Role, second.Role)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected 1 lookup, got %d", lookup.calls)
	}

	lookup.profile = &StoredProfile{Role: RoleCustomer}
	r.Invalidate(ctx, "u1")
	third := r.Resolve(ctx, "u1", "d@example.com")
	if third.Role != RoleCustomer || third.Capabilities.CanMutatePickups {
		t.Fatalf("expected demoted customer, got %+v", third)
	}
	if lookup.calls != 2 {
		t.Fatalf("expected 2 lookups, got %d", lookup.calls)
	}
}

func TestResolver_InvalidateDuringLookupIsNotUndone(t *testing.T) {
	lookup := &blockingLookup{
		profile: &StoredProfile{Role: RoleAdmin},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := newMemCache()
	r := NewResolver(lookup, NewPolicy(nil), cache, nil)
	ctx := context.Background()

	entered := lookup.entered
	done := make(chan Actor)
	go func() { done <- r.Resolve(ctx, "u1", "a@example.com") }()
	<-entered

	deleted := time.Now()
	lookup.set(&StoredProfile{Role: RoleAdmin, DeletedAt: &deleted})
	r.Invalidate(ctx, "u1")
	close(lookup.release)

	if stale := <-done; stale.Role != RoleAdmin {
		t.Fatalf("in-flight resolve should see the pre-edit row, got %s", stale.Role)
	}
	if got, _ := cache.Get(ctx, "u1"); got != nil {
		t.Fatalf("stale actor written back after invalidate: %+v", got)
	}
	after := r.Resolve(ctx, "u1", "a@example.com")
	if after.Role != RoleCustomer || after.Capabilities != (Capabilities{}) {
		t.Fatalf("deactivated admin must resolve to customer, got %+v", after)
	}
}

func TestResolver_LookupErrorFailsClosed(t *testing.T) {
	lookup := &stubLookup{err: errors.New("db down")}
	cache := newMemCache()
	r := NewResolver(lookup, NewPolicy([]string{"boss@vdrop.ca"}), cache, nil)

	a := r.Resolve(context.Background(), "u1", "boss@vdrop.ca")
	if a.Role != RoleCustomer || a.Capabilities != (Capabilities{}) {
		t.Fatalf("expected customer without capabilities, got %+v", a)
	}
	if len(cache.entries) != 0 {
		t.Fatal("failed resolution must not be cached")
	}
}

func TestGate(t *testing.T) {
	admin := &Actor{UserID: "a", Role: RoleAdmin, Capabilities: CapabilitiesFor(RoleAdmin)}
	driver := &Actor{UserID: "d", Role: RoleDriver, Capabilities: CapabilitiesFor(RoleDriver)}
	customer := &Actor{UserID: "c", Role: RoleCustomer}

	cases := []struct {
		name  string
		state SessionState
		actor *Actor
		need  Capability
		want  GateDecision
	}{
		{"resolving", SessionResolving, nil, CapViewAdmin, GatePending},
		{"resolving ignores actor", SessionResolving, customer, CapViewAdmin, GatePending},
		{"no session", SessionAbsent, nil, CapViewAdmin, GateRedirectLogin},
		{"customer on admin view", SessionPresent, customer, CapViewAdmin, GateAccessDenied},
		{"driver on admin view", SessionPresent, driver, CapViewAdmin, GateAllow},
		{"driver on users view", SessionPresent, driver, CapManageUsers, GateAccessDenied},
		{"admin on users view", SessionPresent, admin, CapManageUsers, GateAllow},
	}
	for _, tc := range cases {
		got := Gate(tc.state, tc.actor, tc.need)
		if got.Decision != tc.want {
			t.Errorf("%s: decision = %s, want %s", tc.name, got.Decision, tc.want)
		}
		if got.Decision == GateAccessDenied && (got.Redirect != DashboardPath || got.Notice != AccessDeniedTitle) {
			t.Errorf("%s: denial should redirect to dashboard with notice, got %+v", tc.name, got)
		}
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("VDROP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VDROP_TEST_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	cache := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()
	uid := "cache_test_" + time.Now().Format("150405.000000000")

	got, err := cache.Get(ctx, uid)
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %+v, %v", got, err)
	}
	want := Actor{UserID: uid, Email: "x@example.com", Role: RoleDriver, Capabilities: CapabilitiesFor(RoleDriver)}
	if err := cache.SetIfGeneration(ctx, want, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = cache.Get(ctx, uid)
	if err != nil || got == nil || *got != want {
		t.Fatalf("expected %+v, got %+v, %v", want, got, err)
	}
	if err := cache.Invalidate(ctx, uid); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got, _ := cache.Get(ctx, uid); got != nil {
		t.Fatal("expected miss after invalidate")
	}

	gen, err := cache.Generation(ctx, uid)
	if err != nil || gen != 1 {
		t.Fatalf("expected generation 1, got %d, %v", gen, err)
	}
	if err := cache.SetIfGeneration(ctx, want, gen-1); err != nil {
		t.Fatalf("stale set: %v", err)
	}
	if got, _ := cache.Get(ctx, uid); got != nil {
		t.Fatal("write from an older generation must be dropped")
	}
	if err := cache.SetIfGeneration(ctx, want, gen); err != nil {
		t.Fatalf("current set: %v", err)
	}
	if got, _ := cache.Get(ctx, uid); got == nil {
		t.Fatal("write at the current generation must be stored")
	}
}

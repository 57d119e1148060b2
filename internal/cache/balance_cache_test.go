package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
)

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}

func (failingStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend down")
}

func (failingStore) Delete(context.Context, ...string) error {
	return errors.New("backend down")
}

// recordingStore wraps a MemoryStore and remembers TTLs.
type recordingStore struct {
	*MemoryStore
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func (r *recordingStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	r.ttls[key] = ttl
	r.mu.Unlock()
	return r.MemoryStore.SetWithTTL(ctx, key, value, ttl)
}

func sampleBalances() []calculator.Balance {
	return []calculator.Balance{
		{UserID: "a", UserName: "Alice", Amount: decimal.RequireFromString("200")},
		{UserID: "b", UserName: "Bob", Amount: decimal.RequireFromString("-100")},
		{UserID: "c", UserName: "Carol", Amount: decimal.RequireFromString("-100")},
	}
}

func TestKeys(t *testing.T) {
	if got := GroupKey("g1"); got != "balance:group:g1" {
		t.Errorf("GroupKey = %q", got)
	}
	if got := UserKey("u1"); got != "balance:user:u1" {
		t.Errorf("UserKey = %q", got)
	}
}

func TestBalanceCache_GroupReadThrough(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	c := NewBalanceCache(NewMemoryStore(0), WithMetrics(m))

	var loads int
	load := func(context.Context) ([]calculator.Balance, error) {
		loads++
		return sampleBalances(), nil
	}

	first, err := c.GroupBalances(ctx, "g1", load)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	second, err := c.GroupBalances(ctx, "g1", load)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}

	if loads != 1 {
		t.Errorf("load called %d times, want 1", loads)
	}
	if len(second) != len(first) {
		t.Fatalf("cached len = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i].UserID != first[i].UserID || second[i].UserName != first[i].UserName || !second[i].Amount.Equal(first[i].Amount) {
			t.Errorf("cached[%d] = %+v, want %+v", i, second[i], first[i])
		}
	}

	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("group", "hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("group", "miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestBalanceCache_UserReadThrough(t *testing.T) {
	ctx := context.Background()
	c := NewBalanceCache(NewMemoryStore(0))

	var loads int
	load := func(context.Context) (decimal.Decimal, error) {
		loads++
		return decimal.RequireFromString("-33.33"), nil
	}

	for range 3 {
		got, err := c.UserBalance(ctx, "u1", load)
		if err != nil {
			t.Fatalf("UserBalance failed: %v", err)
		}
		if !got.Equal(decimal.RequireFromString("-33.33")) {
			t.Errorf("UserBalance = %s, want -33.33", got)
		}
	}
	if loads != 1 {
		t.Errorf("load called %d times, want 1", loads)
	}
}

func TestBalanceCache_TTLs(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{MemoryStore: NewMemoryStore(0), ttls: map[string]time.Duration{}}

	tests := []struct {
		name      string
		opts      []Option
		wantGroup time.Duration
		wantUser  time.Duration
	}{
		{"defaults", nil, 5 * time.Minute, 2 * time.Minute},
		{"overrides", []Option{WithTTLs(time.Minute, 30*time.Second)}, time.Minute, 30 * time.Second},
		{"zero keeps default", []Option{WithTTLs(0, 0)}, 5 * time.Minute, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.Delete(ctx, GroupKey("g1"), UserKey("u1"))
			c := NewBalanceCache(store, tt.opts...)

			c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
				return sampleBalances(), nil
			})
			c.UserBalance(ctx, "u1", func(context.Context) (decimal.Decimal, error) {
				return decimal.Zero, nil
			})

			store.mu.Lock()
			defer store.mu.Unlock()
			if got := store.ttls[GroupKey("g1")]; got != tt.wantGroup {
				t.Errorf("group ttl = %v, want %v", got, tt.wantGroup)
			}
			if got := store.ttls[UserKey("u1")]; got != tt.wantUser {
				t.Errorf("user ttl = %v, want %v", got, tt.wantUser)
			}
		})
	}
}

func TestBalanceCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	m := metrics.New(prometheus.NewRegistry())
	c := NewBalanceCache(store, WithMetrics(m))

	c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
		return sampleBalances(), nil
	})
	for _, id := range []string{"a", "b", "z"} {
		c.UserBalance(ctx, id, func(context.Context) (decimal.Decimal, error) {
			return decimal.NewFromInt(1), nil
		})
	}

	if err := c.Invalidate(ctx, "g1", "a", "b"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	for _, key := range []string{GroupKey("g1"), UserKey("a"), UserKey("b")} {
		if _, err := store.Get(ctx, key); !errors.Is(err, ErrMiss) {
			t.Errorf("%s still cached after Invalidate", key)
		}
	}
	if _, err := store.Get(ctx, UserKey("z")); err != nil {
		t.Errorf("unrelated key %s was dropped: %v", UserKey("z"), err)
	}
	if got := testutil.ToFloat64(m.Invalidations); got != 1 {
		t.Errorf("invalidations = %v, want 1", got)
	}

	var reloaded bool
	c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
		reloaded = true
		return sampleBalances(), nil
	})
	if !reloaded {
		t.Error("GroupBalances served a stale entry after Invalidate")
	}
}

func TestBalanceCache_InvalidateNothing(t *testing.T) {
	c := NewBalanceCache(failingStore{})
	if err := c.Invalidate(context.Background(), ""); err != nil {
		t.Errorf("Invalidate with no keys = %v, want nil", err)
	}
}

func TestBalanceCache_InvalidateFailure(t *testing.T) {
	c := NewBalanceCache(failingStore{})
	if err := c.Invalidate(context.Background(), "g1", "u1"); err == nil {
		t.Error("Invalidate should surface backend failures")
	}
}

func TestBalanceCache_DegradesOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	c := NewBalanceCache(failingStore{}, WithMetrics(m))

	var loads int
	for range 2 {
		got, err := c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
			loads++
			return sampleBalances(), nil
		})
		if err != nil {
			t.Fatalf("GroupBalances should not fail on backend errors: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	}
	if loads != 2 {
		t.Errorf("load called %d times, want 2", loads)
	}
	if got := testutil.ToFloat64(m.CacheErrors.WithLabelValues("group", "get")); got != 2 {
		t.Errorf("get errors = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheErrors.WithLabelValues("group", "set")); got != 2 {
		t.Errorf("set errors = %v, want 2", got)
	}
}

func TestBalanceCache_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	c := NewBalanceCache(store)
	loadErr := errors.New("db down")

	_, err := c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
		return nil, loadErr
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("error = %v, want %v", err, loadErr)
	}
	if store.Len() != 0 {
		t.Errorf("failed load was cached")
	}
}

func TestBalanceCache_UndecodableEntryIsReloaded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	store.SetWithTTL(ctx, GroupKey("g1"), []byte("not json"), time.Minute)
	c := NewBalanceCache(store)

	got, err := c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
		return sampleBalances(), nil
	})
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestBalanceCache_ConcurrentMissesShareLoad(t *testing.T) {
	ctx := context.Background()
	c := NewBalanceCache(NewMemoryStore(0))

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]calculator.Balance, error) {
		loads.Add(1)
		<-release
		return sampleBalances(), nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GroupBalances(ctx, "g1", load); err != nil {
				t.Errorf("GroupBalances failed: %v", err)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
}

func TestBalanceCache_InvalidateDuringLoadSkipsWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	c := NewBalanceCache(store)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
			close(started)
			<-release
			return sampleBalances(), nil
		})
	}()

	<-started
	if err := c.Invalidate(ctx, "g1"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	close(release)
	<-done

	if _, err := store.Get(ctx, GroupKey("g1")); !errors.Is(err, ErrMiss) {
		t.Error("a load that raced an invalidation repopulated the cache")
	}

	var reloaded bool
	c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
		reloaded = true
		return sampleBalances(), nil
	})
	if !reloaded {
		t.Error("expected a fresh load after the raced invalidation")
	}
}

// gatedStore parks the first SetWithTTL until release is closed.
type gatedStore struct {
	*MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.MemoryStore.SetWithTTL(ctx, key, value, ttl)
}

func TestBalanceCache_InvalidateDuringWriteLeavesNoStaleEntry(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{
		MemoryStore: NewMemoryStore(0),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := NewBalanceCache(store)

	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		c.GroupBalances(ctx, "g1", func(context.Context) ([]calculator.Balance, error) {
			return sampleBalances(), nil
		})
	}()
	<-store.entered

	invalidated := make(chan error, 1)
	go func() { invalidated <- c.Invalidate(ctx, "g1") }()

	time.Sleep(20 * time.Millisecond)
	close(store.release)
	if err := <-invalidated; err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	<-loaded

	if _, err := store.Get(ctx, GroupKey("g1")); !errors.Is(err, ErrMiss) {
		t.Error("value loaded before Invalidate is still cached after it returned")
	}
}

func TestBalanceCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewBalanceCache(NewMemoryStore(0))

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	load := func(ctx context.Context) ([]calculator.Balance, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return sampleBalances(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GroupBalances(firstCtx, "g1", load)
		firstErr <- err
	}()
	<-started

	type result struct {
		balances []calculator.Balance
		err      error
	}
	second := make(chan result, 1)
	go func() {
		got, err := c.GroupBalances(context.Background(), "g1", load)
		second <- result{got, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, want context.Canceled", err)
	}

	close(release)
	res := <-second
	if res.err != nil {
		t.Fatalf("second caller failed: %v", res.err)
	}
	if len(res.balances) != 3 {
		t.Errorf("len = %d, want 3", len(res.balances))
	}
}

func TestBalanceCache_InvalidateFailureScope(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := NewBalanceCache(failingStore{}, WithMetrics(m))

	if err := c.Invalidate(context.Background(), "", "u1"); err == nil {
		t.Fatal("Invalidate should surface backend failures")
	}
	if got := testutil.ToFloat64(m.CacheErrors.WithLabelValues("invalidate", "delete")); got != 1 {
		t.Errorf("invalidate delete errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheErrors.WithLabelValues("group", "delete")); got != 0 {
		t.Errorf("group delete errors = %v, want 0", got)
	}
}

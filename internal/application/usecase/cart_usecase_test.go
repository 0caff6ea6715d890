package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
)

type fakeProducts struct {
	items map[string]productdom.Product
}

func (f *fakeProducts) List(context.Context, productdom.Filter, productdom.ListOptions) ([]productdom.Product, error) {
	return nil, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (productdom.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) CountByCategory(context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

type memSnapshots struct {
	mu    sync.Mutex
	saved map[string]cartdom.Snapshot
	saves int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{saved: map[string]cartdom.Snapshot{}}
}

func (m *memSnapshots) Load(_ context.Context, sid string) (*cartdom.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[sid]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSnapshots) Save(_ context.Context, s cartdom.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[s.SessionID] = s
	m.saves++
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, sid)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func strPtr(s string) *string { return &s }

func catalog() *fakeProducts {
	return &fakeProducts{items: map[string]productdom.Product{
		"p1": {ID: "p1", Name: "Organic Henna Cone", Price: decimal.RequireFromString("120.50"), ImageURL: strPtr("https://img.example/p1.png")},
		"p2": {ID: "p2", Name: "Bridal Kit", Price: decimal.NewFromInt(999)},
	}}
}

func TestCartUsecase_AddItemFromCatalog(t *testing.T) {
	uc := NewCartUsecase(catalog(), CartOptions{FallbackImageURL: "https://img.example/none.png"})
	ctx := context.Background()

	st, err := uc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)
	st, err = uc.AddItem(ctx, "s1", "p2")
	require.NoError(t, err)
	st, err = uc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)

	require.Len(t, st.Items, 2)
	assert.Equal(t, "p1", st.Items[0].ID)
	assert.Equal(t, 2, st.Items[0].Quantity)
	assert.Equal(t, "https://img.example/p1.png", st.Items[0].ImageRef)
	assert.Equal(t, "https://img.example/none.png", st.Items[1].ImageRef)
	assert.Equal(t, 3, st.TotalItems)
	assert.True(t, st.TotalAmount.Equal(decimal.RequireFromString("1240")), st.TotalAmount.String())
}

func TestCartUsecase_Errors(t *testing.T) {
	uc := NewCartUsecase(catalog(), CartOptions{})
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s1", "missing")
	assert.ErrorIs(t, err, productdom.ErrNotFound)

	_, err = uc.AddItem(ctx, " ", "p1")
	assert.ErrorIs(t, err, ErrCartInvalidArgument)

	_, err = uc.AddItem(ctx, "s1", "")
	assert.ErrorIs(t, err, ErrCartInvalidArgument)

	_, _, err = uc.UpdateQuantity(ctx, "s1", "", 2)
	assert.ErrorIs(t, err, ErrCartInvalidArgument)

	st, err := uc.State(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, st.IsEmpty())
}

func TestCartUsecase_SessionsAreIsolated(t *testing.T) {
	uc := NewCartUsecase(catalog(), CartOptions{})
	ctx := context.Background()

	a, err := uc.Get(ctx, "a")
	require.NoError(t, err)
	again, err := uc.Get(ctx, " a ")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = uc.AddItem(ctx, "a", "p1")
	require.NoError(t, err)

	st, err := uc.State(ctx, "b")
	require.NoError(t, err)
	assert.True(t, st.IsEmpty())
	assert.Equal(t, 2, uc.Sessions())
}

func TestCartUsecase_UpdateRemoveClear(t *testing.T) {
	uc := NewCartUsecase(catalog(), CartOptions{})
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "s", "p1")
	require.NoError(t, err)

	st, ok, err := uc.UpdateQuantity(ctx, "s", "p1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, st.Items[0].Quantity)

	_, ok, err = uc.UpdateQuantity(ctx, "s", "ghost", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = uc.RemoveItem(ctx, "s", "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	st, ok, err = uc.RemoveItem(ctx, "s", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, st.IsEmpty())

	_, err = uc.AddItem(ctx, "s", "p2")
	require.NoError(t, err)
	st, err = uc.Clear(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalItems)
	assert.True(t, st.TotalAmount.IsZero())
}

func TestCartUsecase_SnapshotRestoreAndPersist(t *testing.T) {
	snaps := newMemSnapshots()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snaps.saved["s1"] = cartdom.Snapshot{
		SessionID: "s1",
		Items: []cartdom.LineItem{
			{ID: "p2", Name: "Bridal Kit", UnitPrice: decimal.NewFromInt(999), Quantity: 2},
		},
		UpdatedAt: now,
		ExpiresAt: now.Add(cartdom.DefaultSnapshotTTL),
	}

	uc := NewCartUsecase(catalog(), CartOptions{Snapshots: snaps})
	ctx := context.Background()

	st, err := uc.State(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, 2, st.TotalItems)
	assert.Equal(t, 0, snaps.saves, "restoring must not write back")

	_, err = uc.AddItem(ctx, "s1", "p1")
	require.NoError(t, err)

	saved, err := snaps.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Len(t, saved.Items, 2)
	assert.Equal(t, "p1", saved.Items[1].ID)

	_, err = uc.Clear(ctx, "s1")
	require.NoError(t, err)
	gone, err := snaps.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, gone, "an emptied cart drops its snapshot")
}

func TestCartUsecase_EvictIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	snaps := newMemSnapshots()
	uc := NewCartUsecase(catalog(), CartOptions{Snapshots: snaps, Clock: clock, SessionIdleTTL: time.Hour})
	ctx := context.Background()

	_, err := uc.AddItem(ctx, "idle", "p1")
	require.NoError(t, err)
	_, stop, err := uc.Watch(ctx, "watched", nil)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 0, uc.EvictIdle())

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, uc.EvictIdle())
	assert.Equal(t, 1, uc.Sessions())

	// the evicted cart comes back from its snapshot
	st, err := uc.State(ctx, "idle")
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalItems)

	stop()
	stop()
	clock.Advance(2 * time.Hour)
	assert.Equal(t, 2, uc.EvictIdle())
	assert.Equal(t, 0, uc.Sessions())
}

func TestCartUsecase_WatchReceivesChanges(t *testing.T) {
	uc := NewCartUsecase(catalog(), CartOptions{})
	ctx := context.Background()

	var got []int
	initial, stop, err := uc.Watch(ctx, "s", cartdom.ObserverFunc(func(st cartdom.State) {
		got = append(got, st.TotalItems)
	}))
	require.NoError(t, err)
	assert.True(t, initial.IsEmpty())

	_, err = uc.AddItem(ctx, "s", "p1")
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, "s", "p1")
	require.NoError(t, err)
	stop()
	_, err = uc.AddItem(ctx, "s", "p2")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, got)
}

func TestCartUsecase_RunJanitorStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	uc := NewCartUsecase(catalog(), CartOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		uc.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
}

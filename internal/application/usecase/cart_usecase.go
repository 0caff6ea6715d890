// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CartOptions are the optional collaborators of CartUsecase.
type CartOptions struct {
	// Snapshots, when set, seeds new session carts and receives a snapshot
	// after every change.
	Snapshots cartdom.SnapshotRepository

	Clock            Clock
	SessionIdleTTL   time.Duration
	SaveTimeout      time.Duration
	FallbackImageURL string
	Logger           *zap.Logger
}

type cartSession struct {
	store       *cartdom.Store
	unpersist   func()
	lastSeen    time.Time
	subscribers int
}

// CartUsecase is the session registry: one cart Store per session id.
type CartUsecase struct {
	products  productdom.Repository
	snapshots cartdom.SnapshotRepository
	clock     Clock
	idleTTL   time.Duration
	saveTO    time.Duration
	fallback  string
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*cartSession
}

func NewCartUsecase(products productdom.Repository, opts CartOptions) *CartUsecase {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SessionIdleTTL <= 0 {
		opts.SessionIdleTTL = 2 * time.Hour
	}
	return &CartUsecase{
		products:  products,
		snapshots: opts.Snapshots,
		clock:     opts.Clock,
		idleTTL:   opts.SessionIdleTTL,
		saveTO:    opts.SaveTimeout,
		fallback:  strings.TrimSpace(opts.FallbackImageURL),
		log:       opts.Logger.Named("cart_usecase"),
		sessions:  map[string]*cartSession{},
	}
}

// Get returns the session's store, creating it on first use. A new store is
// seeded from the snapshot repository when one is configured; a failing load
// is logged and the session starts empty.
func (uc *CartUsecase) Get(ctx context.Context, sessionID string) (*cartdom.Store, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrCartInvalidArgument
	}

	if st := uc.lookup(sid); st != nil {
		return st, nil
	}

	var restored []cartdom.LineItem
	if uc.snapshots != nil {
		snap, err := uc.snapshots.Load(ctx, sid)
		if err != nil {
			uc.log.Warn("load snapshot failed", zap.String("sessionId", sid), zap.Error(err))
		} else if snap != nil {
			restored = snap.Items
		}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	// another request may have created it while we were loading
	if s, ok := uc.sessions[sid]; ok {
		s.lastSeen = uc.clock.Now()
		return s.store, nil
	}

	store := cartdom.NewStore()
	if len(restored) > 0 {
		store.Restore(restored)
	}
	s := &cartSession{store: store, unpersist: func() {}, lastSeen: uc.clock.Now()}
	if uc.snapshots != nil {
		s.unpersist = store.Subscribe(cartdom.NewPersister(uc.snapshots, sid, uc.saveTO, uc.log))
	}
	uc.sessions[sid] = s

	uc.log.Debug("session cart created", zap.String("sessionId", sid), zap.Int("restoredItems", len(restored)))
	return store, nil
}

func (uc *CartUsecase) lookup(sid string) *cartdom.Store {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if s, ok := uc.sessions[sid]; ok {
		s.lastSeen = uc.clock.Now()
		return s.store
	}
	return nil
}

// State returns the current cart of the session.
func (uc *CartUsecase) State(ctx context.Context, sessionID string) (cartdom.State, error) {
	store, err := uc.Get(ctx, sessionID)
	if err != nil {
		return cartdom.State{}, err
	}
	return store.State(), nil
}

// AddItem resolves productID through the catalog and adds one unit of it.
// Name, price and image are taken from the catalog on first add only.
func (uc *CartUsecase) AddItem(ctx context.Context, sessionID, productID string) (cartdom.State, error) {
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return cartdom.State{}, ErrCartInvalidArgument
	}
	store, err := uc.Get(ctx, sessionID)
	if err != nil {
		return cartdom.State{}, err
	}

	p, err := uc.products.GetByID(ctx, pid)
	if err != nil {
		return cartdom.State{}, fmt.Errorf("cart_usecase: resolve product %s: %w", pid, err)
	}

	store.AddItem(cartdom.ItemInput{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageOr(uc.fallback),
	})
	return store.State(), nil
}

// UpdateQuantity reports false when the item is not in the cart.
func (uc *CartUsecase) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (cartdom.State, bool, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return cartdom.State{}, false, ErrCartInvalidArgument
	}
	store, err := uc.Get(ctx, sessionID)
	if err != nil {
		return cartdom.State{}, false, err
	}
	ok := store.UpdateQuantity(id, quantity)
	return store.State(), ok, nil
}

// RemoveItem reports false when the item is not in the cart.
func (uc *CartUsecase) RemoveItem(ctx context.Context, sessionID, itemID string) (cartdom.State, bool, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return cartdom.State{}, false, ErrCartInvalidArgument
	}
	store, err := uc.Get(ctx, sessionID)
	if err != nil {
		return cartdom.State{}, false, err
	}
	ok := store.RemoveItem(id)
	return store.State(), ok, nil
}

func (uc *CartUsecase) Clear(ctx context.Context, sessionID string) (cartdom.State, error) {
	store, err := uc.Get(ctx, sessionID)
	if err != nil {
		return cartdom.State{}, err
	}
	store.Clear()
	return store.State(), nil
}

// Watch subscribes obs to the session cart and returns the state at
// subscription time. A watched session is never evicted; call the returned
// function to stop watching.
func (uc *CartUsecase) Watch(ctx context.Context, sessionID string, obs cartdom.Observer) (cartdom.State, func(), error) {
	store, err := uc.Get(ctx, sessionID)
	if err != nil {
		return cartdom.State{}, nil, err
	}
	sid := strings.TrimSpace(sessionID)

	uc.mu.Lock()
	if s, ok := uc.sessions[sid]; ok && s.store == store {
		s.subscribers++
	}
	uc.mu.Unlock()

	unsubscribe := store.Subscribe(obs)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			unsubscribe()
			uc.mu.Lock()
			if s, ok := uc.sessions[sid]; ok && s.store == store {
				s.subscribers--
				s.lastSeen = uc.clock.Now()
			}
			uc.mu.Unlock()
		})
	}
	return store.State(), stop, nil
}

// EvictIdle drops unwatched session carts not touched for the idle TTL and
// returns how many were dropped. Snapshots are kept.
func (uc *CartUsecase) EvictIdle() int {
	now := uc.clock.Now()

	uc.mu.Lock()
	var evicted []*cartSession
	for sid, s := range uc.sessions {
		if s.subscribers > 0 || now.Sub(s.lastSeen) < uc.idleTTL {
			continue
		}
		delete(uc.sessions, sid)
		evicted = append(evicted, s)
	}
	uc.mu.Unlock()

	for _, s := range evicted {
		s.unpersist()
	}
	if len(evicted) > 0 {
		uc.log.Info("evicted idle carts", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (uc *CartUsecase) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			uc.EvictIdle()
		}
	}
}

// Sessions returns the number of carts held in memory.
func (uc *CartUsecase) Sessions() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.sessions)
}

// internal/domain/cart/store.go
package cart

import "sync"

// Observer receives the new cart state after every effective mutation.
// Observers run synchronously on the mutating goroutine, in subscription order.
// They may call Store.State but must not call Store mutators.
type Observer interface {
	CartChanged(s State)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(s State)

func (f ObserverFunc) CartChanged(s State) { f(s) }

type subscription struct {
	id  uint64
	obs Observer
}

// Store is the cart state container.
//
// Items are kept in insertion order, with a key index for O(1) lookup by id.
// Each effective mutation recomputes the aggregates and notifies observers
// before the next mutation is allowed to start, so observers see states in
// mutation order.
type Store struct {
	// dispatch serialises mutation + notification.
	dispatch sync.Mutex

	mu      sync.RWMutex
	items   []LineItem
	index   map[string]int
	version uint64

	subs    []subscription
	nextSub uint64
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{
		items: []LineItem{},
		index: map[string]int{},
	}
}

// AddItem appends a new line item with quantity 1, or increments the quantity
// of the existing one. Name, price and image of an existing item are kept.
func (s *Store) AddItem(in ItemInput) {
	s.apply(func() bool {
		if i, ok := s.index[in.ID]; ok {
			s.items[i].Quantity++
			return true
		}
		s.index[in.ID] = len(s.items)
		s.items = append(s.items, LineItem{
			ID:        in.ID,
			Name:      in.Name,
			UnitPrice: normalizePrice(in.UnitPrice),
			Quantity:  1,
			ImageRef:  in.ImageRef,
		})
		return true
	})
}

// UpdateQuantity sets the quantity of id to max(1, q).
// It reports whether id was present; an absent id is a silent no-op.
func (s *Store) UpdateQuantity(id string, q int) bool {
	return s.apply(func() bool {
		i, ok := s.index[id]
		if !ok {
			return false
		}
		s.items[i].Quantity = clampQuantity(q)
		return true
	})
}

// RemoveItem deletes the line item for id.
// It reports whether id was present; an absent id is a silent no-op.
func (s *Store) RemoveItem(id string) bool {
	return s.apply(func() bool {
		i, ok := s.index[id]
		if !ok {
			return false
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		delete(s.index, id)
		for j := i; j < len(s.items); j++ {
			s.index[s.items[j].ID] = j
		}
		return true
	})
}

// Clear empties the cart. Observers are always notified.
func (s *Store) Clear() {
	s.apply(func() bool {
		s.items = []LineItem{}
		s.index = map[string]int{}
		return true
	})
}

// Restore replaces the cart contents with items, enforcing the line item
// invariants: duplicates are merged (first price wins), quantities are
// clamped to at least 1 and negative prices are zeroed.
func (s *Store) Restore(items []LineItem) {
	s.apply(func() bool {
		s.items = make([]LineItem, 0, len(items))
		s.index = make(map[string]int, len(items))
		for _, it := range items {
			if i, ok := s.index[it.ID]; ok {
				s.items[i].Quantity += clampQuantity(it.Quantity)
				continue
			}
			it.Quantity = clampQuantity(it.Quantity)
			it.UnitPrice = normalizePrice(it.UnitPrice)
			s.index[it.ID] = len(s.items)
			s.items = append(s.items, it)
		}
		return true
	})
}

// State returns a snapshot of the cart. It has no side effects.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeState(s.items, s.version)
}

// Subscribe registers obs and returns a function that removes it.
func (s *Store) Subscribe(obs Observer) (unsubscribe func()) {
	if obs == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, obs: obs})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// apply runs fn under the state lock and, when fn reports a change,
// bumps the version and notifies observers with the recomputed state.
func (s *Store) apply(fn func() bool) bool {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false
	}
	s.version++
	st := computeState(s.items, s.version)
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.obs.CartChanged(st)
	}
	return true
}

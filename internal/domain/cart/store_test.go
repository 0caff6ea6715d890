package cart

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, price int64) ItemInput {
	return ItemInput{
		ID:        id,
		Name:      "product " + id,
		UnitPrice: decimal.NewFromInt(price),
		ImageRef:  "https://img.example/" + id + ".png",
	}
}

func TestAddItem_SameIDIncrementsQuantityAndKeepsFirstPrice(t *testing.T) {
	s := NewStore()

	s.AddItem(item("a", 10))
	s.AddItem(ItemInput{ID: "a", Name: "renamed", UnitPrice: decimal.NewFromInt(99), ImageRef: "other"})
	s.AddItem(item("a", 1))

	st := s.State()
	require.Len(t, st.Items, 1)
	got := st.Items[0]
	assert.Equal(t, 3, got.Quantity)
	assert.True(t, got.UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "product a", got.Name)
	assert.Equal(t, "https://img.example/a.png", got.ImageRef)
}

func TestAddItem_TwiceTotals(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 10))
	s.AddItem(item("a", 10))

	st := s.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "a", st.Items[0].ID)
	assert.Equal(t, 2, st.Items[0].Quantity)
	assert.Equal(t, 2, st.TotalItems)
	assert.True(t, st.TotalAmount.Equal(decimal.NewFromInt(20)), "got %s", st.TotalAmount)
}

func TestAddItem_KeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"c", "a", "b", "a"} {
		s.AddItem(item(id, 1))
	}

	var ids []string
	for _, it := range s.State().Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestAddItem_NegativePriceIsZeroed(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", -5))

	st := s.State()
	assert.True(t, st.Items[0].UnitPrice.IsZero())
	assert.True(t, st.TotalAmount.IsZero())
}

func TestUpdateQuantity_ClampsToOne(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 5))
	s.AddItem(item("b", 7))

	for _, q := range []int{0, -1, -100} {
		assert.True(t, s.UpdateQuantity("a", q))
		got, ok := s.State().Find("a")
		require.True(t, ok)
		assert.Equal(t, 1, got.Quantity, "q=%d", q)
	}

	st := s.State()
	assert.True(t, st.TotalAmount.Equal(decimal.NewFromInt(12)), "got %s", st.TotalAmount)
	assert.Equal(t, 2, st.TotalItems)
}

func TestUpdateQuantity_SetsValue(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 3))

	assert.True(t, s.UpdateQuantity("a", 4))

	st := s.State()
	assert.Equal(t, 4, st.TotalItems)
	assert.True(t, st.TotalAmount.Equal(decimal.NewFromInt(12)))
}

func TestUpdateQuantity_AbsentIDIsNoop(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 3))
	before := s.State()

	notified := 0
	s.Subscribe(ObserverFunc(func(State) { notified++ }))

	assert.False(t, s.UpdateQuantity("missing", 5))
	assert.Empty(t, cmp.Diff(before, s.State()))
	assert.Zero(t, notified)
}

func TestRemoveItem(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 1))
	s.AddItem(item("b", 2))
	s.AddItem(item("c", 3))

	assert.True(t, s.RemoveItem("b"))

	st := s.State()
	_, found := st.Find("b")
	assert.False(t, found)
	require.Len(t, st.Items, 2)
	assert.Equal(t, "a", st.Items[0].ID)
	assert.Equal(t, "c", st.Items[1].ID)

	// index stays consistent after the tail shifted
	assert.True(t, s.UpdateQuantity("c", 5))
	got, _ := s.State().Find("c")
	assert.Equal(t, 5, got.Quantity)
	assert.True(t, s.State().TotalAmount.Equal(decimal.NewFromInt(16)))
}

func TestRemoveItem_AbsentIDLeavesStateUnchanged(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 1))
	s.AddItem(item("b", 2))
	before := s.State()

	assert.False(t, s.RemoveItem("zzz"))
	assert.Empty(t, cmp.Diff(before, s.State()))
}

func TestRemoveItem_OnEmptyStore(t *testing.T) {
	s := NewStore()

	assert.NotPanics(t, func() { s.RemoveItem("a") })
	assert.True(t, s.State().IsEmpty())
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 1))
	s.AddItem(item("b", 2))

	s.Clear()

	st := s.State()
	assert.Empty(t, st.Items)
	assert.Zero(t, st.TotalItems)
	assert.True(t, st.TotalAmount.IsZero())

	// the store is usable after clear
	s.AddItem(item("a", 4))
	assert.Equal(t, 1, s.State().TotalItems)
}

func TestState_IsACopy(t *testing.T) {
	s := NewStore()
	s.AddItem(item("a", 1))

	st := s.State()
	st.Items[0].Quantity = 42

	got, _ := s.State().Find("a")
	assert.Equal(t, 1, got.Quantity)
}

func TestSubscribe_NotifiesInOrderWithNewState(t *testing.T) {
	s := NewStore()

	var first, second []uint64
	s.Subscribe(ObserverFunc(func(st State) { first = append(first, st.Version) }))
	s.Subscribe(ObserverFunc(func(st State) {
		second = append(second, st.Version)
		// observers may read the store
		assert.Equal(t, st.Version, s.State().Version)
	}))

	s.AddItem(item("a", 1))
	s.UpdateQuantity("a", 3)
	s.RemoveItem("a")
	s.Clear()

	assert.Equal(t, []uint64{1, 2, 3, 4}, first)
	assert.Equal(t, first, second)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := NewStore()

	calls := 0
	unsub := s.Subscribe(ObserverFunc(func(State) { calls++ }))
	s.AddItem(item("a", 1))
	unsub()
	unsub()
	s.AddItem(item("a", 1))

	assert.Equal(t, 1, calls)
}

func TestRestore_AppliesInvariants(t *testing.T) {
	s := NewStore()
	s.Restore([]LineItem{
		{ID: "a", Name: "A", UnitPrice: decimal.NewFromInt(5), Quantity: 2},
		{ID: "b", Name: "B", UnitPrice: decimal.NewFromInt(-1), Quantity: 0},
		{ID: "a", Name: "A2", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
	})

	st := s.State()
	require.Len(t, st.Items, 2)
	a, _ := st.Find("a")
	assert.Equal(t, 3, a.Quantity)
	assert.True(t, a.UnitPrice.Equal(decimal.NewFromInt(5)))
	b, _ := st.Find("b")
	assert.Equal(t, 1, b.Quantity)
	assert.True(t, b.UnitPrice.IsZero())
	assert.True(t, st.TotalAmount.Equal(decimal.NewFromInt(15)))
}

// model is a naive reference cart used by the randomized test.
type model struct {
	order  []string
	qty    map[string]int
	prices map[string]decimal.Decimal
}

func TestRandomInterleavings_AggregatesMatchItems(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e"}
	prices := map[string]string{"a": "0.10", "b": "0.20", "c": "19.99", "d": "3.333", "e": "0"}

	for round := 0; round < 50; round++ {
		s := NewStore()
		m := model{qty: map[string]int{}, prices: map[string]decimal.Decimal{}}

		var observed []State
		s.Subscribe(ObserverFunc(func(st State) { observed = append(observed, st) }))

		for step := 0; step < 200; step++ {
			id := ids[rng.Intn(len(ids))]
			switch op := rng.Intn(10); {
			case op < 5:
				p := decimal.RequireFromString(prices[id])
				s.AddItem(ItemInput{ID: id, UnitPrice: p.Add(decimal.NewFromInt(int64(step)))})
				if _, ok := m.qty[id]; !ok {
					m.order = append(m.order, id)
					m.prices[id] = p.Add(decimal.NewFromInt(int64(step)))
				}
				m.qty[id]++
			case op < 8:
				q := rng.Intn(7) - 2
				changed := s.UpdateQuantity(id, q)
				_, present := m.qty[id]
				assert.Equal(t, present, changed)
				if present {
					m.qty[id] = clampQuantity(q)
				}
			case op < 9:
				changed := s.RemoveItem(id)
				_, present := m.qty[id]
				assert.Equal(t, present, changed)
				if present {
					delete(m.qty, id)
					delete(m.prices, id)
					for i, v := range m.order {
						if v == id {
							m.order = append(m.order[:i], m.order[i+1:]...)
							break
						}
					}
				}
			default:
				s.Clear()
				m = model{qty: map[string]int{}, prices: map[string]decimal.Decimal{}}
			}

			st := s.State()
			wantItems := 0
			wantAmount := decimal.Zero
			var gotOrder []string
			for _, it := range st.Items {
				gotOrder = append(gotOrder, it.ID)
				require.GreaterOrEqual(t, it.Quantity, 1)
				assert.Equal(t, m.qty[it.ID], it.Quantity)
				assert.True(t, m.prices[it.ID].Equal(it.UnitPrice))
				wantItems += it.Quantity
				wantAmount = wantAmount.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			if len(m.order) == 0 {
				assert.Empty(t, gotOrder)
			} else {
				assert.Equal(t, m.order, gotOrder)
			}
			assert.Equal(t, wantItems, st.TotalItems)
			assert.True(t, wantAmount.Equal(st.TotalAmount), "amount %s != %s", st.TotalAmount, wantAmount)
		}

		for _, st := range observed {
			sum := 0
			for _, it := range st.Items {
				sum += it.Quantity
			}
			assert.Equal(t, sum, st.TotalItems)
		}
	}
}

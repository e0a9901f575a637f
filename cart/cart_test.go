package cart

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *core.MemoryStore) {
	t.Helper()
	mem := core.NewMemoryStore()
	n := 0
	opts = append([]Option{WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("line-%d", n)
	})}, opts...)
	return NewStore(mem, opts...), mem
}

func pizza(id int64, qty int) core.CartLine {
	return core.CartLine{PizzaID: id, Name: fmt.Sprintf("Pizza %d", id), Quantity: qty, UnitPrice: 10}
}

func TestAddItem_MergesSamePizza(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, pizza(1, 2)))
	require.NoError(t, s.AddItem(ctx, pizza(1, 3)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 50.0, items[0].TotalPrice)
	assert.Equal(t, "line-1", items[0].CartItemID)
}

func TestAddItem_SameIDDifferentNameDoesNotMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
	other := pizza(1, 1)
	other.Name = "Custom Pizza (Medium) - Basil"
	require.NoError(t, s.AddItem(ctx, other))

	assert.Len(t, s.Items(), 2)
}

func TestAddItem_TypeLimitReportsRemainingRoom(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, pizza(1, 5)))
	err := s.AddItem(ctx, pizza(1, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTypeLimitExceeded)
	assert.True(t, core.IsLimitExceeded(err))
	assert.Equal(t, "Can only add 1 more of this pizza. Maximum 6 of same type allowed.", core.UserMessage(err))
	assert.Equal(t, 5, s.TotalQuantity())
}

func TestAddItem_TypeLimitWhenLineFull(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, pizza(1, 6)))
	err := s.AddItem(ctx, pizza(1, 1))
	assert.ErrorIs(t, err, core.ErrTypeLimitExceeded)
	assert.Equal(t, "Already have 6 of this pizza. Maximum 6 of same type allowed.", core.UserMessage(err))
}

func TestAddItem_NewLineOverTypeLimit(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.AddItem(context.Background(), pizza(1, 7))
	assert.ErrorIs(t, err, core.ErrTypeLimitExceeded)
	assert.Equal(t, "Maximum 6 of same pizza type allowed.", core.UserMessage(err))
	assert.Empty(t, s.Items())
}

func TestAddItem_CartFull(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for i := 1; i <= MaxTotalPizzas; i++ {
		require.NoError(t, s.AddItem(ctx, pizza(int64(i), 1)))
	}
	err := s.AddItem(ctx, pizza(11, 1))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCartFull)
	assert.Equal(t, "Cart is full! Can only add 0 more pizza(s). Maximum 10 pizzas allowed.", core.UserMessage(err))
	assert.Equal(t, MaxTotalPizzas, s.TotalQuantity())
}

func TestAddItem_CartFullReportsRemainingRoom(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddItem(ctx, pizza(1, 4)))
	require.NoError(t, s.AddItem(ctx, pizza(2, 4)))
	err := s.AddItem(ctx, pizza(3, 3))

	assert.ErrorIs(t, err, core.ErrCartFull)
	assert.Equal(t, "Can only add 2 more pizza(s). Maximum 10 pizzas allowed.", core.UserMessage(err))
}

func TestAddItem_Validation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	assert.ErrorIs(t, s.AddItem(ctx, pizza(1, 0)), core.ErrInvalidQuantity)

	negative := pizza(1, 1)
	negative.UnitPrice = -1
	assert.True(t, core.IsValidation(s.AddItem(ctx, negative)))
}

func TestAddItem_HonorsCallerID(t *testing.T) {
	s, _ := newTestStore(t)
	line := pizza(1, 1)
	line.CartItemID = "mine"
	require.NoError(t, s.AddItem(context.Background(), line))
	assert.Equal(t, "mine", s.Items()[0].CartItemID)
}

func TestAddItem_DefaultIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore(core.NewMemoryStore())
	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
	require.NoError(t, s.AddItem(ctx, pizza(2, 1)))

	items := s.Items()
	assert.NotEmpty(t, items[0].CartItemID)
	assert.NotEqual(t, items[0].CartItemID, items[1].CartItemID)
}

func TestLimitsHoldForRandomSequences(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		s, _ := newTestStore(t)
		for i := 0; i < 40; i++ {
			_ = s.AddItem(ctx, pizza(int64(rng.Intn(4)+1), rng.Intn(7)+1))

			assert.LessOrEqual(t, s.TotalQuantity(), MaxTotalPizzas)
			for _, l := range s.Items() {
				assert.LessOrEqual(t, l.Quantity, MaxSameType)
				assert.Equal(t, float64(l.Quantity)*l.UnitPrice, l.TotalPrice)
			}
		}
	}
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("updates price", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
		require.NoError(t, s.UpdateQuantity(ctx, "line-1", 4))
		assert.Equal(t, 4, s.Items()[0].Quantity)
		assert.Equal(t, 40.0, s.Total())
	})

	t.Run("zero removes line", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.NoError(t, s.AddItem(ctx, pizza(1, 2)))
		require.NoError(t, s.AddItem(ctx, pizza(2, 3)))
		require.NoError(t, s.UpdateQuantity(ctx, "line-1", 0))
		require.Len(t, s.Items(), 1)
		assert.Equal(t, 3, s.TotalQuantity())
	})

	t.Run("negative removes line", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.NoError(t, s.AddItem(ctx, pizza(1, 2)))
		require.NoError(t, s.UpdateQuantity(ctx, "line-1", -3))
		assert.Empty(t, s.Items())
	})

	t.Run("unknown id", func(t *testing.T) {
		s, _ := newTestStore(t)
		err := s.UpdateQuantity(ctx, "nope", 1)
		assert.True(t, core.IsNotFound(err))
		assert.Equal(t, "Item not found", core.UserMessage(err))
	})

	t.Run("same type limit", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
		err := s.UpdateQuantity(ctx, "line-1", 7)
		assert.ErrorIs(t, err, core.ErrTypeLimitExceeded)
		assert.Equal(t, 1, s.TotalQuantity())
	})

	t.Run("cart limit counts other lines", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.NoError(t, s.AddItem(ctx, pizza(1, 5)))
		require.NoError(t, s.AddItem(ctx, pizza(2, 1)))
		err := s.UpdateQuantity(ctx, "line-2", 6)
		assert.ErrorIs(t, err, core.ErrCartFull)
		assert.Equal(t, "Maximum 10 pizzas allowed in cart.", core.UserMessage(err))

		require.NoError(t, s.UpdateQuantity(ctx, "line-2", 5))
		assert.Equal(t, MaxTotalPizzas, s.TotalQuantity())
	})
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
	require.NoError(t, s.AddItem(ctx, pizza(2, 1)))

	s.RemoveItem(ctx, "line-1")
	s.RemoveItem(ctx, "line-1")
	s.RemoveItem(ctx, "missing")

	require.Len(t, s.Items(), 1)
	assert.Equal(t, "line-2", s.Items()[0].CartItemID)
}

func TestClearDeletesStorageEntry(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	s.LoadUserCart(ctx, "alice")
	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))

	ok, err := mem.Exists(ctx, "pizza_cart_alice")
	require.NoError(t, err)
	require.True(t, ok)

	s.Clear(ctx)
	assert.Empty(t, s.Items())
	ok, err = mem.Exists(ctx, "pizza_cart_alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	s.LoadUserCart(ctx, "alice")
	require.NoError(t, s.AddItem(ctx, pizza(3, 2)))
	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
	require.NoError(t, s.AddItem(ctx, pizza(2, 4)))
	want := s.Items()

	reloaded := NewStore(mem)
	reloaded.LoadUserCart(ctx, "alice")

	if diff := cmp.Diff(want, reloaded.Items()); diff != "" {
		t.Errorf("reloaded cart mismatch (-want +got):\n%s", diff)
	}
}

func TestUserIsolation(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	s.LoadUserCart(ctx, "alice")
	require.NoError(t, s.AddItem(ctx, pizza(1, 2)))

	s.LoadUserCart(ctx, "bob")
	assert.Empty(t, s.Items())
	require.NoError(t, s.AddItem(ctx, pizza(2, 1)))
	s.Clear(ctx)

	raw, err := mem.Get(ctx, "pizza_cart_alice")
	require.NoError(t, err)
	assert.Contains(t, raw, `"quantity":2`)

	s.LoadUserCart(ctx, "alice")
	require.Len(t, s.Items(), 1)
	assert.Equal(t, int64(1), s.Items()[0].PizzaID)
}

func TestResetKeepsPersistedCart(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	s.LoadUser(ctx, "bob")
	require.NoError(t, s.AddItem(ctx, pizza(1, 3)))

	s.Reset(ctx)
	assert.Empty(t, s.Items())
	assert.Equal(t, "", s.User())

	ok, err := mem.Exists(ctx, "pizza_cart_bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuestCart(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, mem := newTestStore(t, WithGuestTTL(time.Hour))
	mem.SetClock(func() time.Time { return now })

	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
	ok, err := mem.Exists(ctx, "pizza_cart_guest")
	require.NoError(t, err)
	require.True(t, ok)

	s.LoadUserCart(ctx, "")
	assert.Len(t, s.Items(), 1)

	now = now.Add(2 * time.Hour)
	s.LoadUserCart(ctx, "")
	assert.Empty(t, s.Items())
}

func TestCorruptStorageLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	require.NoError(t, mem.Set(ctx, "pizza_cart_alice", "{not json", 0))

	s.LoadUserCart(ctx, "alice")
	assert.Empty(t, s.Items())
}

func TestMistypedStorageLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	// the first line is well formed, the second has a string id
	raw := `[{"cartItemId":"a","pizzaId":1,"name":"M","quantity":9,"unitPrice":10},{"pizzaId":"x"}]`
	require.NoError(t, mem.Set(ctx, "pizza_cart_alice", raw, 0))

	s.LoadUserCart(ctx, "alice")
	assert.Empty(t, s.Items())
	assert.Zero(t, s.TotalQuantity())

	// a later AddItem starts from the empty cart rather than the partial decode
	require.NoError(t, s.AddItem(ctx, pizza(2, 1)))
	assert.Equal(t, 1, s.TotalQuantity())
}

type failingStorage struct{ *core.MemoryStore }

func (f *failingStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return core.ErrStorageUnavailable
}

func (f *failingStorage) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("disk on fire")
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&failingStorage{MemoryStore: core.NewMemoryStore()})

	s.LoadUserCart(ctx, "alice")
	assert.Empty(t, s.Items())

	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))
	assert.Equal(t, 1, s.TotalQuantity())
}

func TestSnapshotsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))

	before := s.Items()
	require.NoError(t, s.AddItem(ctx, pizza(1, 2)))
	require.NoError(t, s.UpdateQuantity(ctx, "line-1", 5))

	assert.Equal(t, 1, before[0].Quantity)
	assert.Equal(t, 5, s.Items()[0].Quantity)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var seen []int
	unsub := s.Subscribe(func(lines []core.CartLine) {
		seen = append(seen, totalQuantity(lines))
	})
	require.NoError(t, s.AddItem(ctx, pizza(1, 2)))
	require.Error(t, s.AddItem(ctx, pizza(1, 9)))
	s.Clear(ctx)
	unsub()
	require.NoError(t, s.AddItem(ctx, pizza(1, 1)))

	assert.Equal(t, []int{0, 2, 0}, seen)
}

func TestToOrderAndQuote(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.AddItem(ctx, pizza(1, 2)))
	require.NoError(t, s.AddItem(ctx, pizza(2, 1)))

	order := s.ToOrder("Mike Johnson", "+38970123456", "Main Street 1", true)
	assert.Equal(t, DefaultPosition, order.Position)
	assert.True(t, order.Priority)
	assert.Len(t, order.Cart, 2)
	assert.Len(t, s.Items(), 2)

	order.Cart[0].Quantity = 99
	assert.Equal(t, 2, s.Items()[0].Quantity)

	bill := s.Quote(true)
	assert.InDelta(t, 30.0, bill.Subtotal, 1e-9)
	assert.InDelta(t, 6.0, bill.PriorityFee, 1e-9)
	assert.InDelta(t, 36.0, bill.Total, 1e-9)
	assert.Equal(t, 30.0, s.Quote(false).Total)
}

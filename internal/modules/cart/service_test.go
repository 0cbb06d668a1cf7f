package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentgear/internal/config"
	"rentgear/internal/domain"
	"rentgear/internal/kvstore"
)

// Mock catalog
type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

// fakeScheduler records scheduled callbacks so tests fire them manually.
type fakeScheduler struct {
	mu      sync.Mutex
	repeats []func()
	onces   []func()
}

func (f *fakeScheduler) Repeat(_ time.Duration, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repeats = append(f.repeats, fn)
	return func() {}
}

func (f *fakeScheduler) Once(_ time.Duration, fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onces = append(f.onces, fn)
	return func() {}
}

func (f *fakeScheduler) fireRepeats() {
	f.mu.Lock()
	fns := append([]func(){}, f.repeats...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeScheduler) fireLastOnce() {
	f.mu.Lock()
	var fn func()
	if len(f.onces) > 0 {
		fn = f.onces[len(f.onces)-1]
	}
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func testEquipment(id int64, rate int64, available int) *domain.Equipment {
	return &domain.Equipment{
		ID:            id,
		Name:          "Test Light",
		Category:      "lighting",
		DailyRate:     rate,
		MinRentalDays: 1,
		Available:     available,
		Total:         available,
		Availability:  domain.AvailabilityAvailable,
	}
}

type storeEnv struct {
	store   *Store
	catalog *MockCatalogReader
	sched   *fakeScheduler
	memory  *kvstore.Memory
	handle  *kvstore.MemoryStore
}

func newTestStore(t *testing.T, cfg *config.Config) *storeEnv {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}

	memory := kvstore.NewMemory()
	handle := memory.Open()
	catalog := new(MockCatalogReader)
	sched := &fakeScheduler{}

	store := NewStore(cfg, catalog, NewPersistence(handle, "cart:test"), sched)
	t.Cleanup(store.Close)

	return &storeEnv{store: store, catalog: catalog, sched: sched, memory: memory, handle: handle}
}

func TestStore_AddToCart_ComputesTotals(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	err := env.store.AddToCart(ctx, testEquipment(1, 3500, 10), 2)
	require.NoError(t, err)

	cart := env.store.Cart()
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, int64(7000), cart.TotalPrice)
	assert.Equal(t, int64(7000), cart.Items[0].Subtotal)
}

func TestStore_AddToCart_MergesExistingLine(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	eq := testEquipment(1, 3500, 10)
	require.NoError(t, env.store.AddToCart(ctx, eq, 2))
	require.NoError(t, env.store.AddToCart(ctx, eq, 1))

	cart := env.store.Cart()
	assert.Len(t, cart.Items, 1, "re-adding the same equipment must not create a second line")
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 3, cart.TotalItems)
	assert.Equal(t, int64(10500), cart.TotalPrice)
}

func TestStore_AddToCart_SnapshotsPriceAtAddTime(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	eq := testEquipment(1, 3500, 10)
	require.NoError(t, env.store.AddToCart(ctx, eq, 1))

	// A later catalog price change must not touch the line.
	changed := *eq
	changed.DailyRate = 9999
	require.NoError(t, env.store.AddToCart(ctx, &changed, 1))

	cart := env.store.Cart()
	assert.Equal(t, int64(3500), cart.Items[0].Price)
	assert.Equal(t, int64(7000), cart.TotalPrice)
}

func TestStore_AddToCart_QuantityBounds(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	eq := testEquipment(1, 1000, 100)

	assert.ErrorIs(t, env.store.AddToCart(ctx, eq, 0), ErrQuantityOutOfRange)
	assert.ErrorIs(t, env.store.AddToCart(ctx, eq, 11), ErrQuantityOutOfRange)

	// Exactly the per-item maximum succeeds; one more unit fails.
	require.NoError(t, env.store.AddToCart(ctx, eq, 10))
	assert.ErrorIs(t, env.store.AddToCart(ctx, eq, 1), ErrQuantityOutOfRange)

	cart := env.store.Cart()
	assert.Equal(t, 10, cart.TotalItems)
}

func TestStore_AddToCart_CartFull(t *testing.T) {
	cfg := config.Default()
	cfg.MaxItems = 2
	env := newTestStore(t, cfg)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 1))
	require.NoError(t, env.store.AddToCart(ctx, testEquipment(2, 1000, 10), 1))

	assert.ErrorIs(t, env.store.AddToCart(ctx, testEquipment(3, 1000, 10), 1), ErrCartFull)

	// Merging into an existing line is still allowed at the line cap.
	assert.NoError(t, env.store.AddToCart(ctx, testEquipment(2, 1000, 10), 1))
}

func TestStore_AddToCart_InsufficientAvailability(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	eq := testEquipment(1, 1000, 3)
	assert.ErrorIs(t, env.store.AddToCart(ctx, eq, 4), ErrInsufficientAvailability)

	require.NoError(t, env.store.AddToCart(ctx, eq, 2))
	// Existing line quantity counts against availability on merge.
	assert.ErrorIs(t, env.store.AddToCart(ctx, eq, 2), ErrInsufficientAvailability)
}

func TestStore_AddByID_ResolvesCatalog(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	eq := testEquipment(7, 2000, 5)
	env.catalog.On("GetByID", mock.Anything, int64(7)).Return(eq, nil)

	require.NoError(t, env.store.AddByID(ctx, 7, 2))
	assert.Equal(t, int64(4000), env.store.Cart().TotalPrice)
	env.catalog.AssertExpectations(t)
}

func TestStore_RemoveFromCart_AbsentIsNoop(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	before := env.store.Cart()

	env.store.RemoveFromCart(ctx, 999)

	after := env.store.Cart()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.TotalItems, after.TotalItems)
	assert.Empty(t, env.store.Err())
}

func TestStore_UpdateQuantity_ZeroEqualsRemove(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	itemID := env.store.Cart().Items[0].ID

	require.NoError(t, env.store.UpdateQuantity(ctx, itemID, 0))

	cart := env.store.Cart()
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, int64(0), cart.TotalPrice)
}

func TestStore_UpdateQuantity_AboveMaxLeavesCartUnchanged(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	itemID := env.store.Cart().Items[0].ID

	err := env.store.UpdateQuantity(ctx, itemID, 11)
	assert.ErrorIs(t, err, ErrQuantityOutOfRange)

	cart := env.store.Cart()
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(2000), cart.TotalPrice)
}

func TestStore_UpdateQuantity_RecomputesSubtotal(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	itemID := env.store.Cart().Items[0].ID

	require.NoError(t, env.store.UpdateQuantity(ctx, itemID, 5))

	cart := env.store.Cart()
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, int64(5000), cart.Items[0].Subtotal)
	assert.Equal(t, int64(5000), cart.TotalPrice)
}

func TestStore_SetRentalPeriod_Bounds(t *testing.T) {
	cfg := config.Default()
	cfg.MinRentalDays = 3
	cfg.MaxRentalDays = 10
	env := newTestStore(t, cfg)
	ctx := context.Background()

	start := time.Now().UTC().AddDate(0, 0, 7)

	// One day below the minimum fails; exactly the minimum succeeds.
	assert.ErrorIs(t, env.store.SetRentalPeriod(ctx, start, start.AddDate(0, 0, 2)), ErrRentalTooShort)
	require.NoError(t, env.store.SetRentalPeriod(ctx, start, start.AddDate(0, 0, 3)))

	cart := env.store.Cart()
	require.NotNil(t, cart.RentalPeriod)
	assert.Equal(t, 3, cart.RentalPeriod.Days)

	assert.ErrorIs(t, env.store.SetRentalPeriod(ctx, start, start.AddDate(0, 0, 11)), ErrRentalTooLong)
}

func TestStore_SetRentalPeriod_SameDay(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	today := time.Now().UTC()
	err := env.store.SetRentalPeriod(ctx, today, today.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, ErrSameDayRentalNotAllowed)

	cfg := config.Default()
	cfg.AllowSameDayRental = true
	env2 := newTestStore(t, cfg)
	assert.NoError(t, env2.store.SetRentalPeriod(ctx, today, today.AddDate(0, 0, 2)))
}

func TestStore_SetRentalPeriod_IgnoresTimeOfDay(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	base := time.Now().UTC().AddDate(0, 0, 5)
	start := time.Date(base.Year(), base.Month(), base.Day(), 23, 50, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 5, 0, 0, time.UTC)

	require.NoError(t, env.store.SetRentalPeriod(ctx, start, end))
	assert.Equal(t, 3, env.store.Cart().RentalPeriod.Days)
}

func TestStore_SetServices_Verbatim(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	sel := domain.ServicesSelection{Delivery: true, Support: true}
	env.store.SetServices(ctx, sel)

	cart := env.store.Cart()
	require.NotNil(t, cart.Services)
	assert.Equal(t, sel, *cart.Services)
}

func TestStore_EstimatedDelivery_FollowsDeliverySelection(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	start := time.Now().UTC().AddDate(0, 0, 5)
	require.NoError(t, env.store.SetRentalPeriod(ctx, start, start.AddDate(0, 0, 3)))
	assert.Nil(t, env.store.Cart().EstimatedDelivery)

	env.store.SetServices(ctx, domain.ServicesSelection{Delivery: true})
	cart := env.store.Cart()
	require.NotNil(t, cart.EstimatedDelivery)
	assert.True(t, cart.EstimatedDelivery.Equal(cart.RentalPeriod.StartDate))

	env.store.SetServices(ctx, domain.ServicesSelection{})
	assert.Nil(t, env.store.Cart().EstimatedDelivery)
}

func TestStore_ClearCart_RemovesPersistedRecord(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	env.store.ClearCart(ctx)

	cart := env.store.Cart()
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)

	_, err := env.handle.Get(ctx, "cart:test")
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestStore_SubscribersSeeConsistentSnapshots(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	var snapshots []domain.Cart
	unsubscribe := env.store.Subscribe(func(c domain.Cart) {
		snapshots = append(snapshots, c)
	})
	defer unsubscribe()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	require.NoError(t, env.store.AddToCart(ctx, testEquipment(2, 500, 10), 1))

	require.Len(t, snapshots, 2)
	for _, snap := range snapshots {
		total := 0
		var price int64
		for _, item := range snap.Items {
			total += item.Quantity
			price += item.Price * int64(item.Quantity)
		}
		assert.Equal(t, total, snap.TotalItems)
		assert.Equal(t, price, snap.TotalPrice)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	calls := 0
	unsubscribe := env.store.Subscribe(func(domain.Cart) { calls++ })

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 1))
	unsubscribe()
	require.NoError(t, env.store.AddToCart(ctx, testEquipment(2, 1000, 10), 1))

	assert.Equal(t, 1, calls)
}

func TestStore_RestoresSavedCart(t *testing.T) {
	cfg := config.Default()
	memory := kvstore.NewMemory()
	handle := memory.Open()
	sched := &fakeScheduler{}
	ctx := context.Background()

	first := NewStore(cfg, new(MockCatalogReader), NewPersistence(handle, "cart:restore"), sched)
	require.NoError(t, first.AddToCart(ctx, testEquipment(1, 3500, 10), 2))
	saved := first.Cart()
	first.Close()

	second := NewStore(cfg, new(MockCatalogReader), NewPersistence(memory.Open(), "cart:restore"), sched)
	defer second.Close()

	restored := second.Cart()
	assert.Equal(t, saved.Items, restored.Items)
	assert.Equal(t, saved.TotalItems, restored.TotalItems)
	assert.Equal(t, saved.TotalPrice, restored.TotalPrice)
	assert.True(t, saved.UpdatedAt.Equal(restored.UpdatedAt))
}

func TestStore_ExternalChangeReplacesCart(t *testing.T) {
	cfg := config.Default()
	memory := kvstore.NewMemory()
	sched := &fakeScheduler{}
	ctx := context.Background()

	// Two handles on the same shared state model two open tabs.
	storeA := NewStore(cfg, new(MockCatalogReader), NewPersistence(memory.Open(), "cart:shared"), sched)
	defer storeA.Close()
	storeB := NewStore(cfg, new(MockCatalogReader), NewPersistence(memory.Open(), "cart:shared"), sched)
	defer storeB.Close()

	notified := 0
	storeB.Subscribe(func(domain.Cart) { notified++ })

	require.NoError(t, storeA.AddToCart(ctx, testEquipment(1, 3500, 10), 2))

	cartB := storeB.Cart()
	assert.Equal(t, 2, cartB.TotalItems)
	assert.Equal(t, int64(7000), cartB.TotalPrice)
	assert.Equal(t, 1, notified)

	// A clear in one tab empties the other.
	storeA.ClearCart(ctx)
	cartBAfterClear := storeB.Cart()
	assert.True(t, cartBAfterClear.IsEmpty())
}

func TestStore_SurfacedErrorAutoClears(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	_ = env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 0)
	assert.Equal(t, ErrQuantityOutOfRange.Error(), env.store.Err())

	env.sched.fireLastOnce()
	assert.Empty(t, env.store.Err())
}

func TestStore_SurfacedErrorOverwritten(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	_ = env.store.AddToCart(ctx, testEquipment(1, 1000, 2), 0)
	_ = env.store.AddToCart(ctx, testEquipment(1, 1000, 2), 5)
	assert.Equal(t, ErrInsufficientAvailability.Error(), env.store.Err())

	// The stale clear timer must not wipe the newer message.
	env.sched.mu.Lock()
	first := env.sched.onces[0]
	env.sched.mu.Unlock()
	first()
	assert.Equal(t, ErrInsufficientAvailability.Error(), env.store.Err())
}

func TestStore_AutosavePersistsNonEmptyCart(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 1))

	// Wipe the record through the store's own handle (no watch fires for
	// own writes), then let the autosave tick restore it.
	require.NoError(t, env.handle.Delete(ctx, "cart:test"))
	env.sched.fireRepeats()

	payload, err := env.handle.Get(ctx, "cart:test")
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}

func TestStore_AutosaveSkipsEmptyCart(t *testing.T) {
	env := newTestStore(t, nil)

	env.sched.fireRepeats()

	_, err := env.handle.Get(context.Background(), "cart:test")
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestStore_ExportCart_ReturnsDeepCopy(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))

	exported := env.store.ExportCart()
	exported.Items[0].Quantity = 99

	assert.Equal(t, 2, env.store.Cart().Items[0].Quantity)
}

func TestStore_LoadCart_ReplacesAggregate(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 2))
	snapshot := env.store.ExportCart()

	env.store.ClearCart(ctx)
	clearedCart := env.store.Cart()
	require.True(t, clearedCart.IsEmpty())

	env.store.LoadCart(ctx, snapshot)

	cart := env.store.Cart()
	assert.Equal(t, snapshot.Items, cart.Items)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, int64(2000), cart.TotalPrice)
}

func TestStore_NoDuplicateEquipmentLines(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 100), 1))
	}
	require.NoError(t, env.store.AddToCart(ctx, testEquipment(2, 1000, 100), 1))

	seen := map[int64]bool{}
	for _, item := range env.store.Cart().Items {
		assert.False(t, seen[item.EquipmentID], "duplicate line for equipment %d", item.EquipmentID)
		seen[item.EquipmentID] = true
	}
}

func TestStore_Checkout_SnapshotsAndResetsInOneOperation(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 3500, 10), 2))
	start := time.Now().UTC().AddDate(0, 0, 7)
	require.NoError(t, env.store.SetRentalPeriod(ctx, start, start.AddDate(0, 0, 3)))

	snapshot, pricing, validationErrors := env.store.Checkout(ctx)
	require.Nil(t, validationErrors)

	// The returned snapshot is the priced cart, not the cleared one.
	assert.Equal(t, 2, snapshot.TotalItems)
	require.NotNil(t, pricing)
	assert.Equal(t, int64(3500*2*3), pricing.BasePrice)

	finalCart := env.store.Cart()
	assert.True(t, finalCart.IsEmpty())
	_, err := env.handle.Get(ctx, "cart:test")
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestStore_Checkout_WriteDuringNotifyCannotSplitSnapshotFromReset(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, env.store.AddToCart(ctx, testEquipment(1, 1000, 10), 1))

	// A subscriber that writes back into the cart runs only after the
	// snapshot and the reset have both happened under the lock.
	var reentered bool
	env.store.Subscribe(func(domain.Cart) {
		if reentered {
			return
		}
		reentered = true
		require.NoError(t, env.store.AddToCart(ctx, testEquipment(2, 500, 10), 1))
	})

	snapshot, _, validationErrors := env.store.Checkout(ctx)
	require.Nil(t, validationErrors)

	assert.Equal(t, 1, snapshot.TotalItems, "snapshot must predate the concurrent write")
	cart := env.store.Cart()
	assert.Equal(t, 1, cart.TotalItems, "post-checkout write lands on the cleared cart")
	assert.Equal(t, int64(2), cart.Items[0].EquipmentID)
}

func TestStore_Checkout_IneligibleCartLeftUntouched(t *testing.T) {
	env := newTestStore(t, nil)
	ctx := context.Background()

	_, pricing, validationErrors := env.store.Checkout(ctx)
	require.NotNil(t, validationErrors)
	assert.Contains(t, validationErrors, "cart is empty")
	assert.Nil(t, pricing)
}

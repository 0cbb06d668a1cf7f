package cart

import (
	"context"
	"log"
	"sync"
	"time"

	"rentgear/internal/config"
	"rentgear/internal/domain"
)

// Store is the sole owner of one cart aggregate. Every mutation
// recomputes the totals, persists the cart and notifies subscribers
// before control returns, so no observer ever sees totals out of sync
// with the item list.
//
// Cross-context writes to the same persisted key replace the in-memory
// cart verbatim (last writer wins, no merge).
type Store struct {
	cfg     *config.Config
	catalog CatalogReader
	persist *Persistence
	sched   Scheduler
	calc    *Calculator

	mu         sync.Mutex
	cart       domain.Cart
	loading    bool
	errMsg     string
	nextItemID int64

	subs      map[int64]func(domain.Cart)
	nextSubID int64

	stopAutosave func()
	stopErrClear func()
	stopWatch    func()
	closed       bool
}

// NewStore restores the saved cart for this key, or starts empty, then
// begins autosaving and watching for external writes.
func NewStore(cfg *config.Config, catalog CatalogReader, persist *Persistence, sched Scheduler) *Store {
	s := &Store{
		cfg:        cfg,
		catalog:    catalog,
		persist:    persist,
		sched:      sched,
		calc:       NewCalculator(cfg),
		cart:       domain.NewCart(),
		nextItemID: 1,
		subs:       make(map[int64]func(domain.Cart)),
		loading:    true,
	}

	saved, err := persist.Load(context.Background())
	if err != nil {
		log.Printf("cart: restore failed, starting empty: %v", err)
	}
	if saved != nil {
		s.adopt(*saved)
	}
	s.loading = false

	s.stopAutosave = sched.Repeat(cfg.AutosaveInterval, s.autosave)
	s.stopWatch = persist.Watch(s.onExternalChange)

	return s
}

// adopt installs a cart coming from storage, re-establishing the
// totals invariant and the line id counter.
func (s *Store) adopt(c domain.Cart) {
	c = c.Clone()
	c.Recompute()
	s.cart = c

	maxID := int64(0)
	for _, item := range c.Items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	s.nextItemID = maxID + 1
}

// Cart returns a snapshot of the aggregate.
func (s *Store) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the currently surfaced operation error, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Subscribe registers fn to receive a cart snapshot after every change,
// including replacements arriving from other contexts.
func (s *Store) Subscribe(fn func(domain.Cart)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// AddToCart adds quantity units of equipment, merging into an existing
// line for the same equipment. The line price is snapshotted from the
// equipment's daily rate at first add and never refreshed.
func (s *Store) AddToCart(ctx context.Context, equipment *domain.Equipment, quantity int) error {
	if quantity <= 0 || quantity > s.cfg.MaxQuantityPerItem {
		return s.reject(ErrQuantityOutOfRange)
	}

	s.mu.Lock()
	idx := s.cart.FindItem(equipment.ID)

	requested := quantity
	if idx >= 0 {
		requested += s.cart.Items[idx].Quantity
	}

	switch {
	case idx < 0 && len(s.cart.Items) >= s.cfg.MaxItems:
		s.mu.Unlock()
		return s.reject(ErrCartFull)
	case requested > s.cfg.MaxQuantityPerItem:
		s.mu.Unlock()
		return s.reject(ErrQuantityOutOfRange)
	case equipment.Available < requested:
		s.mu.Unlock()
		return s.reject(ErrInsufficientAvailability)
	}

	if idx >= 0 {
		s.cart.Items[idx].Quantity = requested
	} else {
		s.cart.Items = append(s.cart.Items, domain.CartItem{
			ID:            s.nextItemID,
			EquipmentID:   equipment.ID,
			Name:          equipment.Name,
			Category:      equipment.Category,
			Price:         equipment.DailyRate,
			Quantity:      quantity,
			Availability:  equipment.Availability,
			MinRentalDays: equipment.MinRentalDays,
		})
		s.nextItemID++
	}

	s.commitLocked(ctx)
	return nil
}

// AddByID resolves equipmentID through the catalog and adds it.
func (s *Store) AddByID(ctx context.Context, equipmentID int64, quantity int) error {
	equipment, err := s.catalog.GetByID(ctx, equipmentID)
	if err != nil {
		return err
	}
	return s.AddToCart(ctx, equipment, quantity)
}

// RemoveFromCart removes the line with itemID. Removing an absent line
// is a no-op, not an error.
func (s *Store) RemoveFromCart(ctx context.Context, itemID int64) {
	s.mu.Lock()

	idx := -1
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
	s.commitLocked(ctx)
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less
// removes the line; a quantity above the per-item maximum fails and
// leaves the cart unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity <= 0 {
		s.RemoveFromCart(ctx, itemID)
		return nil
	}
	if quantity > s.cfg.MaxQuantityPerItem {
		return s.reject(ErrQuantityOutOfRange)
	}

	s.mu.Lock()

	idx := -1
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	s.cart.Items[idx].Quantity = quantity
	s.commitLocked(ctx)
	return nil
}

// SetRentalPeriod replaces the rental period. Days are counted on whole
// calendar-day boundaries, independent of time of day.
func (s *Store) SetRentalPeriod(ctx context.Context, start, end time.Time) error {
	startDay := dateOnly(start)
	endDay := dateOnly(end)
	days := int(endDay.Sub(startDay) / (24 * time.Hour))

	if days < s.cfg.MinRentalDays {
		return s.reject(ErrRentalTooShort)
	}
	if days > s.cfg.MaxRentalDays {
		return s.reject(ErrRentalTooLong)
	}
	if !s.cfg.AllowSameDayRental && startDay.Equal(dateOnly(time.Now().UTC())) {
		return s.reject(ErrSameDayRentalNotAllowed)
	}

	s.mu.Lock()
	s.cart.RentalPeriod = &domain.RentalPeriod{
		StartDate: startDay,
		EndDate:   endDay,
		Days:      days,
	}
	s.refreshEstimatedDeliveryLocked()
	s.commitLocked(ctx)
	return nil
}

// SetServices replaces the services selection verbatim; any combination
// of flags is legal.
func (s *Store) SetServices(ctx context.Context, selection domain.ServicesSelection) {
	s.mu.Lock()
	sel := selection
	s.cart.Services = &sel
	s.refreshEstimatedDeliveryLocked()
	s.commitLocked(ctx)
}

// ClearCart resets to an empty cart and removes the persisted record.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.cart = domain.NewCart()
	s.nextItemID = 1
	snapshot := s.cart.Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil {
		log.Printf("cart: clear persisted record failed: %v", err)
		s.surfaceError(ErrPersistence.Error())
	}
	for _, fn := range subs {
		fn(snapshot)
	}
}

// CalculateFullPrice derives pricing from the current cart, or nil when
// the cart is empty or has no rental period.
func (s *Store) CalculateFullPrice() *domain.PricingCalculation {
	return s.calc.Calculate(s.Cart())
}

// ValidateCart reports checkout eligibility.
func (s *Store) ValidateCart() ValidationResult {
	return Validate(s.Cart(), s.cfg)
}

// ExportCart snapshots the whole aggregate for an external checkout flow.
func (s *Store) ExportCart() domain.Cart {
	return s.Cart()
}

// Checkout validates the cart and, when it is eligible, returns a
// snapshot with its pricing and resets the cart. Validation, export
// and reset happen under one lock, so a write from another context
// cannot land between them and desync the snapshot from what was
// cleared. An ineligible cart is left untouched and the validation
// messages are returned instead.
func (s *Store) Checkout(ctx context.Context) (domain.Cart, *domain.PricingCalculation, []string) {
	s.mu.Lock()

	validation := Validate(s.cart, s.cfg)
	if !validation.IsValid {
		s.mu.Unlock()
		return domain.Cart{}, nil, validation.Errors
	}

	snapshot := s.cart.Clone()
	pricing := s.calc.Calculate(snapshot)

	s.cart = domain.NewCart()
	s.nextItemID = 1
	cleared := s.cart.Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil {
		log.Printf("cart: clear persisted record failed: %v", err)
		s.surfaceError(ErrPersistence.Error())
	}
	for _, fn := range subs {
		fn(cleared)
	}

	return snapshot, pricing, nil
}

// LoadCart atomically replaces the aggregate, then persists and
// broadcasts it.
func (s *Store) LoadCart(ctx context.Context, cart domain.Cart) {
	s.mu.Lock()
	s.adopt(cart)
	s.commitLocked(ctx)
}

// Close cancels the autosave and error timers and the external watch.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stopErr := s.stopErrClear
	s.mu.Unlock()

	s.stopAutosave()
	s.stopWatch()
	if stopErr != nil {
		stopErr()
	}
}

// commitLocked finishes a mutation: recompute totals, stamp, persist and
// notify. The caller holds s.mu; commitLocked releases it.
func (s *Store) commitLocked(ctx context.Context) {
	s.cart.Recompute()
	s.cart.UpdatedAt = time.Now().UTC()
	snapshot := s.cart.Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	// Persistence failure never rolls back the in-memory mutation.
	if err := s.persist.Save(ctx, snapshot); err != nil {
		log.Printf("cart: save failed: %v", err)
		s.surfaceError(ErrPersistence.Error())
	}

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) subscribersLocked() []func(domain.Cart) {
	out := make([]func(domain.Cart), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

// reject surfaces a validation error and hands it back to the caller.
func (s *Store) reject(err error) error {
	s.surfaceError(err.Error())
	return err
}

// surfaceError publishes msg as the current store error; it overwrites
// any previous one and auto-clears after the display duration.
func (s *Store) surfaceError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errMsg = msg
	if s.stopErrClear != nil {
		s.stopErrClear()
	}
	s.stopErrClear = s.sched.Once(s.cfg.ErrorDisplayDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.errMsg == msg {
			s.errMsg = ""
		}
	})
}

// autosave writes a non-empty cart even when nothing changed, to resist
// data loss from ungraceful termination.
func (s *Store) autosave() {
	s.mu.Lock()
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return
	}
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	if err := s.persist.Save(context.Background(), snapshot); err != nil {
		log.Printf("cart: autosave failed: %v", err)
	}
}

// onExternalChange replaces the in-memory cart with a snapshot written
// by another context. nil means the record was deleted.
func (s *Store) onExternalChange(saved *domain.Cart) {
	s.mu.Lock()
	if saved == nil {
		s.cart = domain.NewCart()
		s.nextItemID = 1
	} else {
		s.adopt(*saved)
	}
	snapshot := s.cart.Clone()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) refreshEstimatedDeliveryLocked() {
	if s.cart.RentalPeriod != nil && s.cart.Services != nil && s.cart.Services.Delivery {
		d := s.cart.RentalPeriod.StartDate
		s.cart.EstimatedDelivery = &d
	} else {
		s.cart.EstimatedDelivery = nil
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"rentgear/internal/domain"
	"rentgear/internal/kvstore"
)

// Persistence serializes the cart aggregate to a single key. Date fields
// travel as RFC 3339 strings and come back as time values on load.
type Persistence struct {
	kv  kvstore.Store
	key string
}

func NewPersistence(kv kvstore.Store, key string) *Persistence {
	return &Persistence{kv: kv, key: key}
}

func (p *Persistence) Save(ctx context.Context, cart domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := p.kv.Set(ctx, p.key, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Load returns nil when no cart is stored. Malformed data is treated as
// "no saved cart", never as a fatal error.
func (p *Persistence) Load(ctx context.Context) (*domain.Cart, error) {
	payload, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	cart, ok := decodeCart(payload)
	if !ok {
		log.Printf("cart: discarding malformed record at %q", p.key)
		return nil, nil
	}
	return cart, nil
}

func (p *Persistence) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Watch reports writes made by other contexts to the same key. fn gets
// nil when the record was deleted, and is not called for payloads that
// fail to decode.
func (p *Persistence) Watch(fn func(cart *domain.Cart)) (stop func()) {
	return p.kv.Watch(p.key, func(value []byte) {
		if value == nil {
			fn(nil)
			return
		}
		cart, ok := decodeCart(value)
		if !ok {
			log.Printf("cart: ignoring malformed external write at %q", p.key)
			return
		}
		fn(cart)
	})
}

func decodeCart(payload []byte) (*domain.Cart, bool) {
	var cart domain.Cart
	if err := json.Unmarshal(payload, &cart); err != nil {
		return nil, false
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, true
}

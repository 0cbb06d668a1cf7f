package checkout

import (
	"context"
	"errors"
	"time"

	"rentgear/internal/domain"
	"rentgear/internal/modules/cart"
)

var ErrCartInvalid = errors.New("cart is not eligible for checkout")

// Result is the order snapshot handed to the payment/order flow. The
// cart is exported atomically and cleared once the snapshot is taken;
// nothing is persisted server-side here.
type Result struct {
	Cart        domain.Cart                `json:"cart"`
	Pricing     *domain.PricingCalculation `json:"pricing"`
	CompletedAt time.Time                  `json:"completed_at"`
}

type Service struct {
	carts *cart.Manager
}

func NewService(carts *cart.Manager) *Service {
	return &Service{carts: carts}
}

// Complete validates the cart, snapshots it with its pricing and resets
// it, all in one store operation so a concurrent write on the same cart
// key cannot slip between the snapshot and the reset. On validation
// failure the cart is left untouched and the validation errors are
// returned alongside ErrCartInvalid.
func (s *Service) Complete(ctx context.Context, cartID string) (*Result, []string, error) {
	snapshot, pricing, validationErrors := s.carts.Store(cartID).Checkout(ctx)
	if validationErrors != nil {
		return nil, validationErrors, ErrCartInvalid
	}

	return &Result{
		Cart:        snapshot,
		Pricing:     pricing,
		CompletedAt: time.Now().UTC(),
	}, nil, nil
}

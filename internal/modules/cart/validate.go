package cart

import (
	"fmt"

	"rentgear/internal/config"
	"rentgear/internal/domain"
)

type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Validate checks whether a cart may proceed to checkout.
//
// A rental period is deliberately not required unless
// cfg.RequireRentalPeriod is set: historically carts could check out
// without one even though pricing needs it, and that leniency is kept as
// the default.
func Validate(cart domain.Cart, cfg *config.Config) ValidationResult {
	errs := []string{}

	if cart.IsEmpty() {
		errs = append(errs, "cart is empty")
	}

	for _, item := range cart.Items {
		if item.Availability == domain.AvailabilityUnavailable {
			errs = append(errs, fmt.Sprintf("%s is unavailable", item.Name))
		}
	}

	if cfg.RequireRentalPeriod && cart.RentalPeriod == nil {
		errs = append(errs, "rental period is required")
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

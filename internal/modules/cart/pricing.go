package cart

import (
	"rentgear/internal/config"
	"rentgear/internal/domain"
)

// Calculator derives a PricingCalculation from a cart without mutating
// it. All amounts are whole currency units.
type Calculator struct {
	cfg *config.Config
}

func NewCalculator(cfg *config.Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate returns nil when the cart has no items or no rental period:
// pricing requires a billable duration.
//
// BasePrice multiplies by rental days, unlike Cart.TotalPrice which is
// day-rate only.
func (calc *Calculator) Calculate(cart domain.Cart) *domain.PricingCalculation {
	if cart.IsEmpty() || cart.RentalPeriod == nil {
		return nil
	}

	days := cart.RentalPeriod.Days
	services := domain.ServicesSelection{}
	if cart.Services != nil {
		services = *cart.Services
	}

	var basePrice int64
	quantity := 0
	for _, item := range cart.Items {
		basePrice += item.Price * int64(item.Quantity) * int64(days)
		quantity += item.Quantity
	}

	var deliveryFee int64
	if services.Delivery && basePrice < calc.cfg.FreeDeliveryThreshold {
		deliveryFee = calc.cfg.DeliveryFee
	}

	var setupFee int64
	if services.Setup {
		setupFee = basePrice * calc.cfg.SetupPercent / 100
		if setupFee < calc.cfg.SetupMinFee {
			setupFee = calc.cfg.SetupMinFee
		}
	}

	var supportFee int64
	if services.Support {
		supportFee = int64(days) * calc.cfg.SupportFeePerDay
	}

	servicesTotal := deliveryFee + setupFee + supportFee

	return &domain.PricingCalculation{
		BasePrice:     basePrice,
		RentalDays:    days,
		Quantity:      quantity,
		DeliveryFee:   deliveryFee,
		SetupFee:      setupFee,
		SupportFee:    supportFee,
		Subtotal:      basePrice,
		ServicesTotal: servicesTotal,
		TotalPrice:    basePrice + servicesTotal,
		Breakdown: domain.PriceBreakdown{
			Equipment: basePrice,
			Delivery:  deliveryFee,
			Setup:     setupFee,
			Support:   supportFee,
		},
	}
}

package domain

// PriceBreakdown mirrors the four fee components of a calculation.
type PriceBreakdown struct {
	Equipment int64 `json:"equipment"`
	Delivery  int64 `json:"delivery"`
	Setup     int64 `json:"setup"`
	Support   int64 `json:"support"`
}

// PricingCalculation is derived on demand from cart + rental period +
// services. It is never persisted.
type PricingCalculation struct {
	BasePrice     int64          `json:"base_price"`
	RentalDays    int            `json:"rental_days"`
	Quantity      int            `json:"quantity"`
	DeliveryFee   int64          `json:"delivery_fee"`
	SetupFee      int64          `json:"setup_fee"`
	SupportFee    int64          `json:"support_fee"`
	Subtotal      int64          `json:"subtotal"`
	ServicesTotal int64          `json:"services_total"`
	TotalPrice    int64          `json:"total_price"`
	Breakdown     PriceBreakdown `json:"price_breakdown"`
}

package domain

import "time"

// CartItem is one cart line, uniquely keyed by EquipmentID within a cart.
type CartItem struct {
	ID          int64 `json:"id"`
	EquipmentID int64 `json:"equipment_id"`

	Name     string `json:"name"`
	Category string `json:"category"`

	// Price is the daily rate snapshotted when the line was first added.
	// It is never re-read from the catalog, including on merge.
	Price    int64 `json:"price"`
	Quantity int   `json:"quantity"`

	Availability  AvailabilityStatus `json:"availability"`
	MinRentalDays int                `json:"min_rental_days"`

	// Subtotal is derived (Price * Quantity) and kept for display only.
	Subtotal int64 `json:"subtotal"`
}

// RentalPeriod is a whole-calendar-day date range.
type RentalPeriod struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"`
}

type ServicesSelection struct {
	Delivery bool `json:"delivery"`
	Setup    bool `json:"setup"`
	Support  bool `json:"support"`
	Training bool `json:"training"`
}

// Cart is the aggregate root. TotalItems and TotalPrice are recomputed
// after every item mutation and are never set independently.
// TotalPrice is day-rate only (not multiplied by rental days).
type Cart struct {
	Items             []CartItem         `json:"items"`
	TotalItems        int                `json:"total_items"`
	TotalPrice        int64              `json:"total_price"`
	RentalPeriod      *RentalPeriod      `json:"rental_period,omitempty"`
	Services          *ServicesSelection `json:"services,omitempty"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NewCart returns an empty cart stamped with the current time.
func NewCart() Cart {
	now := time.Now().UTC()
	return Cart{
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Recompute refreshes TotalItems, TotalPrice and the per-line subtotals.
func (c *Cart) Recompute() {
	total := 0
	price := int64(0)
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].Price * int64(c.Items[i].Quantity)
		total += c.Items[i].Quantity
		price += c.Items[i].Subtotal
	}
	c.TotalItems = total
	c.TotalPrice = price
}

// Clone returns a deep copy; mutating the copy never touches the original.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.RentalPeriod != nil {
		rp := *c.RentalPeriod
		out.RentalPeriod = &rp
	}
	if c.Services != nil {
		sv := *c.Services
		out.Services = &sv
	}
	if c.EstimatedDelivery != nil {
		ed := *c.EstimatedDelivery
		out.EstimatedDelivery = &ed
	}
	return out
}

// FindItem returns the index of the line holding equipmentID, or -1.
func (c *Cart) FindItem(equipmentID int64) int {
	for i := range c.Items {
		if c.Items[i].EquipmentID == equipmentID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

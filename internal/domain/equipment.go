package domain

import "time"

type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityLimited     AvailabilityStatus = "limited"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// Equipment is a catalog record. The cart never mutates it; prices are
// whole currency units.
type Equipment struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Category      string             `json:"category"`
	DailyRate     int64              `json:"daily_rate"`
	WeeklyRate    int64              `json:"weekly_rate"`
	MonthlyRate   int64              `json:"monthly_rate"`
	DeliveryFee   int64              `json:"delivery_fee"`
	SetupFee      int64              `json:"setup_fee"`
	MinRentalDays int                `json:"min_rental_days"`
	Available     int                `json:"available"`
	Total         int                `json:"total"`
	Availability  AvailabilityStatus `json:"availability"`
	CreatedAt     time.Time          `json:"created_at"`
}

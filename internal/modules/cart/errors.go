package cart

import "errors"

var (
	ErrQuantityOutOfRange       = errors.New("quantity out of range")
	ErrCartFull                 = errors.New("cart is full")
	ErrInsufficientAvailability = errors.New("insufficient availability")
	ErrRentalTooShort           = errors.New("rental period too short")
	ErrRentalTooLong            = errors.New("rental period too long")
	ErrSameDayRentalNotAllowed  = errors.New("same-day rental not allowed")
	ErrPersistence              = errors.New("cart persistence failed")
)

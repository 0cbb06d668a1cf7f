package cart

type AddItemRequest struct {
	EquipmentID int64 `json:"equipment_id" binding:"required"`
	// Quantity defaults to 1 when omitted.
	Quantity int `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type RentalPeriodRequest struct {
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}

type ServicesRequest struct {
	Delivery bool `json:"delivery"`
	Setup    bool `json:"setup"`
	Support  bool `json:"support"`
	Training bool `json:"training"`
}

package cart

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rentgear/internal/domain"
	"rentgear/internal/pkg/response"
	"rentgear/internal/repository"
)

const cartIDHeader = "X-Cart-ID"

type Handler struct {
	manager  *Manager
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(manager *Manager, hub *Hub) *Handler {
	return &Handler{
		manager: manager,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cart", h.GetCart)
	rg.DELETE("/cart", h.ClearCart)
	rg.POST("/cart/items", h.AddItem)
	rg.PATCH("/cart/items/:id", h.UpdateQuantity)
	rg.DELETE("/cart/items/:id", h.RemoveItem)
	rg.PUT("/cart/rental-period", h.SetRentalPeriod)
	rg.PUT("/cart/services", h.SetServices)
	rg.GET("/cart/price", h.GetPrice)
	rg.GET("/cart/validate", h.ValidateCart)
}

func (h *Handler) store(c *gin.Context) (*Store, bool) {
	cartID := c.GetHeader(cartIDHeader)
	if cartID == "" {
		response.Error(c, http.StatusBadRequest, "MISSING_CART_ID", "X-Cart-ID header is required")
		return nil, false
	}
	return h.manager.Store(cartID), true
}

func cartPayload(s *Store) gin.H {
	return gin.H{
		"cart":       s.Cart(),
		"is_loading": s.IsLoading(),
		"error":      s.Err(),
	}
}

// GetCart handles GET /api/v1/cart
func (h *Handler) GetCart(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, cartPayload(s))
}

// AddItem handles POST /api/v1/cart/items
func (h *Handler) AddItem(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "equipment_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := s.AddByID(c.Request.Context(), req.EquipmentID, req.Quantity); err != nil {
		handleCartError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, cartPayload(s))
}

// UpdateQuantity handles PATCH /api/v1/cart/items/:id
func (h *Handler) UpdateQuantity(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "quantity is required")
		return
	}

	if err := s.UpdateQuantity(c.Request.Context(), itemID, *req.Quantity); err != nil {
		handleCartError(c, err)
		return
	}

	response.Success(c, http.StatusOK, cartPayload(s))
}

// RemoveItem handles DELETE /api/v1/cart/items/:id
func (h *Handler) RemoveItem(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID")
		return
	}

	s.RemoveFromCart(c.Request.Context(), itemID)
	response.Success(c, http.StatusOK, cartPayload(s))
}

// SetRentalPeriod handles PUT /api/v1/cart/rental-period
func (h *Handler) SetRentalPeriod(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	var req RentalPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date and end_date are required")
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end_date must be YYYY-MM-DD")
		return
	}

	if err := s.SetRentalPeriod(c.Request.Context(), start, end); err != nil {
		handleCartError(c, err)
		return
	}

	response.Success(c, http.StatusOK, cartPayload(s))
}

// SetServices handles PUT /api/v1/cart/services
func (h *Handler) SetServices(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	var req ServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid services payload")
		return
	}

	s.SetServices(c.Request.Context(), domain.ServicesSelection{
		Delivery: req.Delivery,
		Setup:    req.Setup,
		Support:  req.Support,
		Training: req.Training,
	})
	response.Success(c, http.StatusOK, cartPayload(s))
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handler) ClearCart(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	s.ClearCart(c.Request.Context())
	response.Success(c, http.StatusOK, cartPayload(s))
}

// GetPrice handles GET /api/v1/cart/price. Data is null when the cart is
// empty or has no rental period.
func (h *Handler) GetPrice(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pricing": s.CalculateFullPrice()})
}

// ValidateCart handles GET /api/v1/cart/validate
func (h *Handler) ValidateCart(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, s.ValidateCart())
}

// ServeWS handles GET /ws/cart: upgrades the connection and streams
// cart_updated events for the caller's cart key.
func (h *Handler) ServeWS(c *gin.Context) {
	cartID := c.GetHeader(cartIDHeader)
	if cartID == "" {
		cartID = c.Query("cart_id")
	}
	if cartID == "" {
		response.Error(c, http.StatusBadRequest, "MISSING_CART_ID", "X-Cart-ID header or cart_id query is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Opening the store here so external writes reach the socket even if
	// no REST call happened in this process yet.
	h.manager.Store(cartID)
	h.hub.Register(cartID, conn)

	go func() {
		defer h.hub.Unregister(cartID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func handleCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrQuantityOutOfRange):
		response.Error(c, http.StatusBadRequest, "QUANTITY_OUT_OF_RANGE", err.Error())
	case errors.Is(err, ErrCartFull):
		response.Error(c, http.StatusConflict, "CART_FULL", err.Error())
	case errors.Is(err, ErrInsufficientAvailability):
		response.Error(c, http.StatusConflict, "INSUFFICIENT_AVAILABILITY", err.Error())
	case errors.Is(err, ErrRentalTooShort):
		response.Error(c, http.StatusBadRequest, "RENTAL_TOO_SHORT", err.Error())
	case errors.Is(err, ErrRentalTooLong):
		response.Error(c, http.StatusBadRequest, "RENTAL_TOO_LONG", err.Error())
	case errors.Is(err, ErrSameDayRentalNotAllowed):
		response.Error(c, http.StatusBadRequest, "SAME_DAY_NOT_ALLOWED", err.Error())
	case errors.Is(err, repository.ErrEquipmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

package checkout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentgear/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.Complete)
}

// Complete handles POST /api/v1/checkout
func (h *Handler) Complete(c *gin.Context) {
	cartID := c.GetHeader("X-Cart-ID")
	if cartID == "" {
		response.Error(c, http.StatusBadRequest, "MISSING_CART_ID", "X-Cart-ID header is required")
		return
	}

	result, validationErrors, err := h.service.Complete(c.Request.Context(), cartID)
	if err != nil {
		if errors.Is(err, ErrCartInvalid) {
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "CART_INVALID",
				"Cart is not eligible for checkout", validationErrors)
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": result})
}

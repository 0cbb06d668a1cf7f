package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentgear/internal/pkg/response"
	"rentgear/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog/equipment", h.ListEquipment)
	rg.GET("/catalog/equipment/:id", h.GetEquipmentByID)
}

// ListEquipment handles GET /api/v1/catalog/equipment with an optional
// category filter.
func (h *Handler) ListEquipment(c *gin.Context) {
	items, err := h.service.ListEquipment(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"equipment": items})
}

// GetEquipmentByID handles GET /api/v1/catalog/equipment/:id
func (h *Handler) GetEquipmentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	item, err := h.service.GetEquipment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"equipment": item})
}

package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/application"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
)

// availabilityRequest is the body of an availability check.
type availabilityRequest struct {
	StartDate bookingDomain.Date `json:"start_date"`
	EndDate   bookingDomain.Date `json:"end_date"`
}

// PropertyHandler handles HTTP requests for the property catalog.
type PropertyHandler struct {
	properties   *application.PropertyService
	availability *application.AvailabilityChecker
	logger       *zap.Logger
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(
	properties *application.PropertyService,
	availability *application.AvailabilityChecker,
	logger *zap.Logger,
) *PropertyHandler {
	return &PropertyHandler{properties: properties, availability: availability, logger: logger}
}

// RegisterRoutes registers the property routes on the given router group.
func (h *PropertyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	props := rg.Group("/properties")
	{
		props.GET("", h.ListProperties)
		props.GET("/:id", h.GetProperty)
		props.POST("/:id/availability", h.CheckAvailability)
	}
}

// ListProperties handles GET /api/v1/properties.
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	respondSuccess(c, h.properties.ListProperties())
}

// GetProperty handles GET /api/v1/properties/:id.
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	prop, err := h.properties.GetProperty(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, prop)
}

// CheckAvailability handles POST /api/v1/properties/:id/availability.
func (h *PropertyHandler) CheckAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.availability.Check(c.Request.Context(), c.Param("id"), req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, result)
}

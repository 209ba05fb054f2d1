package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/application"
)

// PaymentHandler handles HTTP requests for payment intents.
type PaymentHandler struct {
	service *application.PaymentService
	logger  *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

// RegisterRoutes registers the payment routes on the given router group.
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("/intent", h.CreateIntent)
	}
}

// CreateIntent handles POST /api/v1/payments/intent.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req application.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	intent, err := h.service.CreateIntent(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("create payment intent failed",
			zap.String("property_id", req.PropertyID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	respondCreated(c, intent)
}

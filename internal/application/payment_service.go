package application

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	"github.com/stayloop/service-booking/internal/domain/property"
	"github.com/stayloop/service-booking/internal/payments"
)

// paymentCurrency is the only currency the demo charges in.
const paymentCurrency = "usd"

// CreatePaymentIntentRequest holds the data needed to create a payment intent.
type CreatePaymentIntentRequest struct {
	PropertyID  string             `json:"property_id" binding:"required"`
	StartDate   bookingDomain.Date `json:"start_date"`
	EndDate     bookingDomain.Date `json:"end_date"`
	Guests      int                `json:"guests"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

// PaymentIntentDTO is the response representation of a created intent.
type PaymentIntentDTO struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	MockMode        bool   `json:"mock_mode"`
}

// PaymentService creates payment intents through the configured provider.
type PaymentService struct {
	catalog  property.Catalog
	provider payments.Provider
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(catalog property.Catalog, provider payments.Provider, logger *zap.Logger) *PaymentService {
	return &PaymentService{catalog: catalog, provider: provider, logger: logger}
}

// CreateIntent creates a payment intent for a prospective booking. In mock
// mode the returned client secret is synthetic and nothing is charged.
func (s *PaymentService) CreateIntent(ctx context.Context, req CreatePaymentIntentRequest) (*PaymentIntentDTO, error) {
	prop := s.catalog.GetByID(req.PropertyID)
	if prop == nil {
		return nil, domain.NewNotFoundError("Property", req.PropertyID)
	}
	if req.TotalAmount.IsNegative() {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}

	intent, err := s.provider.CreateIntent(ctx, payments.CreateIntentParams{
		AmountMinorUnits: req.TotalAmount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency:         paymentCurrency,
		Description: fmt.Sprintf("Property booking for %s - %d guests from %s to %s",
			prop.Name, req.Guests, req.StartDate, req.EndDate),
		Metadata: map[string]string{
			"property_id":      prop.ID,
			"property_name":    prop.Name,
			"start_date":       req.StartDate.String(),
			"end_date":         req.EndDate.String(),
			"guests":           strconv.Itoa(req.Guests),
			"booking_type":     "property_rental",
			"service_category": "accommodation",
		},
	})
	if err != nil {
		s.logger.Error("payment intent creation failed",
			zap.String("property_id", prop.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentDTO{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		MockMode:        intent.MockMode,
	}, nil
}

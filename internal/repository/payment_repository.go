package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	paymentDomain "github.com/stayloop/service-booking/internal/domain/payment"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	PaymentIntentID string          `gorm:"not null;size:255;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency        string          `gorm:"not null;size:3;default:'usd'"`
	Status          string          `gorm:"not null;size:30;index"`
	Method          string          `gorm:"size:50"`
	Provider        string          `gorm:"size:50;default:'stripe'"`
	FailureReason   string          `gorm:"size:1000"`
	Metadata        json.RawMessage `gorm:"type:jsonb"`
	CreatedAt       time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save persists a new payment record. Records are append-only.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model, err := toPaymentModel(p)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// FindByBookingID retrieves all payment records for a booking, oldest first.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}

	records := make([]*paymentDomain.Payment, len(models))
	for i, m := range models {
		rec, err := toDomainPayment(&m)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

// --- Conversion Helpers ---

func toPaymentModel(p *paymentDomain.Payment) (*PaymentModel, error) {
	var metadataJSON json.RawMessage
	if len(p.Metadata) > 0 {
		data, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payment metadata: %w", err)
		}
		metadataJSON = data
	}

	return &PaymentModel{
		ID:              p.ID,
		BookingID:       p.BookingID,
		PaymentIntentID: p.PaymentIntentID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          p.Status.String(),
		Method:          p.Method,
		Provider:        p.Provider,
		FailureReason:   p.FailureReason,
		Metadata:        metadataJSON,
		CreatedAt:       p.CreatedAt,
	}, nil
}

func toDomainPayment(m *PaymentModel) (*paymentDomain.Payment, error) {
	var metadata map[string]string
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payment metadata: %w", err)
		}
	}

	return &paymentDomain.Payment{
		ID:              m.ID,
		BookingID:       m.BookingID,
		PaymentIntentID: m.PaymentIntentID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Status:          paymentDomain.PaymentStatus(m.Status),
		Method:          m.Method,
		Provider:        m.Provider,
		FailureReason:   m.FailureReason,
		Metadata:        metadata,
		CreatedAt:       m.CreatedAt,
	}, nil
}

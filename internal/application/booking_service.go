package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	paymentDomain "github.com/stayloop/service-booking/internal/domain/payment"
	"github.com/stayloop/service-booking/internal/domain/property"
	"github.com/stayloop/service-booking/internal/payments"
)

// Result messages returned alongside the final booking state.
const (
	msgBookingConfirmed = "Booking confirmed successfully!"
	msgPaymentFailed    = "Payment failed"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	PropertyID      string             `json:"property_id" binding:"required"`
	StartDate       bookingDomain.Date `json:"start_date"`
	EndDate         bookingDomain.Date `json:"end_date"`
	Guests          int                `json:"guests"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaymentIntentID string             `json:"payment_intent_id"`
	GuestEmail      string             `json:"guest_email"`
	GuestName       string             `json:"guest_name"`
	GuestPhone      string             `json:"guest_phone"`
	SpecialRequests string             `json:"special_requests"`
}

// CancelBookingRequest holds the optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// PaymentDTO is the response representation of a payment record.
type PaymentDTO struct {
	ID              uuid.UUID         `json:"id"`
	BookingID       uuid.UUID         `json:"booking_id"`
	PaymentIntentID string            `json:"payment_intent_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	Method          string            `json:"method,omitempty"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID          `json:"id"`
	PropertyID      string             `json:"property_id"`
	PropertyName    string             `json:"property_name"`
	StartDate       bookingDomain.Date `json:"start_date"`
	EndDate         bookingDomain.Date `json:"end_date"`
	Guests          int                `json:"guests"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Status          string             `json:"status"`
	PaymentIntentID string             `json:"payment_intent_id,omitempty"`
	GuestEmail      string             `json:"guest_email,omitempty"`
	GuestName       string             `json:"guest_name,omitempty"`
	GuestPhone      string             `json:"guest_phone,omitempty"`
	SpecialRequests string             `json:"special_requests,omitempty"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	Payments        []PaymentDTO       `json:"payments,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// BookingResult is the outcome of a create-booking call: the final booking
// state plus a human-readable message distinguishing "your request was
// processed" from "your payment did not go through".
type BookingResult struct {
	Booking BookingDTO `json:"booking"`
	Message string     `json:"message"`
}

// BookingService drives the booking lifecycle: conflict re-checking,
// persistence, payment verification and the final status transition.
type BookingService struct {
	catalog     property.Catalog
	bookings    bookingDomain.BookingRepository
	paymentRepo paymentDomain.PaymentRepository
	provider    payments.Provider
	notifier    ReservationSyncNotifier
	logger      *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	catalog property.Catalog,
	bookings bookingDomain.BookingRepository,
	paymentRepo paymentDomain.PaymentRepository,
	provider payments.Provider,
	notifier ReservationSyncNotifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		catalog:     catalog,
		bookings:    bookings,
		paymentRepo: paymentRepo,
		provider:    provider,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateBooking creates a booking and drives it to its terminal status for
// this call: pending -> confirmed or pending -> payment_failed, based on
// payment verification. Conflict and not-found failures perform no writes.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error) {
	prop := s.catalog.GetByID(req.PropertyID)
	if prop == nil {
		return nil, domain.NewNotFoundError("Property", req.PropertyID)
	}

	stay, err := bookingDomain.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if req.Guests <= 0 {
		return nil, domain.NewValidationError("guest count must be positive")
	}
	if req.Guests > prop.MaxGuests {
		return nil, domain.NewValidationError(
			fmt.Sprintf("property %s accommodates at most %d guests", prop.ID, prop.MaxGuests))
	}

	// Re-check conflicts even though the client already called the
	// availability endpoint: the repository repeats this check inside the
	// insert transaction, so the window between check and create stays
	// closed under concurrent requests.
	confirmed, err := s.bookings.FindConfirmedByProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed bookings: %w", err)
	}
	if hasConflict(confirmed, req.PropertyID, stay) {
		return nil, domain.NewConflictError(conflictReasonBooked)
	}

	bk, err := bookingDomain.NewBooking(
		prop.ID,
		prop.Name,
		stay,
		req.Guests,
		req.TotalAmount,
		req.PaymentIntentID,
		bookingDomain.GuestContact{
			Email:           req.GuestEmail,
			Name:            req.GuestName,
			Phone:           req.GuestPhone,
			SpecialRequests: req.SpecialRequests,
		},
	)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, bk); err != nil {
		return nil, err
	}

	if err := s.resolvePayment(ctx, bk, req); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		// Two pendings can race past the insert guard; the exclusion
		// constraint rejects the second confirm. The stored row is still
		// pending at that point, so settle it before surfacing the conflict.
		if domain.IsConflict(err) && bk.Status() == bookingDomain.StatusConfirmed {
			s.settleLostConfirm(ctx, bk)
		}
		return nil, err
	}

	// Fire-and-forget reservation sync; a failure here never fails the booking.
	if err := s.notifier.Notify(ctx, bk.ID(), bk.PropertyID()); err != nil {
		s.logger.Warn("reservation sync notify failed",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}

	message := msgBookingConfirmed
	if bk.Status() != bookingDomain.StatusConfirmed {
		message = msgPaymentFailed
	}

	s.logger.Info("booking processed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("property_id", bk.PropertyID()),
		zap.String("status", bk.Status().String()),
	)

	return &BookingResult{Booking: toBookingDTO(bk, nil), Message: message}, nil
}

// resolvePayment verifies the booking's payment intent and applies the
// resulting status transition, persisting a payment record for real-provider
// outcomes. Provider errors are recovered into payment_failed and never
// surface as a hard failure of the create call.
func (s *BookingService) resolvePayment(ctx context.Context, bk *bookingDomain.Booking, req CreateBookingRequest) error {
	// Synthetic intents are automatically succeeded and leave no payment
	// record, even when a live provider is configured.
	if payments.IsMockIntent(bk.PaymentIntentID()) {
		s.logger.Info("mock payment processed", zap.String("booking_id", bk.ID().String()))
		return bk.ConfirmPayment()
	}

	// Pure mock environment: no credential configured, default to confirmed.
	if !s.provider.Live() {
		return bk.ConfirmPayment()
	}

	metadata := map[string]string{
		"property_id": bk.PropertyID(),
		"guests":      strconv.Itoa(bk.Guests()),
	}

	status, err := s.provider.RetrieveIntent(ctx, bk.PaymentIntentID())
	if err != nil {
		s.logger.Warn("payment verification failed",
			zap.String("booking_id", bk.ID().String()),
			zap.String("payment_intent_id", bk.PaymentIntentID()),
			zap.Error(err),
		)
		if provErr, ok := err.(*payments.ProviderError); ok {
			metadata["error_code"] = provErr.Code
			if provErr.NotFound {
				metadata["error_type"] = "intent_not_found"
			}
		}
		if err := bk.FailPayment(); err != nil {
			return err
		}
		record := paymentDomain.NewFailed(bk.ID(), bk.PaymentIntentID(), bk.TotalAmount(), paymentCurrency, err.Error(), metadata)
		return s.paymentRepo.Save(ctx, record)
	}

	metadata["provider_intent_status"] = string(status)

	if status == payments.IntentStatusSucceeded {
		if err := bk.ConfirmPayment(); err != nil {
			return err
		}
		record := paymentDomain.NewSucceeded(bk.ID(), bk.PaymentIntentID(), bk.TotalAmount(), paymentCurrency, metadata)
		return s.paymentRepo.Save(ctx, record)
	}

	if err := bk.FailPayment(); err != nil {
		return err
	}
	reason := fmt.Sprintf("payment not completed: provider status %q", status)
	record := paymentDomain.NewFailed(bk.ID(), bk.PaymentIntentID(), bk.TotalAmount(), paymentCurrency, reason, metadata)
	return s.paymentRepo.Save(ctx, record)
}

// settleLostConfirm drives a booking whose confirm update lost the race to a
// concurrent overlapping confirmation into payment_failed, so no booking is
// left pending. On the live-provider path a succeeded payment record was
// already persisted; a failed record is appended so the latest record
// reflects the outcome.
func (s *BookingService) settleLostConfirm(ctx context.Context, bk *bookingDomain.Booking) {
	stored, err := s.bookings.FindByID(ctx, bk.ID())
	if err != nil {
		s.logger.Error("failed to reload booking after lost confirmation race",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return
	}
	if stored.Status() != bookingDomain.StatusPending {
		return
	}

	if err := stored.FailPayment(); err != nil {
		s.logger.Error("failed to fail booking after lost confirmation race",
			zap.String("booking_id", stored.ID().String()),
			zap.Error(err),
		)
		return
	}
	stored.IncrementVersion()
	if err := s.bookings.Update(ctx, stored); err != nil {
		s.logger.Error("failed to settle booking after lost confirmation race",
			zap.String("booking_id", stored.ID().String()),
			zap.Error(err),
		)
		return
	}

	if s.provider.Live() && !payments.IsMockIntent(stored.PaymentIntentID()) {
		record := paymentDomain.NewFailed(stored.ID(), stored.PaymentIntentID(), stored.TotalAmount(),
			paymentCurrency, conflictReasonBooked, map[string]string{"property_id": stored.PropertyID()})
		if err := s.paymentRepo.Save(ctx, record); err != nil {
			s.logger.Error("failed to record lost-race payment outcome",
				zap.String("booking_id", stored.ID().String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Warn("booking lost confirmation race, marked payment_failed",
		zap.String("booking_id", stored.ID().String()),
		zap.String("property_id", stored.PropertyID()),
	)
}

// GetBooking retrieves a single booking with its payment records.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	records, err := s.paymentRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	result := toBookingDTO(bk, records)
	return &result, nil
}

// CancelBooking cancels a booking that is not yet in a terminal state.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", bk.ID().String()))
	result := toBookingDTO(bk, nil)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, nil)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking, records []*paymentDomain.Payment) BookingDTO {
	dto := BookingDTO{
		ID:              bk.ID(),
		PropertyID:      bk.PropertyID(),
		PropertyName:    bk.PropertyName(),
		StartDate:       bk.StartDate(),
		EndDate:         bk.EndDate(),
		Guests:          bk.Guests(),
		TotalAmount:     bk.TotalAmount(),
		Status:          bk.Status().String(),
		PaymentIntentID: bk.PaymentIntentID(),
		GuestEmail:      bk.Contact().Email,
		GuestName:       bk.Contact().Name,
		GuestPhone:      bk.Contact().Phone,
		SpecialRequests: bk.Contact().SpecialRequests,
		CancelReason:    bk.CancelReason(),
		CancelledAt:     bk.CancelledAt(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
	for _, rec := range records {
		dto.Payments = append(dto.Payments, toPaymentDTO(rec))
	}
	return dto
}

func toPaymentDTO(p *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:              p.ID,
		BookingID:       p.BookingID,
		PaymentIntentID: p.PaymentIntentID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          p.Status.String(),
		Method:          p.Method,
		FailureReason:   p.FailureReason,
		Metadata:        p.Metadata,
		CreatedAt:       p.CreatedAt,
	}
}

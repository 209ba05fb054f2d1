package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stayloop/service-booking/internal/catalog"
	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	paymentDomain "github.com/stayloop/service-booking/internal/domain/payment"
	"github.com/stayloop/service-booking/internal/payments"
)

type bookingFixture struct {
	service  *BookingService
	bookings *fakeBookingRepo
	payments *fakePaymentRepo
	provider *stubProvider
	notifier *recordingNotifier
}

func newBookingFixture(t *testing.T, provider *stubProvider) *bookingFixture {
	t.Helper()
	cat, err := catalog.NewStaticCatalog()
	require.NoError(t, err)

	bookings := newFakeBookingRepo()
	paymentRepo := newFakePaymentRepo()
	notifier := &recordingNotifier{}

	return &bookingFixture{
		service:  NewBookingService(cat, bookings, paymentRepo, provider, notifier, zap.NewNop()),
		bookings: bookings,
		payments: paymentRepo,
		provider: provider,
		notifier: notifier,
	}
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		PropertyID:      "guesty_1",
		StartDate:       bookingDomain.NewDate(2024, time.December, 20),
		EndDate:         bookingDomain.NewDate(2024, time.December, 22),
		Guests:          2,
		TotalAmount:     decimal.NewFromInt(900),
		PaymentIntentID: "pi_3abc123",
		GuestEmail:      "guest@example.com",
		GuestName:       "Alex Guest",
	}
}

func TestCreateBookingSucceededPayment(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: true, retrieveStatus: payments.IntentStatusSucceeded})

	result, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "confirmed", result.Booking.Status)
	assert.Equal(t, "Booking confirmed successfully!", result.Message)
	assert.Equal(t, "Luxury Beachfront Villa - Miami", result.Booking.PropertyName)

	records, err := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, paymentDomain.StatusSucceeded, records[0].Status)
	assert.Equal(t, "usd", records[0].Currency)

	// Reservation sync fired once.
	assert.Len(t, f.notifier.notified, 1)
}

func TestCreateBookingProviderReportsNotSucceeded(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: true, retrieveStatus: "requires_payment_method"})

	result, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "payment_failed", result.Booking.Status)
	assert.Equal(t, "Payment failed", result.Message)

	records, err := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, paymentDomain.StatusFailed, records[0].Status)
	assert.NotEmpty(t, records[0].FailureReason)
	assert.Contains(t, records[0].FailureReason, "requires_payment_method")
}

func TestCreateBookingProviderError(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{
		live:        true,
		retrieveErr: &payments.ProviderError{Code: "resource_missing", Message: "no such intent", NotFound: true},
	})

	result, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	// A provider failure downgrades the booking, it never fails the call.
	assert.Equal(t, "payment_failed", result.Booking.Status)

	records, err := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, paymentDomain.StatusFailed, records[0].Status)
	assert.NotEmpty(t, records[0].FailureReason)
	assert.Equal(t, "resource_missing", records[0].Metadata["error_code"])
	assert.Equal(t, "intent_not_found", records[0].Metadata["error_type"])
}

func TestCreateBookingMockIntentSkipsProvider(t *testing.T) {
	provider := &stubProvider{live: true, retrieveStatus: payments.IntentStatusSucceeded}
	f := newBookingFixture(t, provider)

	req := validRequest()
	req.PaymentIntentID = "pi_mock_abc123"

	result, err := f.service.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "confirmed", result.Booking.Status)
	assert.Zero(t, provider.retrieveCalls)

	// Synthetic intents leave no payment record.
	records, err := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateBookingMockModeConfirmsWithoutRecord(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	result, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "confirmed", result.Booking.Status)
	records, err := f.payments.FindByBookingID(context.Background(), result.Booking.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateBookingConflictPerformsNoWrites(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	// Seed a confirmed booking for Dec 20-22.
	first, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "confirmed", first.Booking.Status)

	createsBefore := f.bookings.createCalls

	req := validRequest()
	req.StartDate = bookingDomain.NewDate(2024, time.December, 21)
	req.EndDate = bookingDomain.NewDate(2024, time.December, 23)

	_, err = f.service.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "Property already booked for selected dates")

	// Rejected before reaching the repository.
	assert.Equal(t, createsBefore, f.bookings.createCalls)
}

func TestCreateBookingBackToBackAllowed(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	first, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "confirmed", first.Booking.Status)

	req := validRequest()
	req.StartDate = bookingDomain.NewDate(2024, time.December, 22)
	req.EndDate = bookingDomain.NewDate(2024, time.December, 24)

	second, err := f.service.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", second.Booking.Status)
}

func TestCreateBookingLostConfirmRaceSettlesRow(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: true, retrieveStatus: payments.IntentStatusSucceeded})
	f.bookings.conflictNextConfirm = true

	_, err := f.service.CreateBooking(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	// The stored row must not stay pending after the rejected confirm.
	all, _, err := f.bookings.ListAll(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	stored := all[0]
	assert.Equal(t, bookingDomain.StatusPaymentFailed, stored.Status())

	// The succeeded record persisted before the race is superseded by a
	// failed one, so the latest record reflects the outcome.
	records, err := f.payments.FindByBookingID(context.Background(), stored.ID())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, paymentDomain.StatusSucceeded, records[0].Status)
	assert.Equal(t, paymentDomain.StatusFailed, records[1].Status)
	assert.Equal(t, "Property already booked for selected dates", records[1].FailureReason)
}

func TestCreateBookingLostConfirmRaceMockIntent(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})
	f.bookings.conflictNextConfirm = true

	req := validRequest()
	req.PaymentIntentID = "pi_mock_abc123"

	_, err := f.service.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	all, _, err := f.bookings.ListAll(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, bookingDomain.StatusPaymentFailed, all[0].Status())

	// Synthetic intents never produce payment records, even on the race path.
	records, err := f.payments.FindByBookingID(context.Background(), all[0].ID())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	t.Run("unknown property", func(t *testing.T) {
		req := validRequest()
		req.PropertyID = "guesty_999"
		_, err := f.service.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("zero-night stay", func(t *testing.T) {
		req := validRequest()
		req.EndDate = req.StartDate
		_, err := f.service.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		assert.EqualError(t, err, "VALIDATION_ERROR: end date must be after start date")
	})

	t.Run("inverted range", func(t *testing.T) {
		req := validRequest()
		req.StartDate, req.EndDate = req.EndDate, req.StartDate
		_, err := f.service.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("zero guests", func(t *testing.T) {
		req := validRequest()
		req.Guests = 0
		_, err := f.service.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("too many guests", func(t *testing.T) {
		req := validRequest()
		req.Guests = 9 // guesty_1 sleeps 8
		_, err := f.service.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	// None of the rejected requests touched storage.
	assert.Zero(t, f.bookings.createCalls)
}

func TestCreateBookingNotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})
	f.notifier.err = assert.AnError

	result, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "confirmed", result.Booking.Status)
}

func TestGetBookingIncludesPayments(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: true, retrieveStatus: payments.IntentStatusSucceeded})

	created, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	got, err := f.service.GetBooking(context.Background(), created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Booking.ID, got.ID)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "succeeded", got.Payments[0].Status)
}

func TestGetBookingNotFound(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	_, err := f.service.GetBooking(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	created, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	cancelled, err := f.service.CancelBooking(context.Background(), created.Booking.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)

	// Cancelling again hits the terminal-state guard.
	_, err = f.service.CancelBooking(context.Background(), created.Booking.ID, "")
	require.Error(t, err)
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
}

func TestCancelBookingFreesDates(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	created, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), created.Booking.ID, "")
	require.NoError(t, err)

	// Same dates are bookable again.
	again, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "confirmed", again.Booking.Status)
}

func TestGetBookingStats(t *testing.T) {
	f := newBookingFixture(t, &stubProvider{live: false})

	_, err := f.service.CreateBooking(context.Background(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.PropertyID = "guesty_2"
	req.Guests = 2
	_, err = f.service.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	stats, err := f.service.GetBookingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(2), stats.ByStatus["confirmed"])
}

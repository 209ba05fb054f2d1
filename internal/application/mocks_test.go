package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
	paymentDomain "github.com/stayloop/service-booking/internal/domain/payment"
	"github.com/stayloop/service-booking/internal/payments"
)

// cloneBooking deep-copies a booking the way a repository round-trip would,
// so stored state does not alias the caller's aggregate.
func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(), bk.PropertyID(), bk.PropertyName(), bk.Stay(), bk.Guests(),
		bk.TotalAmount(), bk.Status(), bk.PaymentIntentID(), bk.Contact(),
		bk.CancelReason(), bk.CancelledAt(), bk.Version(), bk.CreatedAt(), bk.UpdatedAt(),
	)
}

// fakeBookingRepo is an in-memory BookingRepository that mirrors the
// conflict-checking and snapshot semantics of the real one.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking

	createCalls int
	updateCalls int
	failCreate  error

	// conflictNextConfirm makes the next confirmed-status update return
	// Conflict without storing it, the way the exclusion constraint rejects
	// the second of two raced confirms.
	conflictNextConfirm bool
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *fakeBookingRepo) FindConfirmedByProperty(_ context.Context, propertyID string) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.PropertyID() == propertyID && bk.Status() == bookingDomain.StatusConfirmed {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Create(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.bookings {
		if existing.ConflictsWith(bk.PropertyID(), bk.Stay()) {
			return domain.NewConflictError("Property already booked for selected dates")
		}
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if r.conflictNextConfirm && bk.Status() == bookingDomain.StatusConfirmed {
		r.conflictNextConfirm = false
		return domain.NewConflictError("Property already booked for selected dates")
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, cloneBooking(bk))
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[bk.Status().String()]++
	}
	return counts, nil
}

// fakePaymentRepo is an in-memory append-only PaymentRepository.
type fakePaymentRepo struct {
	mu      sync.Mutex
	records []*paymentDomain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{}
}

func (r *fakePaymentRepo) Save(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, p)
	return nil
}

func (r *fakePaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*paymentDomain.Payment
	for _, p := range r.records {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

// stubProvider is a scriptable payment Provider.
type stubProvider struct {
	live           bool
	retrieveStatus payments.IntentStatus
	retrieveErr    error
	createdIntent  *payments.Intent
	createErr      error

	retrieveCalls int
}

func (p *stubProvider) Live() bool { return p.live }

func (p *stubProvider) CreateIntent(_ context.Context, _ payments.CreateIntentParams) (*payments.Intent, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.createdIntent != nil {
		return p.createdIntent, nil
	}
	return &payments.Intent{ID: "pi_stub", ClientSecret: "pi_stub_secret"}, nil
}

func (p *stubProvider) RetrieveIntent(_ context.Context, _ string) (payments.IntentStatus, error) {
	p.retrieveCalls++
	if p.retrieveErr != nil {
		return "", p.retrieveErr
	}
	return p.retrieveStatus, nil
}

// recordingNotifier captures reservation-sync notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	notified []uuid.UUID
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, bookingID uuid.UUID, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, bookingID)
	return n.err
}

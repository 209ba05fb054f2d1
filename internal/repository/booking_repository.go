package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stayloop/service-booking/internal/domain"
	bookingDomain "github.com/stayloop/service-booking/internal/domain/booking"
)

// pgExclusionViolation is raised by the confirmed-overlap exclusion
// constraint (see migrations), the storage-level backstop for the
// no-double-booking invariant.
const pgExclusionViolation = "23P01"

// conflictMessage mirrors the availability checker's fixed conflict reason.
const conflictMessage = "Property already booked for selected dates"

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PropertyID      string          `gorm:"index;not null;size:64"`
	PropertyName    string          `gorm:"not null;size:255"`
	StartDate       time.Time       `gorm:"type:date;not null;index:idx_bookings_stay"`
	EndDate         time.Time       `gorm:"type:date;not null;index:idx_bookings_stay"`
	Guests          int             `gorm:"not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status          string          `gorm:"not null;size:30;index"`
	PaymentIntentID string          `gorm:"size:255;index"`
	GuestEmail      string          `gorm:"size:255"`
	GuestName       string          `gorm:"size:255"`
	GuestPhone      string          `gorm:"size:50"`
	SpecialRequests string          `gorm:"size:1000"`
	CancelReason    string          `gorm:"size:500"`
	CancelledAt     *time.Time      `gorm:""`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindConfirmedByProperty retrieves all confirmed bookings for a property.
func (r *GormBookingRepository) FindConfirmedByProperty(ctx context.Context, propertyID string) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND status = ?", propertyID, bookingDomain.StatusConfirmed.String()).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find confirmed bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// Create persists a new pending booking. The transaction locks any confirmed
// booking whose stay overlaps the candidate range before inserting, so two
// concurrent requests for overlapping dates cannot both pass the conflict
// check.
func (r *GormBookingRepository) Create(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing BookingModel
		err := tx.Model(&BookingModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("property_id = ? AND status = ?", model.PropertyID, bookingDomain.StatusConfirmed.String()).
			Where("start_date < ? AND end_date > ?", model.EndDate, model.StartDate).
			Take(&existing).Error

		if err == nil {
			return domain.NewConflictError(conflictMessage)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for conflicting bookings: %w", err)
		}

		return tx.Create(model).Error
	})
	if err != nil {
		if isExclusionViolation(err) {
			return domain.NewConflictError(conflictMessage)
		}
		if domain.IsConflict(err) {
			return err
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1, since
	// IncrementVersion was called before Update).
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"cancel_reason": model.CancelReason,
			"cancelled_at":  model.CancelledAt,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		// Two pendings can race past the insert guard; the exclusion
		// constraint rejects the second confirm.
		if isExclusionViolation(result.Error) {
			return domain.NewConflictError(conflictMessage)
		}
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	contact := bk.Contact()
	return &BookingModel{
		ID:              bk.ID(),
		PropertyID:      bk.PropertyID(),
		PropertyName:    bk.PropertyName(),
		StartDate:       bk.StartDate().Time(),
		EndDate:         bk.EndDate().Time(),
		Guests:          bk.Guests(),
		TotalAmount:     bk.TotalAmount(),
		Status:          bk.Status().String(),
		PaymentIntentID: bk.PaymentIntentID(),
		GuestEmail:      contact.Email,
		GuestName:       contact.Name,
		GuestPhone:      contact.Phone,
		SpecialRequests: contact.SpecialRequests,
		CancelReason:    bk.CancelReason(),
		CancelledAt:     bk.CancelledAt(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	stay := bookingDomain.DateRange{
		Start: bookingDomain.DateOf(m.StartDate),
		End:   bookingDomain.DateOf(m.EndDate),
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.PropertyID,
		m.PropertyName,
		stay,
		m.Guests,
		m.TotalAmount,
		status,
		m.PaymentIntentID,
		bookingDomain.GuestContact{
			Email:           m.GuestEmail,
			Name:            m.GuestName,
			Phone:           m.GuestPhone,
			SpecialRequests: m.SpecialRequests,
		},
		m.CancelReason,
		m.CancelledAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

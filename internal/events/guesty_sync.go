package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventSource identifies this service in published events.
const EventSource = "service-booking"

// BookingSynced is the event type emitted for reservation sync.
const BookingSynced = "booking.reservation.synced"

// ReservationSyncedEvent is the payload pushed to the reservation-sync topic.
// A downstream worker forwards these to the Guesty channel manager.
type ReservationSyncedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID string    `json:"property_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaSyncNotifier publishes reservation-sync events to Kafka.
type KafkaSyncNotifier struct {
	producer *Producer
	topic    string
	logger   *zap.Logger
}

// NewKafkaSyncNotifier creates a KafkaSyncNotifier for the given topic.
func NewKafkaSyncNotifier(producer *Producer, topic string, logger *zap.Logger) *KafkaSyncNotifier {
	return &KafkaSyncNotifier{producer: producer, topic: topic, logger: logger}
}

// Notify publishes a ReservationSyncedEvent for the booking.
func (n *KafkaSyncNotifier) Notify(ctx context.Context, bookingID uuid.UUID, propertyID string) error {
	evt := ReservationSyncedEvent{
		BookingID:  bookingID,
		PropertyID: propertyID,
		OccurredAt: time.Now().UTC(),
	}

	ce, err := NewCloudEvent(EventSource, BookingSynced, evt)
	if err != nil {
		return err
	}
	return n.producer.PublishEvent(ctx, n.topic, ce)
}

// LogSyncNotifier simulates the reservation-sync channel when no Kafka
// brokers are configured, logging what would have been published.
type LogSyncNotifier struct {
	logger *zap.Logger
}

// NewLogSyncNotifier creates a LogSyncNotifier.
func NewLogSyncNotifier(logger *zap.Logger) *LogSyncNotifier {
	return &LogSyncNotifier{logger: logger}
}

// Notify logs the sync instead of publishing it.
func (n *LogSyncNotifier) Notify(_ context.Context, bookingID uuid.UUID, propertyID string) error {
	n.logger.Info("mock reservation sync",
		zap.String("booking_id", bookingID.String()),
		zap.String("property_id", propertyID),
	)
	return nil
}

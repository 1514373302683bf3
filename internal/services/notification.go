package services

import (
	"context"
	"fmt"

	"github.com/tripora/backend/internal/events"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/pkg/logger"
)

// NotificationService turns committed domain events into queued customer
// notifications. It sits entirely behind the dispatcher: a delivery failure
// can never touch the transaction that produced the event.
type NotificationService struct {
	queue TaskQueue
}

func NewNotificationService(queue TaskQueue) *NotificationService {
	return &NotificationService{queue: queue}
}

// RegisterHandlers subscribes the notification handlers to the dispatcher.
// Called once at startup.
func (s *NotificationService) RegisterHandlers(d *events.Dispatcher) {
	d.RegisterFunc("ticket.cancelled", s.onTicketCancelled)
	d.RegisterFunc("booking.confirmed", s.onBookingConfirmed)
}

func (s *NotificationService) onTicketCancelled(ctx context.Context, e events.Event) error {
	ev, ok := e.(models.TicketCancelled)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", e.EventName())
	}
	return s.queue.Enqueue(&NotificationTask{
		Kind:      "ticket_cancelled",
		BookingID: ev.BookingID,
		TicketID:  ev.TicketID,
		Subject:   fmt.Sprintf("Ticket on flight %s cancelled", ev.FlightNumber),
		Body:      fmt.Sprintf("Your ticket on flight %s was cancelled (%s).", ev.FlightNumber, ev.Reason),
	})
}

func (s *NotificationService) onBookingConfirmed(ctx context.Context, e events.Event) error {
	ev, ok := e.(models.BookingConfirmed)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", e.EventName())
	}
	return s.queue.Enqueue(&NotificationTask{
		Kind:      "booking_confirmed",
		BookingID: ev.BookingID,
		Subject:   fmt.Sprintf("Booking %s confirmed", ev.Reference),
		Body:      fmt.Sprintf("Your booking %s is confirmed. Have a good trip!", ev.Reference),
	})
}

// Deliver is the notification processor plugged into the task queue. Real
// transports (email, SMS) hang off here; for now it logs the delivery.
func (s *NotificationService) Deliver(ctx context.Context, task *NotificationTask) error {
	logger.Info().
		Str("kind", task.Kind).
		Str("booking_id", task.BookingID).
		Str("subject", task.Subject).
		Msg("notification delivered")
	return nil
}

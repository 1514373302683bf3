package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tripora/backend/internal/events"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/store"
	"gorm.io/gorm"
)

var ErrBookingNotFound = errors.New("services: booking not found")

// BookingService mutates bookings and tickets through the unit of work, so
// every state change and the events it raises commit atomically.
type BookingService struct {
	db         *gorm.DB
	dispatcher *events.Dispatcher
}

func NewBookingService(db *gorm.DB, dispatcher *events.Dispatcher) *BookingService {
	return &BookingService{db: db, dispatcher: dispatcher}
}

type TicketRequest struct {
	FlightNumber  string `json:"flight_number" binding:"required"`
	PassengerName string `json:"passenger_name" binding:"required"`
	Seat          string `json:"seat"`
	PriceCents    int64  `json:"price_cents"`
}

type CreateBookingRequest struct {
	Currency string          `json:"currency"`
	Tickets  []TicketRequest `json:"tickets" binding:"required,min=1"`
}

// CreateBooking creates a confirmed booking with its tickets in one commit.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req *CreateBookingRequest) (*models.Booking, error) {
	now := time.Now()
	booking := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		Reference: newBookingReference(),
		Status:    models.BookingStatusPending,
		Currency:  strings.ToUpper(req.Currency),
	}
	if booking.Currency == "" {
		booking.Currency = "USD"
	}
	booking.Confirm(now)

	uow := store.New(s.db, s.dispatcher)
	uow.Bookings.Create(booking)
	for _, tr := range req.Tickets {
		booking.TotalCents += tr.PriceCents
		uow.Tickets.Create(&models.Ticket{
			BookingID:     booking.ID,
			FlightNumber:  tr.FlightNumber,
			PassengerName: tr.PassengerName,
			Seat:          tr.Seat,
			Status:        models.TicketStatusBooked,
			PriceCents:    tr.PriceCents,
		})
	}

	if _, err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelTicket cancels a single ticket. The status flip and the
// TicketCancelled event commit and dispatch through the unit of work.
func (s *BookingService) CancelTicket(ctx context.Context, ticketID, reason string) (*models.Ticket, error) {
	uow := store.New(s.db, s.dispatcher)

	ticket, err := uow.Tickets.Find(ctx, ticketID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := ticket.Cancel(reason, time.Now()); err != nil {
		return nil, err
	}

	uow.Tickets.Save(ticket)
	if _, err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetBooking loads a booking with its tickets.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, []models.Ticket, error) {
	uow := store.New(s.db, s.dispatcher)
	booking, err := uow.Bookings.Find(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	tickets, err := uow.Tickets.ListByBooking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return booking, tickets, nil
}

func newBookingReference() string {
	buf := make([]byte, 5)
	rand.Read(buf)
	return "TR-" + strings.ToUpper(hex.EncodeToString(buf))
}

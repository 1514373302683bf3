package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tripora/backend/internal/events"
	"gorm.io/gorm"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	TicketStatusBooked    = "booked"
	TicketStatusCancelled = "cancelled"
)

var ErrTicketAlreadyCancelled = errors.New("models: ticket already cancelled")

// Booking groups the tickets purchased in one checkout.
type Booking struct {
	events.Recorder `gorm:"-" json:"-"`

	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserID     string         `gorm:"index;size:36;not null" json:"user_id"`
	Reference  string         `gorm:"uniqueIndex;size:20;not null" json:"reference"`
	Status     string         `gorm:"size:20;default:pending" json:"status"`
	TotalCents int64          `json:"total_cents"`
	Currency   string         `gorm:"size:3;default:USD" json:"currency"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Confirm transitions a pending booking to confirmed and records the event.
func (b *Booking) Confirm(now time.Time) {
	if b.Status == BookingStatusConfirmed {
		return
	}
	b.Status = BookingStatusConfirmed
	b.Record(BookingConfirmed{
		BookingID: b.ID,
		UserID:    b.UserID,
		Reference: b.Reference,
		At:        now,
	})
}

// Ticket is a single seat on a flight within a booking.
type Ticket struct {
	events.Recorder `gorm:"-" json:"-"`

	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	BookingID     string         `gorm:"index;size:36;not null" json:"booking_id"`
	FlightNumber  string         `gorm:"size:10;not null" json:"flight_number"`
	PassengerName string         `gorm:"size:200;not null" json:"passenger_name"`
	Seat          string         `gorm:"size:5" json:"seat"`
	Status        string         `gorm:"size:20;default:booked" json:"status"`
	PriceCents    int64          `json:"price_cents"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Ticket) TableName() string { return "tickets" }

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Cancel flips the ticket to cancelled and records the event in the same
// transition, so the state change and its notification cannot diverge.
func (t *Ticket) Cancel(reason string, now time.Time) error {
	if t.Status == TicketStatusCancelled {
		return ErrTicketAlreadyCancelled
	}
	previous := t.Status
	t.Status = TicketStatusCancelled
	t.Record(TicketCancelled{
		TicketID:       t.ID,
		BookingID:      t.BookingID,
		FlightNumber:   t.FlightNumber,
		PreviousStatus: previous,
		Reason:         reason,
		At:             now,
	})
	return nil
}

// --- Domain events ---

// TicketCancelled is raised when a ticket transitions to cancelled.
type TicketCancelled struct {
	TicketID       string
	BookingID      string
	FlightNumber   string
	PreviousStatus string
	Reason         string
	At             time.Time
}

func (TicketCancelled) EventName() string       { return "ticket.cancelled" }
func (e TicketCancelled) OccurredAt() time.Time { return e.At }

// BookingConfirmed is raised when a booking transitions to confirmed.
type BookingConfirmed struct {
	BookingID string
	UserID    string
	Reference string
	At        time.Time
}

func (BookingConfirmed) EventName() string       { return "booking.confirmed" }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tripora/backend/internal/middleware"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/services"
	"github.com/tripora/backend/internal/store"
	"github.com/tripora/backend/pkg/response"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// Create creates a booking with its tickets
// POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req services.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			response.Conflict(c, "booking conflicts with existing data")
			return
		}
		response.ServerError(c, "failed to create booking")
		return
	}
	response.Success(c, booking)
}

// Get returns a booking with its tickets
// GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	booking, tickets, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.NotFound(c, "booking not found")
		return
	}
	response.Success(c, gin.H{"booking": booking, "tickets": tickets})
}

// CancelTicket cancels one ticket in a booking
// POST /api/tickets/:id/cancel
func (h *BookingHandler) CancelTicket(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	ticket, err := h.bookingService.CancelTicket(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingNotFound):
			response.NotFound(c, "ticket not found")
		case errors.Is(err, models.ErrTicketAlreadyCancelled):
			response.Conflict(c, "ticket already cancelled")
		default:
			response.ServerError(c, "failed to cancel ticket")
		}
		return
	}
	response.Success(c, ticket)
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/notify"
	"github.com/kevinskey/gleeworld-sub014/internal/service/booking"
)

type bookingService interface {
	OfferableSlots(ctx context.Context, providerID *uuid.UUID, date time.Time) (booking.DayAvailability, error)
	Submit(ctx context.Context, in booking.SubmitInput) (domain.Booking, []domain.NotificationIntent, error)
	Transition(ctx context.Context, id uuid.UUID, next domain.BookingStatus) (domain.Booking, []domain.NotificationIntent, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Booking, []domain.NotificationIntent, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Booking, error)
}

type BookingHandler struct {
	svc        bookingService
	dispatcher notify.Dispatcher
	log        *slog.Logger
}

func NewBookingHandler(svc bookingService, dispatcher notify.Dispatcher, log *slog.Logger) *BookingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingHandler{
		svc:        svc,
		dispatcher: dispatcher,
		log:        log.With(slog.String("component", "http.booking")),
	}
}

type slotResponse struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Slots returns every candidate slot for one date, taken ones flagged rather
// than omitted. GET /api/availability/slots?date=2026-09-01&provider_id=...
func (h *BookingHandler) Slots(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	var providerID *uuid.UUID
	if raw := c.Query("provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider_id must be a uuid"})
			return
		}
		providerID = &id
	}

	day, err := h.svc.OfferableSlots(c.Request.Context(), providerID, date)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	slots := make([]slotResponse, 0, len(day.Slots))
	for _, s := range day.Slots {
		slots = append(slots, slotResponse{Start: s.Start, End: s.End, Available: s.Available})
	}
	c.JSON(http.StatusOK, gin.H{
		"date":   day.Date.Format("2006-01-02"),
		"slots":  slots,
		"reason": day.Reason,
	})
}

type submitRequest struct {
	ProviderID  *uuid.UUID `json:"provider_id"`
	ServiceID   *uuid.UUID `json:"service_id"`
	StartTime   time.Time  `json:"start_time" binding:"required"`
	ClientName  string     `json:"client_name" binding:"required"`
	ClientEmail string     `json:"client_email" binding:"required"`
	ClientPhone string     `json:"client_phone"`
	Notes       string     `json:"notes"`
}

func (h *BookingHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, intents, err := h.svc.Submit(c.Request.Context(), booking.SubmitInput{
		ProviderID:  req.ProviderID,
		ServiceID:   req.ServiceID,
		StartTime:   req.StartTime,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("booking submitted",
		slog.String("booking_id", b.ID.String()),
		slog.Time("start_time", b.StartTime),
	)
	h.dispatcher.Dispatch(c.Request.Context(), intents)

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a uuid"})
		return
	}
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

type transitionRequest struct {
	Status domain.BookingStatus `json:"status" binding:"required"`
}

// Transition is the approval channel: POST /api/bookings/:id/status with
// confirmed or denied.
func (h *BookingHandler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a uuid"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, intents, err := h.svc.Transition(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("booking status changed",
		slog.String("booking_id", b.ID.String()),
		slog.String("status", string(b.Status)),
	)
	h.dispatcher.Dispatch(c.Request.Context(), intents)

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a uuid"})
		return
	}

	b, intents, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("booking cancelled", slog.String("booking_id", b.ID.String()))
	h.dispatcher.Dispatch(c.Request.Context(), intents)

	c.JSON(http.StatusOK, toBookingResponse(b))
}

type bookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProviderID      *uuid.UUID `json:"provider_id,omitempty"`
	ServiceID       *uuid.UUID `json:"service_id,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	ClientName      string     `json:"client_name"`
	ClientEmail     string     `json:"client_email"`
	ClientPhone     string     `json:"client_phone,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		ProviderID:      b.ProviderID,
		ServiceID:       b.ServiceID,
		StartTime:       b.StartTime,
		EndTime:         b.End(),
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		ClientName:      b.ClientName,
		ClientEmail:     b.ClientEmail,
		ClientPhone:     b.ClientPhone,
		Notes:           b.Notes,
	}
}

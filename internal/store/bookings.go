package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
)

// CalendarScope is the advisory-lock key shared by every booking write.
// Bookings without a provider conflict against all calendars, so submissions
// serialize on one scope rather than per provider.
const CalendarScope = "bookings"

type BookingRepository interface {
	InCalendarTransaction(ctx context.Context, scope string, fn func(ctx context.Context, tx CalendarTx) error) error

	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error)
	ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
}

// CalendarTx is the set of operations available inside a calendar
// transaction. Submission revalidation reads through it so the conflict check
// and the insert observe the same booking state.
type CalendarTx interface {
	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error)
	ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error)
	InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error)
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
)

// CalendarReader is the read surface of the unified calendar aggregator.
type CalendarReader interface {
	ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	ListAuditionEvents(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.AuditionEvent, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
}

// AvailabilityRepository is the admin surface for weekly rules and blocked
// dates.
type AvailabilityRepository interface {
	ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error)
	SaveAvailabilityRule(ctx context.Context, rule domain.AvailabilityRule) (domain.AvailabilityRule, error)
	DeleteAvailabilityRule(ctx context.Context, id uuid.UUID) error

	ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error)
	InsertBlockedDate(ctx context.Context, d domain.BlockedDate) (domain.BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, id uuid.UUID) error

	ListProviders(ctx context.Context) ([]domain.Provider, error)
}

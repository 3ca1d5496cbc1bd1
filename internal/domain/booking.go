package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusPendingApproval BookingStatus = "pending_approval"
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusDenied          BookingStatus = "denied"
	BookingStatusCancelled       BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPendingApproval, BookingStatusConfirmed, BookingStatusDenied, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the booking state machine: pending_approval moves to
// confirmed or denied through the approval channel only; cancellation is
// reachable from pending_approval and confirmed; denied and cancelled are
// terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPendingApproval:
		return next == BookingStatusConfirmed || next == BookingStatusDenied || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCancelled
	}
	return false
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID              uuid.UUID     `bun:"id,pk,type:uuid"`
	ProviderID      *uuid.UUID    `bun:"provider_id,type:uuid"`
	ServiceID       *uuid.UUID    `bun:"service_id,type:uuid"`
	StartTime       time.Time     `bun:"start_time,notnull"`
	DurationMinutes int           `bun:"duration_minutes,notnull"`
	Status          BookingStatus `bun:"status,notnull"`
	ClientName      string        `bun:"client_name,notnull"`
	ClientEmail     string        `bun:"client_email,notnull"`
	ClientPhone     string        `bun:"client_phone"`
	Notes           string        `bun:"notes"`
	CreatedAt       time.Time     `bun:"created_at,notnull"`
	UpdatedAt       time.Time     `bun:"updated_at,notnull"`
}

func (b Booking) End() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,notnull"`
	Description     string    `bun:"description"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	Location        string    `bun:"location"`
	IsActive        bool      `bun:"is_active,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

type BlockedDate struct {
	bun.BaseModel `bun:"table:blocked_dates"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Date      time.Time `bun:"blocked_date,notnull"`
	Reason    string    `bun:"reason"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (d *BlockedDate) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if d.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			d.ID = id
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// SameDate reports whether the blocked date covers the given instant's
// calendar date in the blocked date's location.
func (d BlockedDate) SameDate(t time.Time) bool {
	y1, m1, d1 := d.Date.Year(), d.Date.Month(), d.Date.Day()
	y2, m2, d2 := t.Year(), t.Month(), t.Day()
	return y1 == y2 && m1 == m2 && d1 == d2
}

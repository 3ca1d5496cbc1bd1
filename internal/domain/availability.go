package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	DefaultSlotDurationMinutes = 30
	DefaultWindowStart         = "09:00"
	DefaultWindowEnd           = "17:00"
)

type Provider struct {
	bun.BaseModel `bun:"table:providers"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	DisplayName string     `bun:"display_name,notnull"`
	Title       string     `bun:"title"`
	Bio         string     `bun:"bio"`
	ServiceID   *uuid.UUID `bun:"service_id,type:uuid"`
	IsActive    bool       `bun:"is_active,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
}

func (p *Provider) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p.ID = id
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}

type AvailabilityRule struct {
	bun.BaseModel `bun:"table:availability_rules"`

	ID                       uuid.UUID `bun:"id,pk,type:uuid"`
	ProviderID               uuid.UUID `bun:"provider_id,notnull,type:uuid"`
	DayOfWeek                int       `bun:"day_of_week,notnull"`
	StartTime                string    `bun:"start_time,notnull"`
	EndTime                  string    `bun:"end_time,notnull"`
	SlotDurationMinutes      int       `bun:"slot_duration_minutes,notnull"`
	BreakBetweenSlotsMinutes int       `bun:"break_between_slots_minutes,notnull"`
	IsAvailable              bool      `bun:"is_available,notnull"`
	CreatedAt                time.Time `bun:"created_at,notnull"`
	UpdatedAt                time.Time `bun:"updated_at,notnull"`
}

func (r *AvailabilityRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

func (r AvailabilityRule) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return errors.New("day_of_week must be between 0 and 6")
	}
	start, err := parseClock(r.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := parseClock(r.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}
	if start >= end {
		return errors.New("start_time must be before end_time")
	}
	if r.SlotDurationMinutes <= 0 {
		return errors.New("slot_duration_minutes must be positive")
	}
	if r.BreakBetweenSlotsMinutes < 0 {
		return errors.New("break_between_slots_minutes must not be negative")
	}
	return nil
}

// DefaultAvailabilityRule is the browse-before-choosing fallback: when no
// provider has been selected yet, dates are offered on a fixed 09:00-17:00
// window with half-hour slots.
func DefaultAvailabilityRule(day time.Weekday) AvailabilityRule {
	return AvailabilityRule{
		DayOfWeek:           int(day),
		StartTime:           DefaultWindowStart,
		EndTime:             DefaultWindowEnd,
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		IsAvailable:         true,
	}
}

type CandidateSlot struct {
	Start time.Time
	End   time.Time
}

// ResolveSlots expands a provider's weekly rules into the candidate slots for
// one calendar date. Only rules matching the date's weekday and flagged
// available contribute. Each window is walked in steps of slot+break and a
// trailing partial slot is discarded, never truncated. Rules are expected not
// to overlap; overlapping rules are the caller's responsibility.
func ResolveSlots(rules []AvailabilityRule, date time.Time) []CandidateSlot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	weekday := int(day.Weekday())

	out := make([]CandidateSlot, 0, 16)
	for _, r := range rules {
		if r.DayOfWeek != weekday || !r.IsAvailable {
			continue
		}
		if r.Validate() != nil {
			continue
		}
		startMin, _ := parseClock(r.StartTime)
		endMin, _ := parseClock(r.EndTime)
		step := r.SlotDurationMinutes + r.BreakBetweenSlotsMinutes
		for t := startMin; t+r.SlotDurationMinutes <= endMin; t += step {
			out = append(out, CandidateSlot{
				Start: day.Add(time.Duration(t) * time.Minute),
				End:   day.Add(time.Duration(t+r.SlotDurationMinutes) * time.Minute),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

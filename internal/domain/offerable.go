package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinimumLeadTime is the gap a slot's start must keep ahead of the current
// time before it can be offered. A slot starting at or before now+lead is
// never offerable, regardless of conflicts.
const MinimumLeadTime = time.Hour

type OfferableSlot struct {
	Start     time.Time
	End       time.Time
	Available bool
}

// FilterOfferable flags each candidate against the existing bookings and the
// lead-time rule. providerID is the scope of the candidates being evaluated;
// nil means no provider has been selected and every booking counts. Every
// candidate is returned, in order, so callers can render taken slots instead
// of omitting them.
func FilterOfferable(candidates []CandidateSlot, bookings []Booking, providerID *uuid.UUID, now time.Time) []OfferableSlot {
	cutoff := now.Add(MinimumLeadTime)

	out := make([]OfferableSlot, 0, len(candidates))
	for _, c := range candidates {
		available := c.Start.After(cutoff)
		if available {
			for _, b := range bookings {
				if b.Status == BookingStatusCancelled {
					continue
				}
				if !bookingInScope(b, providerID) {
					continue
				}
				if Overlaps(c.Start, c.End, b.StartTime, b.End()) {
					available = false
					break
				}
			}
		}
		out = append(out, OfferableSlot{Start: c.Start, End: c.End, Available: available})
	}
	return out
}

// A booking without a provider blocks every calendar: unassigned bookings are
// checked against all bookings, not per provider. This mirrors the original
// single-shared-calendar behavior and is intentional.
func bookingInScope(b Booking, providerID *uuid.UUID) bool {
	if b.ProviderID == nil {
		return true
	}
	if providerID == nil {
		return true
	}
	return *b.ProviderID == *providerID
}

// Overlaps applies the half-open interval test: [a0,a1) and [b0,b1) conflict
// iff a0 < b1 and b0 < a1, so back-to-back slots never falsely conflict.
func Overlaps(a0, a1, b0, b1 time.Time) bool {
	return a0.Before(b1) && b0.Before(a1)
}

package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("uuid.Parse(%q): %v", s, err)
	}
	return id
}

func TestFilterOfferable_FlagsConflictsWithoutDropping(t *testing.T) {
	providerID := mustUUID(t, "00000000-0000-0000-0000-000000000001")
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	candidates := []CandidateSlot{
		{Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
		{Start: day.Add(9*time.Hour + 30*time.Minute), End: day.Add(10 * time.Hour)},
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
	}
	bookings := []Booking{{
		ProviderID:      &providerID,
		StartTime:       day.Add(9*time.Hour + 30*time.Minute),
		DurationMinutes: 30,
		Status:          BookingStatusConfirmed,
	}}

	out := FilterOfferable(candidates, bookings, &providerID, now)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want all 3 candidates", len(out))
	}
	if !out[0].Available || out[1].Available || !out[2].Available {
		t.Fatalf("availability = %v/%v/%v, want true/false/true", out[0].Available, out[1].Available, out[2].Available)
	}
}

func TestFilterOfferable_BackToBackDoesNotConflict(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	candidates := []CandidateSlot{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}
	bookings := []Booking{
		{StartTime: day.Add(9 * time.Hour), DurationMinutes: 60, Status: BookingStatusConfirmed},
		{StartTime: day.Add(11 * time.Hour), DurationMinutes: 60, Status: BookingStatusConfirmed},
	}

	out := FilterOfferable(candidates, bookings, nil, now)
	if !out[0].Available {
		t.Fatalf("back-to-back bookings must not conflict with the slot between them")
	}
}

func TestFilterOfferable_LeadTimeDominates(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	// Starts 45 minutes from now; no bookings at all.
	candidates := []CandidateSlot{
		{Start: now.Add(45 * time.Minute), End: now.Add(75 * time.Minute)},
	}
	out := FilterOfferable(candidates, nil, nil, now)
	if out[0].Available {
		t.Fatalf("slot inside the lead-time window must never be offerable")
	}
}

func TestFilterOfferable_LeadTimeBoundaryIsExclusive(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"exactly now plus lead", now.Add(MinimumLeadTime), false},
		{"one second past", now.Add(MinimumLeadTime + time.Second), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := FilterOfferable([]CandidateSlot{{Start: tc.start, End: tc.start.Add(30 * time.Minute)}}, nil, nil, now)
			if out[0].Available != tc.want {
				t.Fatalf("available = %v, want %v", out[0].Available, tc.want)
			}
		})
	}
}

func TestFilterOfferable_CancelledBookingsIgnored(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	candidates := []CandidateSlot{
		{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)},
	}
	bookings := []Booking{{
		StartTime:       day.Add(10 * time.Hour),
		DurationMinutes: 30,
		Status:          BookingStatusCancelled,
	}}

	out := FilterOfferable(candidates, bookings, nil, now)
	if !out[0].Available {
		t.Fatalf("cancelled booking must release its slot")
	}
}

func TestFilterOfferable_ProviderScoping(t *testing.T) {
	p1 := mustUUID(t, "00000000-0000-0000-0000-000000000001")
	p2 := mustUUID(t, "00000000-0000-0000-0000-000000000002")
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	slot := CandidateSlot{Start: day.Add(10 * time.Hour), End: day.Add(10*time.Hour + 30*time.Minute)}
	otherProvider := Booking{ProviderID: &p2, StartTime: slot.Start, DurationMinutes: 30, Status: BookingStatusConfirmed}
	unassigned := Booking{StartTime: slot.Start, DurationMinutes: 30, Status: BookingStatusPendingApproval}

	// Another provider's booking does not block p1's slot.
	out := FilterOfferable([]CandidateSlot{slot}, []Booking{otherProvider}, &p1, now)
	if !out[0].Available {
		t.Fatalf("other provider's booking must not block this provider's slot")
	}

	// With no provider selected, every booking counts.
	out = FilterOfferable([]CandidateSlot{slot}, []Booking{otherProvider}, nil, now)
	if out[0].Available {
		t.Fatalf("global check must see every provider's bookings")
	}

	// An unassigned booking blocks every provider's calendar.
	out = FilterOfferable([]CandidateSlot{slot}, []Booking{unassigned}, &p1, now)
	if out[0].Available {
		t.Fatalf("unassigned booking must block every calendar")
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	h := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	cases := []struct {
		name           string
		a0, a1, b0, b1 time.Time
		want           bool
	}{
		{"identical", h(0), h(1), h(0), h(1), true},
		{"partial", h(0), h(2), h(1), h(3), true},
		{"contained", h(0), h(3), h(1), h(2), true},
		{"back to back", h(0), h(1), h(1), h(2), false},
		{"disjoint", h(0), h(1), h(2), h(3), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a0, tc.a1, tc.b0, tc.b1); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			if got := Overlaps(tc.b0, tc.b1, tc.a0, tc.a1); got != tc.want {
				t.Fatalf("Overlaps reversed = %v, want %v", got, tc.want)
			}
		})
	}
}

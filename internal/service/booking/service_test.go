package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/store"
)

// memRepo is an in-memory store.BookingRepository. InCalendarTransaction
// serializes on a mutex the way the real implementation serializes on the
// advisory lock, so racing submissions observe each other's writes.
type memRepo struct {
	mu           sync.Mutex
	bookings     map[uuid.UUID]domain.Booking
	rules        map[uuid.UUID][]domain.AvailabilityRule
	blockedDates []domain.BlockedDate
	services     map[uuid.UUID]domain.Service
}

func newMemRepo() *memRepo {
	return &memRepo{
		bookings: make(map[uuid.UUID]domain.Booking),
		rules:    make(map[uuid.UUID][]domain.AvailabilityRule),
		services: make(map[uuid.UUID]domain.Service),
	}
}

type memTx struct {
	r *memRepo
}

func (r *memRepo) InCalendarTransaction(ctx context.Context, scope string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, memTx{r: r})
}

func (r *memRepo) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getBooking(id)
}

func (r *memRepo) ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listBookings(providerID, windowStart, windowEnd), nil
}

func (r *memRepo) ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rules[providerID], nil
}

func (r *memRepo) ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedDates, nil
}

func (r *memRepo) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[id]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (r *memRepo) getBooking(id uuid.UUID) (domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (r *memRepo) listBookings(providerID *uuid.UUID, windowStart, windowEnd time.Time) []domain.Booking {
	var out []domain.Booking
	for _, b := range r.bookings {
		if !b.StartTime.Before(windowEnd) || !b.End().After(windowStart) {
			continue
		}
		if providerID != nil && b.ProviderID != nil && *b.ProviderID != *providerID {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (t memTx) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return t.r.getBooking(id)
}

func (t memTx) ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	return t.r.listBookings(providerID, windowStart, windowEnd), nil
}

func (t memTx) ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error) {
	return t.r.rules[providerID], nil
}

func (t memTx) ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error) {
	return t.r.blockedDates, nil
}

func (t memTx) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Booking{}, err
		}
		b.ID = id
	}
	t.r.bookings[b.ID] = b
	return b, nil
}

func (t memTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error) {
	b, ok := t.r.bookings[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	b.Status = status
	t.r.bookings[id] = b
	return b, nil
}

var testProviderID = uuid.MustParse("00000000-0000-0000-0000-00000000aa01")

// fixedNow is a Monday morning; the provider works Mondays 09:00-17:00.
var fixedNow = time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)

func newTestService(repo *memRepo) *Service {
	repo.rules[testProviderID] = []domain.AvailabilityRule{{
		ProviderID:          testProviderID,
		DayOfWeek:           1,
		StartTime:           "09:00",
		EndTime:             "17:00",
		SlotDurationMinutes: 30,
		IsAvailable:         true,
	}}

	svc := NewService(repo, Options{AdminSMSNumber: "+15550100", AdminEmail: "admin@example.com"})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validSubmit() SubmitInput {
	return SubmitInput{
		ProviderID:  &testProviderID,
		StartTime:   time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
	}
}

func TestSubmit_CreatesPendingBookingWithIntents(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	b, intents, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if b.Status != domain.BookingStatusPendingApproval {
		t.Fatalf("status = %s, want pending_approval", b.Status)
	}
	if b.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if b.DurationMinutes != domain.DefaultSlotDurationMinutes {
		t.Fatalf("duration = %d, want default", b.DurationMinutes)
	}

	if len(intents) != 2 {
		t.Fatalf("len(intents) = %d, want admin SMS plus client email", len(intents))
	}
	if intents[0].Channel != domain.NotificationChannelSMS || intents[0].TemplateID != "appointment-approval-request" {
		t.Fatalf("first intent = %+v, want admin approval SMS", intents[0])
	}
	if intents[0].Params["booking_id"] != b.ID.String() {
		t.Fatalf("approval request must be keyed by booking id")
	}
	if intents[1].Channel != domain.NotificationChannelEmail || intents[1].To != "ada@example.com" {
		t.Fatalf("second intent = %+v, want client acknowledgment", intents[1])
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"missing name", func(in *SubmitInput) { in.ClientName = "  " }},
		{"missing email", func(in *SubmitInput) { in.ClientEmail = "" }},
		{"malformed email", func(in *SubmitInput) { in.ClientEmail = "not-an-email" }},
		{"zero start", func(in *SubmitInput) { in.StartTime = time.Time{} }},
		{"beyond booking window", func(in *SubmitInput) { in.StartTime = fixedNow.AddDate(0, 0, 45) }},
		{"off-grid start", func(in *SubmitInput) { in.StartTime = time.Date(2026, 1, 5, 10, 10, 0, 0, time.UTC) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validSubmit()
			tc.mutate(&in)
			_, _, err := svc.Submit(context.Background(), in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v (%T), want *ValidationError", err, err)
			}
		})
	}
}

func TestSubmit_ConflictOnTakenSlot(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	if _, _, err := svc.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("first Submit error: %v", err)
	}

	_, _, err := svc.Submit(context.Background(), validSubmit())
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v (%T), want *ConflictError", err, err)
	}
}

func TestSubmit_RaceYieldsExactlyOneBooking(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Submit(context.Background(), validSubmit())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var oks, conflicts int
	for err := range results {
		switch {
		case err == nil:
			oks++
		default:
			var cErr *ConflictError
			if !errors.As(err, &cErr) {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicts++
		}
	}
	if oks != 1 || conflicts != 1 {
		t.Fatalf("oks = %d, conflicts = %d, want exactly one of each", oks, conflicts)
	}
	if len(repo.bookings) != 1 {
		t.Fatalf("stored bookings = %d, want 1", len(repo.bookings))
	}
}

func TestSubmit_LeadTimeRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	in := validSubmit()
	in.StartTime = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC) }

	// 09:00 starts 30 minutes after now, violating the one-hour lead.
	_, _, err := svc.Submit(context.Background(), in)
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v (%T), want *ConflictError", err, err)
	}
}

func TestSubmit_BlockedDateRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	repo.blockedDates = []domain.BlockedDate{{
		ID:   uuid.MustParse("00000000-0000-0000-0000-00000000bb01"),
		Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}}

	_, _, err := svc.Submit(context.Background(), validSubmit())
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v (%T), want *ConflictError", err, err)
	}
}

func TestSubmit_CancelledBookingReleasesSlot(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	b, _, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, _, err := svc.Cancel(context.Background(), b.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	if _, _, err := svc.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("resubmission after cancel error: %v", err)
	}
}

func TestSubmit_ServiceDuration(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	serviceID := uuid.MustParse("00000000-0000-0000-0000-00000000cc01")
	repo.services[serviceID] = domain.Service{ID: serviceID, Name: "Voice Lesson", DurationMinutes: 60, IsActive: true}

	in := validSubmit()
	in.ServiceID = &serviceID
	b, _, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if b.DurationMinutes != 60 {
		t.Fatalf("duration = %d, want the service's 60", b.DurationMinutes)
	}

	// The hour-long booking occupies two grid slots; the next half-hour slot
	// must now conflict.
	next := validSubmit()
	next.StartTime = in.StartTime.Add(30 * time.Minute)
	_, _, err = svc.Submit(context.Background(), next)
	var cErr *ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("error = %v (%T), want *ConflictError", err, err)
	}
}

func TestSubmit_InactiveServiceRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	serviceID := uuid.MustParse("00000000-0000-0000-0000-00000000cc02")
	repo.services[serviceID] = domain.Service{ID: serviceID, Name: "Retired", DurationMinutes: 30, IsActive: false}

	in := validSubmit()
	in.ServiceID = &serviceID
	_, _, err := svc.Submit(context.Background(), in)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
}

func TestTransition(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	b, _, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	confirmed, intents, err := svc.Transition(context.Background(), b.ID, domain.BookingStatusConfirmed)
	if err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if confirmed.Status != domain.BookingStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", confirmed.Status)
	}
	if len(intents) != 1 || intents[0].TemplateID != "appointment-confirmed" {
		t.Fatalf("intents = %+v, want one confirmation email", intents)
	}

	// Terminal states cannot re-enter the approval channel.
	if _, _, err := svc.Transition(context.Background(), b.ID, domain.BookingStatusDenied); err == nil {
		t.Fatalf("expected error transitioning confirmed -> denied")
	}
}

func TestTransition_RejectsInvalidTargets(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	for _, target := range []domain.BookingStatus{domain.BookingStatusPendingApproval, domain.BookingStatusCancelled, "garbage"} {
		_, _, err := svc.Transition(context.Background(), uuid.MustParse("00000000-0000-0000-0000-00000000dd01"), target)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("target %q: error = %v (%T), want *ValidationError", target, err, err)
		}
	}
}

func TestCancel(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	b, _, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	cancelled, intents, err := svc.Cancel(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != domain.BookingStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if len(intents) != 1 || intents[0].TemplateID != "appointment-cancelled" {
		t.Fatalf("intents = %+v, want one admin notice", intents)
	}

	// Already terminal.
	if _, _, err := svc.Cancel(context.Background(), b.ID); err == nil {
		t.Fatalf("expected error cancelling twice")
	}
}

func TestCancel_AfterStartRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	b, _, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	svc.now = func() time.Time { return b.StartTime.Add(time.Minute) }
	_, _, err = svc.Cancel(context.Background(), b.ID)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v (%T), want *ValidationError", err, err)
	}
}

func TestOfferableSlots(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	day, err := svc.OfferableSlots(context.Background(), &testProviderID, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("OfferableSlots error: %v", err)
	}
	if day.Reason != "" {
		t.Fatalf("reason = %q, want none", day.Reason)
	}
	if len(day.Slots) != 16 {
		t.Fatalf("len(slots) = %d, want 16", len(day.Slots))
	}
}

func TestOfferableSlots_Reasons(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	t.Run("no availability", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)
		// Tuesday has no rule.
		day, err := svc.OfferableSlots(context.Background(), &testProviderID, monday.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("OfferableSlots error: %v", err)
		}
		if day.Reason != ReasonNoAvailability {
			t.Fatalf("reason = %q, want %q", day.Reason, ReasonNoAvailability)
		}
	})

	t.Run("date blocked", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)
		repo.blockedDates = []domain.BlockedDate{{Date: monday}}
		day, err := svc.OfferableSlots(context.Background(), &testProviderID, monday)
		if err != nil {
			t.Fatalf("OfferableSlots error: %v", err)
		}
		if day.Reason != ReasonDateBlocked {
			t.Fatalf("reason = %q, want %q", day.Reason, ReasonDateBlocked)
		}
	})

	t.Run("fully booked", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)
		for i := 0; i < 16; i++ {
			id := uuid.New()
			repo.bookings[id] = domain.Booking{
				ID:              id,
				ProviderID:      &testProviderID,
				StartTime:       monday.Add(9*time.Hour + time.Duration(i*30)*time.Minute),
				DurationMinutes: 30,
				Status:          domain.BookingStatusConfirmed,
			}
		}
		day, err := svc.OfferableSlots(context.Background(), &testProviderID, monday)
		if err != nil {
			t.Fatalf("OfferableSlots error: %v", err)
		}
		if day.Reason != ReasonFullyBooked {
			t.Fatalf("reason = %q, want %q", day.Reason, ReasonFullyBooked)
		}
		if len(day.Slots) != 16 {
			t.Fatalf("len(slots) = %d, want all 16 flagged rather than dropped", len(day.Slots))
		}
	})

	t.Run("outside window", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo)
		day, err := svc.OfferableSlots(context.Background(), &testProviderID, fixedNow.AddDate(0, 0, 60))
		if err != nil {
			t.Fatalf("OfferableSlots error: %v", err)
		}
		if day.Reason != ReasonOutsideWindow {
			t.Fatalf("reason = %q, want %q", day.Reason, ReasonOutsideWindow)
		}
	})
}

func TestOfferableSlots_DefaultRuleWithoutProvider(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	day, err := svc.OfferableSlots(context.Background(), nil, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("OfferableSlots error: %v", err)
	}
	if len(day.Slots) != 16 {
		t.Fatalf("len(slots) = %d, want the default 09:00-17:00 grid", len(day.Slots))
	}
}

package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ConflictError means the selected slot is no longer offerable. The caller
// should pick another time, not retry the same one.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string {
	return e.msg
}

func conflictError(msg string) error {
	return &ConflictError{msg: msg}
}

const (
	DefaultAdvanceBookingDays = 30

	ReasonDateBlocked    = "date blocked"
	ReasonNoAvailability = "no availability"
	ReasonFullyBooked    = "fully booked"
	ReasonOutsideWindow  = "outside booking window"
)

type Options struct {
	// AdvanceBookingDays caps how far ahead a booking may start. Zero means
	// DefaultAdvanceBookingDays.
	AdvanceBookingDays int
	AdminSMSNumber     string
	AdminEmail         string
}

type Service struct {
	repo store.BookingRepository
	opts Options
	now  func() time.Time
}

func NewService(repo store.BookingRepository, opts Options) *Service {
	if opts.AdvanceBookingDays <= 0 {
		opts.AdvanceBookingDays = DefaultAdvanceBookingDays
	}
	return &Service{repo: repo, opts: opts, now: time.Now}
}

// DayAvailability carries every candidate slot for one date, conflicting ones
// flagged unavailable rather than dropped. Reason is set only when nothing on
// the date can be booked, so callers can tell "no availability today" from
// "fully booked".
type DayAvailability struct {
	Date   time.Time
	Slots  []domain.OfferableSlot
	Reason string
}

// OfferableSlots resolves a provider's weekly rules for one date and filters
// the result against current bookings. A nil providerID browses on the
// default window before a provider has been chosen.
func (s *Service) OfferableSlots(ctx context.Context, providerID *uuid.UUID, date time.Time) (DayAvailability, error) {
	if date.IsZero() {
		return DayAvailability{}, validationError("date is required")
	}

	now := s.now().UTC()
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	out := DayAvailability{Date: dayStart}

	if dayStart.After(now.AddDate(0, 0, s.opts.AdvanceBookingDays)) {
		out.Reason = ReasonOutsideWindow
		return out, nil
	}

	blocked, err := s.repo.ListBlockedDates(ctx, dayStart, dayEnd)
	if err != nil {
		return DayAvailability{}, err
	}
	for _, d := range blocked {
		if d.SameDate(dayStart) {
			out.Reason = ReasonDateBlocked
			return out, nil
		}
	}

	rules, err := s.rulesFor(ctx, s.repo.ListAvailabilityRules, providerID, dayStart)
	if err != nil {
		return DayAvailability{}, err
	}

	candidates := domain.ResolveSlots(rules, dayStart)
	if len(candidates) == 0 {
		out.Reason = ReasonNoAvailability
		return out, nil
	}

	bookings, err := s.repo.ListBookings(ctx, providerID, dayStart, dayEnd)
	if err != nil {
		return DayAvailability{}, err
	}

	out.Slots = domain.FilterOfferable(candidates, bookings, providerID, now)
	for _, slot := range out.Slots {
		if slot.Available {
			return out, nil
		}
	}
	out.Reason = ReasonFullyBooked
	return out, nil
}

func (s *Service) rulesFor(ctx context.Context, list func(context.Context, uuid.UUID) ([]domain.AvailabilityRule, error), providerID *uuid.UUID, day time.Time) ([]domain.AvailabilityRule, error) {
	if providerID == nil {
		return []domain.AvailabilityRule{domain.DefaultAvailabilityRule(day.Weekday())}, nil
	}
	return list(ctx, *providerID)
}

type SubmitInput struct {
	ProviderID  *uuid.UUID
	ServiceID   *uuid.UUID
	StartTime   time.Time
	ClientName  string
	ClientEmail string
	ClientPhone string
	Notes       string
}

// Submit revalidates the selection against current booking state and inserts
// the booking inside one transaction. The conflict read and the insert share
// the calendar advisory lock, so two racing submissions for the same slot
// cannot both commit.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.Booking, []domain.NotificationIntent, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return domain.Booking{}, nil, validationError("client_name is required")
	}
	email := strings.TrimSpace(in.ClientEmail)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Booking{}, nil, validationError("client_email is required")
	}
	if in.StartTime.IsZero() {
		return domain.Booking{}, nil, validationError("start_time is required")
	}

	now := s.now().UTC()
	start := in.StartTime.UTC()
	if start.After(now.AddDate(0, 0, s.opts.AdvanceBookingDays)) {
		return domain.Booking{}, nil, validationError("start_time is beyond the booking window")
	}

	duration := domain.DefaultSlotDurationMinutes
	if in.ServiceID != nil {
		svc, err := s.repo.GetService(ctx, *in.ServiceID)
		if err != nil {
			if err == store.ErrNotFound {
				return domain.Booking{}, nil, validationError("unknown service")
			}
			return domain.Booking{}, nil, err
		}
		if !svc.IsActive {
			return domain.Booking{}, nil, validationError("service is not bookable")
		}
		if svc.DurationMinutes > 0 {
			duration = svc.DurationMinutes
		}
	}

	booking := domain.Booking{
		ProviderID:      in.ProviderID,
		ServiceID:       in.ServiceID,
		StartTime:       start,
		DurationMinutes: duration,
		Status:          domain.BookingStatusPendingApproval,
		ClientName:      name,
		ClientEmail:     email,
		ClientPhone:     strings.TrimSpace(in.ClientPhone),
		Notes:           in.Notes,
	}

	var out domain.Booking
	err := s.repo.InCalendarTransaction(ctx, store.CalendarScope, func(ctx context.Context, tx store.CalendarTx) error {
		if err := s.revalidate(ctx, tx, booking, now); err != nil {
			return err
		}
		b, err := tx.InsertBooking(ctx, booking)
		if err != nil {
			if err == store.ErrConflict {
				return conflictError("slot is no longer offerable")
			}
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, nil, err
	}

	return out, s.submissionIntents(out), nil
}

// revalidate re-runs slot resolution and the conflict filter against the
// transaction's view of bookings. The requested start must land on a slot the
// provider currently offers.
func (s *Service) revalidate(ctx context.Context, tx store.CalendarTx, b domain.Booking, now time.Time) error {
	dayStart := time.Date(b.StartTime.Year(), b.StartTime.Month(), b.StartTime.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	blocked, err := tx.ListBlockedDates(ctx, dayStart, dayEnd)
	if err != nil {
		return err
	}
	for _, d := range blocked {
		if d.SameDate(b.StartTime) {
			return conflictError("date is blocked")
		}
	}

	rules, err := s.rulesFor(ctx, tx.ListAvailabilityRules, b.ProviderID, dayStart)
	if err != nil {
		return err
	}
	candidates := domain.ResolveSlots(rules, dayStart)

	bookings, err := tx.ListBookings(ctx, b.ProviderID, dayStart, dayEnd)
	if err != nil {
		return err
	}

	var selected *domain.OfferableSlot
	for _, slot := range domain.FilterOfferable(candidates, bookings, b.ProviderID, now) {
		if slot.Start.Equal(b.StartTime) {
			s := slot
			selected = &s
			break
		}
	}
	if selected == nil {
		return validationError("start_time does not match an offered slot")
	}
	if !selected.Available {
		return conflictError("slot is no longer offerable")
	}

	// A service can occupy more than one grid slot. Check the full interval,
	// not just the selected slot.
	end := b.End()
	for _, other := range bookings {
		if other.Status == domain.BookingStatusCancelled {
			continue
		}
		if domain.Overlaps(b.StartTime, end, other.StartTime, other.End()) {
			return conflictError("slot is no longer offerable")
		}
	}
	return nil
}

func (s *Service) submissionIntents(b domain.Booking) []domain.NotificationIntent {
	intents := make([]domain.NotificationIntent, 0, 2)
	if s.opts.AdminSMSNumber != "" {
		intents = append(intents, domain.NotificationIntent{
			Channel:    domain.NotificationChannelSMS,
			To:         s.opts.AdminSMSNumber,
			TemplateID: "appointment-approval-request",
			Params: map[string]string{
				"booking_id":  b.ID.String(),
				"client_name": b.ClientName,
				"start_time":  b.StartTime.Format(time.RFC3339),
			},
		})
	}
	intents = append(intents, domain.NotificationIntent{
		Channel:    domain.NotificationChannelEmail,
		To:         b.ClientEmail,
		TemplateID: "appointment-received",
		Params: map[string]string{
			"booking_id": b.ID.String(),
			"start_time": b.StartTime.Format(time.RFC3339),
		},
	})
	return intents
}

// Transition moves a pending booking through the approval channel.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next domain.BookingStatus) (domain.Booking, []domain.NotificationIntent, error) {
	if id == uuid.Nil {
		return domain.Booking{}, nil, validationError("booking_id is required")
	}
	if next != domain.BookingStatusConfirmed && next != domain.BookingStatusDenied {
		return domain.Booking{}, nil, validationError("status must be confirmed or denied")
	}

	var out domain.Booking
	err := s.repo.InCalendarTransaction(ctx, store.CalendarScope, func(ctx context.Context, tx store.CalendarTx) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(next) {
			return conflictError("booking is not pending approval")
		}
		updated, err := tx.UpdateBookingStatus(ctx, id, next)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Booking{}, nil, err
	}

	template := "appointment-confirmed"
	if next == domain.BookingStatusDenied {
		template = "appointment-denied"
	}
	intents := []domain.NotificationIntent{{
		Channel:    domain.NotificationChannelEmail,
		To:         out.ClientEmail,
		TemplateID: template,
		Params: map[string]string{
			"booking_id": out.ID.String(),
			"start_time": out.StartTime.Format(time.RFC3339),
		},
	}}
	return out, intents, nil
}

// Cancel releases a booking's slot. Allowed from pending_approval or
// confirmed, only before the booking starts.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (domain.Booking, []domain.NotificationIntent, error) {
	if id == uuid.Nil {
		return domain.Booking{}, nil, validationError("booking_id is required")
	}

	now := s.now().UTC()
	var out domain.Booking
	err := s.repo.InCalendarTransaction(ctx, store.CalendarScope, func(ctx context.Context, tx store.CalendarTx) error {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(domain.BookingStatusCancelled) {
			return conflictError("booking is not cancellable")
		}
		if !now.Before(b.StartTime) {
			return validationError("booking has already started")
		}
		updated, err := tx.UpdateBookingStatus(ctx, id, domain.BookingStatusCancelled)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Booking{}, nil, err
	}

	var intents []domain.NotificationIntent
	if s.opts.AdminEmail != "" {
		intents = append(intents, domain.NotificationIntent{
			Channel:    domain.NotificationChannelEmail,
			To:         s.opts.AdminEmail,
			TemplateID: "appointment-cancelled",
			Params: map[string]string{
				"booking_id": out.ID.String(),
				"start_time": out.StartTime.Format(time.RFC3339),
			},
		})
	}
	return out, intents, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	if id == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}
	return s.repo.GetBooking(ctx, id)
}

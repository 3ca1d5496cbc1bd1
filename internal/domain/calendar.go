package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type EventSource string

const (
	EventSourceBooking  EventSource = "booking"
	EventSourceAudition EventSource = "audition"
)

// CalendarEvent is the common projection of both event sources. It is derived
// on every aggregation call and never persisted, so it cannot diverge from
// the source records.
type CalendarEvent struct {
	ID          string
	Title       string
	SubjectName string
	Start       time.Time
	End         time.Time
	Status      string
	Source      EventSource
	ProviderID  *uuid.UUID
}

// DataIntegrityError marks a source record that cannot be projected because a
// required field is missing. Such records are excluded from aggregation and
// reported, never silently dropped.
type DataIntegrityError struct {
	Source   EventSource
	RecordID string
	Field    string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s record %s is missing %s", e.Source, e.RecordID, e.Field)
}

func BookingCalendarEvent(b Booking, serviceName string) (CalendarEvent, error) {
	if b.StartTime.IsZero() {
		return CalendarEvent{}, &DataIntegrityError{Source: EventSourceBooking, RecordID: b.ID.String(), Field: "start_time"}
	}
	title := serviceName
	if title == "" {
		title = "Appointment"
	}
	return CalendarEvent{
		ID:          b.ID.String(),
		Title:       title,
		SubjectName: b.ClientName,
		Start:       b.StartTime,
		End:         b.End(),
		Status:      string(b.Status),
		Source:      EventSourceBooking,
		ProviderID:  b.ProviderID,
	}, nil
}

func AuditionCalendarEvent(a AuditionEvent) (CalendarEvent, error) {
	if a.AuditionDate.IsZero() {
		return CalendarEvent{}, &DataIntegrityError{Source: EventSourceAudition, RecordID: a.ID.String(), Field: "audition_date"}
	}
	return CalendarEvent{
		ID:          a.ID.String(),
		Title:       "Audition",
		SubjectName: a.CandidateName(),
		Start:       a.AuditionDate,
		End:         a.End(),
		Status:      string(a.Status),
		Source:      EventSourceAudition,
	}, nil
}

// CalendarFilter controls which events an aggregation returns. Filters apply
// in a fixed order: source toggles first, then the status filter, then the
// subtractive pending toggle. The pending toggle must run last so that it
// removes pending events the earlier filters would otherwise keep.
type CalendarFilter struct {
	ShowAppointments bool
	ShowAuditions    bool
	Status           string
	ShowPending      bool
}

func DefaultCalendarFilter() CalendarFilter {
	return CalendarFilter{
		ShowAppointments: true,
		ShowAuditions:    true,
		Status:           "all",
		ShowPending:      true,
	}
}

func (f CalendarFilter) Apply(events []CalendarEvent) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		switch e.Source {
		case EventSourceBooking:
			if !f.ShowAppointments {
				continue
			}
		case EventSourceAudition:
			if !f.ShowAuditions {
				continue
			}
		}
		if f.Status != "" && f.Status != "all" && e.Status != f.Status {
			continue
		}
		if !f.ShowPending && isPending(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func isPending(e CalendarEvent) bool {
	switch e.Source {
	case EventSourceBooking:
		return e.Status == string(BookingStatusPendingApproval)
	case EventSourceAudition:
		return e.Status == string(AuditionStatusPending)
	}
	return false
}

// Day-view grid bounds, matching the staff schedule board: 08:00 to 20:00 in
// quarter-hour rows.
const (
	DayGridStartHour   = 8
	DayGridEndHour     = 20
	DayGridStepMinutes = 15
)

type DayGridSlot struct {
	Start  time.Time
	Events []CalendarEvent
}

// DayGrid buckets events into fixed quarter-hour rows for one date. An event
// appears in every row whose start instant falls inside [event.Start,
// event.End).
func DayGrid(events []CalendarEvent, date time.Time) []DayGridSlot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	n := (DayGridEndHour - DayGridStartHour) * 60 / DayGridStepMinutes
	out := make([]DayGridSlot, 0, n)
	for i := 0; i < n; i++ {
		start := day.Add(time.Duration(DayGridStartHour)*time.Hour + time.Duration(i*DayGridStepMinutes)*time.Minute)
		slot := DayGridSlot{Start: start}
		for _, e := range events {
			if !start.Before(e.Start) && start.Before(e.End) {
				slot.Events = append(slot.Events, e)
			}
		}
		out = append(out, slot)
	}
	return out
}

type DateGroup struct {
	Date   time.Time
	Events []CalendarEvent
}

// GroupByDate buckets events by the calendar date of their local start, one
// group per date in [start, end), in order. Dates without events are included
// so week and month views render a full grid.
func GroupByDate(events []CalendarEvent, start, end time.Time) []DateGroup {
	sorted := make([]CalendarEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	out := make([]DateGroup, 0, 42)
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		g := DateGroup{Date: day}
		next := day.AddDate(0, 0, 1)
		for _, e := range sorted {
			if !e.Start.Before(day) && e.Start.Before(next) {
				g.Events = append(g.Events, e)
			}
		}
		out = append(out, g)
	}
	return out
}

// WeekRange returns the Sunday-start week containing date, end exclusive.
func WeekRange(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// MonthRange returns the month containing date padded outward to calendar
// grid boundaries: it starts on the Sunday at or before the 1st and ends,
// exclusive, on the Sunday after the month's last day.
func MonthRange(date time.Time) (time.Time, time.Time) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 7-int(last.Weekday()))
	return start, end
}

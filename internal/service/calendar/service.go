package calendar

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/store"
)

// Service merges bookings and auditions into one calendar. It is stateless
// between calls: every view is recomputed from the sources, never cached.
type Service struct {
	reader store.CalendarReader
	logger *slog.Logger
}

func NewService(reader store.CalendarReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, logger: logger}
}

// DayView is one date bucketed into fixed grid rows. Problems lists source
// records that could not be projected.
type DayView struct {
	Date     time.Time
	Grid     []domain.DayGridSlot
	Events   []domain.CalendarEvent
	Problems []string
}

// RangeView is a week or padded month grouped by calendar date.
type RangeView struct {
	Start    time.Time
	End      time.Time
	Days     []domain.DateGroup
	Problems []string
}

func (s *Service) Day(ctx context.Context, date time.Time, filter domain.CalendarFilter) (DayView, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	events, problems, err := s.collect(ctx, day, day.AddDate(0, 0, 1), filter)
	if err != nil {
		return DayView{}, err
	}
	return DayView{
		Date:     day,
		Grid:     domain.DayGrid(events, day),
		Events:   events,
		Problems: problems,
	}, nil
}

func (s *Service) Week(ctx context.Context, date time.Time, filter domain.CalendarFilter) (RangeView, error) {
	start, end := domain.WeekRange(date.UTC())
	return s.rangeView(ctx, start, end, filter)
}

func (s *Service) Month(ctx context.Context, date time.Time, filter domain.CalendarFilter) (RangeView, error) {
	start, end := domain.MonthRange(date.UTC())
	return s.rangeView(ctx, start, end, filter)
}

func (s *Service) rangeView(ctx context.Context, start, end time.Time, filter domain.CalendarFilter) (RangeView, error) {
	events, problems, err := s.collect(ctx, start, end, filter)
	if err != nil {
		return RangeView{}, err
	}
	return RangeView{
		Start:    start,
		End:      end,
		Days:     domain.GroupByDate(events, start, end),
		Problems: problems,
	}, nil
}

// collect fetches both sources for the window, projects them into calendar
// events, and applies the filter. Malformed records are logged and reported,
// never silently dropped.
func (s *Service) collect(ctx context.Context, start, end time.Time, filter domain.CalendarFilter) ([]domain.CalendarEvent, []string, error) {
	bookings, err := s.reader.ListBookings(ctx, nil, start, end)
	if err != nil {
		return nil, nil, err
	}
	auditions, err := s.reader.ListAuditionEvents(ctx, start, end)
	if err != nil {
		return nil, nil, err
	}
	serviceNames, err := s.serviceNames(ctx)
	if err != nil {
		return nil, nil, err
	}

	events := make([]domain.CalendarEvent, 0, len(bookings)+len(auditions))
	var problems []string

	for _, b := range bookings {
		var serviceName string
		if b.ServiceID != nil {
			serviceName = serviceNames[*b.ServiceID]
		}
		e, err := domain.BookingCalendarEvent(b, serviceName)
		if err != nil {
			s.logger.Warn("excluding malformed booking", "booking_id", b.ID, "error", err)
			problems = append(problems, err.Error())
			continue
		}
		events = append(events, e)
	}
	for _, a := range auditions {
		e, err := domain.AuditionCalendarEvent(a)
		if err != nil {
			s.logger.Warn("excluding malformed audition", "audition_id", a.ID, "error", err)
			problems = append(problems, err.Error())
			continue
		}
		events = append(events, e)
	}

	events = filter.Apply(events)
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, problems, nil
}

func (s *Service) serviceNames(ctx context.Context) (map[uuid.UUID]string, error) {
	services, err := s.reader.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]string, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc.Name
	}
	return byID, nil
}

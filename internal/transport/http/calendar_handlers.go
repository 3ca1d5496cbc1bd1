package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/service/calendar"
)

type calendarService interface {
	Day(ctx context.Context, date time.Time, filter domain.CalendarFilter) (calendar.DayView, error)
	Week(ctx context.Context, date time.Time, filter domain.CalendarFilter) (calendar.RangeView, error)
	Month(ctx context.Context, date time.Time, filter domain.CalendarFilter) (calendar.RangeView, error)
}

type CalendarHandler struct {
	svc calendarService
	log *slog.Logger
}

func NewCalendarHandler(svc calendarService, log *slog.Logger) *CalendarHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CalendarHandler{svc: svc, log: log.With(slog.String("component", "http.calendar"))}
}

func (h *CalendarHandler) Day(c *gin.Context) {
	date, filter, ok := parseCalendarQuery(c)
	if !ok {
		return
	}
	view, err := h.svc.Day(c.Request.Context(), date, filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     view.Date.Format("2006-01-02"),
		"grid":     toGridResponse(view.Grid),
		"events":   toEventResponses(view.Events),
		"problems": view.Problems,
	})
}

func (h *CalendarHandler) Week(c *gin.Context) {
	date, filter, ok := parseCalendarQuery(c)
	if !ok {
		return
	}
	view, err := h.svc.Week(c.Request.Context(), date, filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRangeResponse(view))
}

func (h *CalendarHandler) Month(c *gin.Context) {
	date, filter, ok := parseCalendarQuery(c)
	if !ok {
		return
	}
	view, err := h.svc.Month(c.Request.Context(), date, filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRangeResponse(view))
}

func parseCalendarQuery(c *gin.Context) (time.Time, domain.CalendarFilter, bool) {
	raw := c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02"))
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return time.Time{}, domain.CalendarFilter{}, false
	}

	filter := domain.DefaultCalendarFilter()
	if v, ok := parseBoolQuery(c, "show_appointments"); ok {
		filter.ShowAppointments = v
	}
	if v, ok := parseBoolQuery(c, "show_auditions"); ok {
		filter.ShowAuditions = v
	}
	if v, ok := parseBoolQuery(c, "show_pending"); ok {
		filter.ShowPending = v
	}
	if status := c.Query("status"); status != "" {
		filter.Status = status
	}
	return date, filter, true
}

func parseBoolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SubjectName string    `json:"subject_name"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
}

func toEventResponses(events []domain.CalendarEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:          e.ID,
			Title:       e.Title,
			SubjectName: e.SubjectName,
			Start:       e.Start,
			End:         e.End,
			Status:      e.Status,
			Source:      string(e.Source),
		})
	}
	return out
}

type gridRowResponse struct {
	Start  time.Time       `json:"start"`
	Events []eventResponse `json:"events"`
}

func toGridResponse(grid []domain.DayGridSlot) []gridRowResponse {
	out := make([]gridRowResponse, 0, len(grid))
	for _, row := range grid {
		out = append(out, gridRowResponse{Start: row.Start, Events: toEventResponses(row.Events)})
	}
	return out
}

type dayGroupResponse struct {
	Date   string          `json:"date"`
	Events []eventResponse `json:"events"`
}

func toRangeResponse(view calendar.RangeView) gin.H {
	days := make([]dayGroupResponse, 0, len(view.Days))
	for _, d := range view.Days {
		days = append(days, dayGroupResponse{
			Date:   d.Date.Format("2006-01-02"),
			Events: toEventResponses(d.Events),
		})
	}
	return gin.H{
		"start":    view.Start.Format("2006-01-02"),
		"end":      view.End.Format("2006-01-02"),
		"days":     days,
		"problems": view.Problems,
	}
}

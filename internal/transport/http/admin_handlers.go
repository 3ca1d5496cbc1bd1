package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/service/availability"
)

type availabilityService interface {
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	ListRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error)
	SaveRule(ctx context.Context, in availability.SaveRuleInput) (domain.AvailabilityRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error)
	BlockDate(ctx context.Context, date time.Time, reason string) (domain.BlockedDate, error)
	UnblockDate(ctx context.Context, id uuid.UUID) error
}

type AdminHandler struct {
	svc availabilityService
	log *slog.Logger
}

func NewAdminHandler(svc availabilityService, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{svc: svc, log: log.With(slog.String("component", "http.admin"))}
}

func (h *AdminHandler) ListProviders(c *gin.Context) {
	providers, err := h.svc.ListProviders(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (h *AdminHandler) ListRules(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider id must be a uuid"})
		return
	}
	rules, err := h.svc.ListRules(c.Request.Context(), providerID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type saveRuleRequest struct {
	ID                       string `json:"id"`
	DayOfWeek                int    `json:"day_of_week"`
	StartTime                string `json:"start_time" binding:"required"`
	EndTime                  string `json:"end_time" binding:"required"`
	SlotDurationMinutes      int    `json:"slot_duration_minutes"`
	BreakBetweenSlotsMinutes int    `json:"break_between_slots_minutes"`
	IsAvailable              bool   `json:"is_available"`
}

func (h *AdminHandler) SaveRule(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider id must be a uuid"})
		return
	}
	var req saveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	var ruleID uuid.UUID
	if req.ID != "" {
		ruleID, err = uuid.Parse(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rule id must be a uuid"})
			return
		}
	}

	rule, err := h.svc.SaveRule(c.Request.Context(), availability.SaveRuleInput{
		RuleID:                   ruleID,
		ProviderID:               providerID,
		DayOfWeek:                req.DayOfWeek,
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		SlotDurationMinutes:      req.SlotDurationMinutes,
		BreakBetweenSlotsMinutes: req.BreakBetweenSlotsMinutes,
		IsAvailable:              req.IsAvailable,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("availability rule saved",
		slog.String("provider_id", providerID.String()),
		slog.Int("day_of_week", rule.DayOfWeek),
	)
	c.JSON(http.StatusOK, rule)
}

func (h *AdminHandler) DeleteRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a uuid"})
		return
	}
	if err := h.svc.DeleteRule(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) ListBlockedDates(c *gin.Context) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(1, 0, 0)
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		start = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		end = t
	}

	dates, err := h.svc.ListBlockedDates(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked_dates": dates})
}

type blockDateRequest struct {
	Date   string `json:"date" binding:"required"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) BlockDate(c *gin.Context) {
	var req blockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	blocked, err := h.svc.BlockDate(c.Request.Context(), date, req.Reason)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("date blocked", slog.String("date", req.Date))
	c.JSON(http.StatusCreated, blocked)
}

func (h *AdminHandler) UnblockDate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a uuid"})
		return
	}
	if err := h.svc.UnblockDate(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

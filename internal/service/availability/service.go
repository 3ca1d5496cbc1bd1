package availability

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

// Service is the staff-facing surface for weekly rules and blocked dates.
type Service struct {
	repo store.AvailabilityRepository
}

func NewService(repo store.AvailabilityRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	return s.repo.ListProviders(ctx)
}

func (s *Service) ListRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error) {
	if providerID == uuid.Nil {
		return nil, validationError("provider_id is required")
	}
	return s.repo.ListAvailabilityRules(ctx, providerID)
}

type SaveRuleInput struct {
	RuleID                   uuid.UUID
	ProviderID               uuid.UUID
	DayOfWeek                int
	StartTime                string
	EndTime                  string
	SlotDurationMinutes      int
	BreakBetweenSlotsMinutes int
	IsAvailable              bool
}

// SaveRule stores one weekly window. A zero RuleID creates a new rule, so a
// provider may keep several windows on the same weekday; a set RuleID updates
// that rule in place. Slot duration defaults to the standard half hour when
// omitted.
func (s *Service) SaveRule(ctx context.Context, in SaveRuleInput) (domain.AvailabilityRule, error) {
	if in.ProviderID == uuid.Nil {
		return domain.AvailabilityRule{}, validationError("provider_id is required")
	}
	rule := domain.AvailabilityRule{
		ID:                       in.RuleID,
		ProviderID:               in.ProviderID,
		DayOfWeek:                in.DayOfWeek,
		StartTime:                strings.TrimSpace(in.StartTime),
		EndTime:                  strings.TrimSpace(in.EndTime),
		SlotDurationMinutes:      in.SlotDurationMinutes,
		BreakBetweenSlotsMinutes: in.BreakBetweenSlotsMinutes,
		IsAvailable:              in.IsAvailable,
	}
	if rule.SlotDurationMinutes == 0 {
		rule.SlotDurationMinutes = domain.DefaultSlotDurationMinutes
	}
	if err := rule.Validate(); err != nil {
		return domain.AvailabilityRule{}, validationError(err.Error())
	}
	return s.repo.SaveAvailabilityRule(ctx, rule)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("rule_id is required")
	}
	return s.repo.DeleteAvailabilityRule(ctx, id)
}

func (s *Service) ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error) {
	if !windowStart.Before(windowEnd) {
		return nil, validationError("window_end must be after window_start")
	}
	return s.repo.ListBlockedDates(ctx, windowStart, windowEnd)
}

// BlockDate marks one calendar date as unbookable. The date is normalized to
// midnight UTC so block and unblock agree on the key.
func (s *Service) BlockDate(ctx context.Context, date time.Time, reason string) (domain.BlockedDate, error) {
	if date.IsZero() {
		return domain.BlockedDate{}, validationError("date is required")
	}
	d := domain.BlockedDate{
		Date:   time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Reason: strings.TrimSpace(reason),
	}
	return s.repo.InsertBlockedDate(ctx, d)
}

func (s *Service) UnblockDate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("blocked_date_id is required")
	}
	return s.repo.DeleteBlockedDate(ctx, id)
}

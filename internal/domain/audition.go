package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditionDurationMinutes is fixed: every audition occupies a 30-minute block.
const AuditionDurationMinutes = 30

type AuditionStatus string

const (
	AuditionStatusScheduled AuditionStatus = "scheduled"
	AuditionStatusConfirmed AuditionStatus = "confirmed"
	AuditionStatusPending   AuditionStatus = "pending"
	AuditionStatusCancelled AuditionStatus = "cancelled"
)

func (s AuditionStatus) Valid() bool {
	switch s {
	case AuditionStatusScheduled, AuditionStatusConfirmed, AuditionStatusPending, AuditionStatusCancelled:
		return true
	}
	return false
}

// AuditionEvent is the second event source. It has its own status vocabulary,
// no provider linkage, and participates only in calendar aggregation, never
// in booking or conflict logic.
type AuditionEvent struct {
	bun.BaseModel `bun:"table:auditions"`

	ID             uuid.UUID      `bun:"id,pk,type:uuid"`
	FirstName      string         `bun:"first_name,notnull"`
	LastName       string         `bun:"last_name,notnull"`
	Email          string         `bun:"email"`
	Phone          string         `bun:"phone"`
	AuditionDate   time.Time      `bun:"audition_date"`
	Status         AuditionStatus `bun:"status,notnull"`
	AdditionalInfo string         `bun:"additional_info"`
	CreatedAt      time.Time      `bun:"created_at,notnull"`
	UpdatedAt      time.Time      `bun:"updated_at,notnull"`
}

func (a AuditionEvent) CandidateName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a AuditionEvent) End() time.Time {
	return a.AuditionDate.Add(AuditionDurationMinutes * time.Minute)
}

func (a *AuditionEvent) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

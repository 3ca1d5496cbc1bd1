package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
	"github.com/kevinskey/gleeworld-sub014/internal/store"
)

// Repo is the single storage implementation behind the booking workflow, the
// calendar aggregator, and the admin availability surface.
type Repo struct {
	db *bun.DB
}

func NewRepo(db *bun.DB) *Repo {
	return &Repo{db: db}
}

type calendarTx struct {
	tx bun.Tx
}

// InCalendarTransaction runs fn inside a transaction that holds an advisory
// lock on the given scope. Two submissions for the same scope serialize here,
// so fn sees every booking committed by earlier holders.
func (r *Repo) InCalendarTransaction(ctx context.Context, scope string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockCalendarScope(ctx, tx, scope); err != nil {
			return err
		}
		return fn(ctx, calendarTx{tx: tx})
	})
	return mapStorageErr(err)
}

func lockCalendarScope(ctx context.Context, tx bun.Tx, scope string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", scope).Exec(ctx)
	return err
}

func (r *Repo) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return getBooking(ctx, r.db, id)
}

func (r *Repo) ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	return listBookings(ctx, r.db, providerID, windowStart, windowEnd)
}

func (r *Repo) ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error) {
	return listAvailabilityRules(ctx, r.db, providerID)
}

func (r *Repo) ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error) {
	return listBlockedDates(ctx, r.db, windowStart, windowEnd)
}

func (r *Repo) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var svc domain.Service
	err := r.db.NewSelect().
		Model(&svc).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, store.ErrNotFound
		}
		return domain.Service{}, mapStorageErr(err)
	}
	return svc, nil
}

func (r *Repo) ListServices(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_active").
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return rows, nil
}

// ListAuditionEvents deliberately includes rows with a NULL audition date.
// The aggregator reports those as data integrity problems instead of silently
// dropping them.
func (r *Repo) ListAuditionEvents(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.AuditionEvent, error) {
	var rows []domain.AuditionEvent
	err := r.db.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("audition_date IS NULL").
				WhereOr("audition_date >= ? AND audition_date < ?", windowStart, windowEnd)
		}).
		OrderExpr("audition_date ASC NULLS FIRST").
		Scan(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return rows, nil
}

// SaveAvailabilityRule inserts a new rule when the id is unset and updates the
// identified rule otherwise. Rules are one row per window, so a provider may
// hold several windows on the same weekday.
func (r *Repo) SaveAvailabilityRule(ctx context.Context, rule domain.AvailabilityRule) (domain.AvailabilityRule, error) {
	m := rule
	if m.ID == uuid.Nil {
		if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
			return domain.AvailabilityRule{}, mapStorageErr(err)
		}
		return m, nil
	}

	res, err := r.db.NewUpdate().
		Model(&m).
		Column("day_of_week", "start_time", "end_time", "slot_duration_minutes", "break_between_slots_minutes", "is_available", "updated_at").
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return domain.AvailabilityRule{}, mapStorageErr(err)
	}
	if err := requireAffected(res); err != nil {
		return domain.AvailabilityRule{}, err
	}

	var saved domain.AvailabilityRule
	err = r.db.NewSelect().
		Model(&saved).
		Where("id = ?", m.ID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.AvailabilityRule{}, mapStorageErr(err)
	}
	return saved, nil
}

func (r *Repo) DeleteAvailabilityRule(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.AvailabilityRule)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapStorageErr(err)
	}
	return requireAffected(res)
}

func (r *Repo) InsertBlockedDate(ctx context.Context, d domain.BlockedDate) (domain.BlockedDate, error) {
	m := d
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.BlockedDate{}, store.ErrConflict
		}
		return domain.BlockedDate{}, mapStorageErr(err)
	}
	return m, nil
}

func (r *Repo) DeleteBlockedDate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.BlockedDate)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapStorageErr(err)
	}
	return requireAffected(res)
}

func (r *Repo) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	var rows []domain.Provider
	err := r.db.NewSelect().
		Model(&rows).
		Where("is_active").
		OrderExpr("display_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return rows, nil
}

func (t calendarTx) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return getBooking(ctx, t.tx, id)
}

func (t calendarTx) ListBookings(ctx context.Context, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	return listBookings(ctx, t.tx, providerID, windowStart, windowEnd)
}

func (t calendarTx) ListAvailabilityRules(ctx context.Context, providerID uuid.UUID) ([]domain.AvailabilityRule, error) {
	return listAvailabilityRules(ctx, t.tx, providerID)
}

func (t calendarTx) ListBlockedDates(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error) {
	return listBlockedDates(ctx, t.tx, windowStart, windowEnd)
}

func (t calendarTx) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := b
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Booking{}, store.ErrConflict
		}
		return domain.Booking{}, mapStorageErr(err)
	}
	return m, nil
}

func (t calendarTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error) {
	m := domain.Booking{ID: id, Status: status}
	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("status", "updated_at").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return domain.Booking{}, mapStorageErr(err)
	}
	if err := requireAffected(res); err != nil {
		return domain.Booking{}, err
	}
	return getBooking(ctx, t.tx, id)
}

func getBooking(ctx context.Context, db bun.IDB, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, mapStorageErr(err)
	}
	return b, nil
}

// listBookings returns the bookings whose occupied interval intersects the
// half-open window. A nil providerID returns every booking; a concrete one
// also returns unassigned bookings, which block every calendar.
func listBookings(ctx context.Context, db bun.IDB, providerID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	q := db.NewSelect().
		Model(&rows).
		Where("start_time < ?", windowEnd).
		Where("start_time + make_interval(mins => duration_minutes) > ?", windowStart)
	if providerID != nil {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("provider_id = ?", *providerID).WhereOr("provider_id IS NULL")
		})
	}
	err := q.OrderExpr("start_time ASC").Scan(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return rows, nil
}

func listAvailabilityRules(ctx context.Context, db bun.IDB, providerID uuid.UUID) ([]domain.AvailabilityRule, error) {
	var rows []domain.AvailabilityRule
	err := db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("day_of_week ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return rows, nil
}

func listBlockedDates(ctx context.Context, db bun.IDB, windowStart, windowEnd time.Time) ([]domain.BlockedDate, error) {
	var rows []domain.BlockedDate
	err := db.NewSelect().
		Model(&rows).
		Where("blocked_date >= ?", windowStart.AddDate(0, 0, -1)).
		Where("blocked_date < ?", windowEnd.AddDate(0, 0, 1)).
		OrderExpr("blocked_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return rows, nil
}

func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return store.ErrTimeout
	}
	return err
}

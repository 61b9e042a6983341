package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/store"
)

// activeSlotIndex is the partial unique index on
// (provider_id, session_date, session_time) WHERE status <> 'CANCELLED'.
// It is the last line of defense behind the in-transaction occupancy check.
const activeSlotIndex = "bookings_active_slot_idx"

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

type ledgerTx struct {
	tx bun.Tx
}

// occupancyReader is the slice of the ledger the slot guard needs; tests
// exercise the guard against fakes.
type occupancyReader interface {
	ActiveBookingExists(ctx context.Context, providerID uuid.UUID, date time.Time, slotTime string, exclude uuid.UUID) (bool, error)
}

func ensureSlotFree(ctx context.Context, r occupancyReader, providerID uuid.UUID, date time.Time, slotTime string, exclude uuid.UUID) error {
	taken, err := r.ActiveBookingExists(ctx, providerID, date, slotTime, exclude)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrConflict
	}
	return nil
}

func (r *BookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.inProviderTransaction(ctx, b.ProviderID, func(ctx context.Context, tx ledgerTx) error {
		if err := ensureSlotFree(ctx, tx, b.ProviderID, b.SessionDate, b.SessionTime, uuid.Nil); err != nil {
			return err
		}
		m := b
		if _, err := tx.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return slotConflict(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) Update(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.inProviderTransaction(ctx, b.ProviderID, func(ctx context.Context, tx ledgerTx) error {
		var err error
		out, err = tx.updateBooking(ctx, b)
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) UpdateClaimingSlot(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.inProviderTransaction(ctx, b.ProviderID, func(ctx context.Context, tx ledgerTx) error {
		if err := ensureSlotFree(ctx, tx, b.ProviderID, b.SessionDate, b.SessionTime, b.ID); err != nil {
			return err
		}
		var err error
		out, err = tx.updateBooking(ctx, b)
		return err
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (r *BookingRepo) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("subject_id = ?", subjectID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) ActiveTimes(ctx context.Context, providerID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	err := r.db.NewSelect().
		Model((*domain.Booking)(nil)).
		Column("session_time").
		Where("provider_id = ?", providerID).
		Where("session_date = ?", domain.FormatDate(date)).
		Where("status <> ?", domain.BookingStatusCancelled).
		OrderExpr("session_time ASC").
		Scan(ctx, &times)
	if err != nil {
		return nil, err
	}
	return times, nil
}

// inProviderTransaction serializes all slot-claiming writes for one provider
// behind a transaction-scoped advisory lock, so the check-then-write pair in
// each operation runs alone for that provider's calendar.
func (r *BookingRepo) inProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx ledgerTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderCalendar(ctx, tx, providerID); err != nil {
			return err
		}
		return fn(ctx, ledgerTx{tx: tx})
	})
}

func lockProviderCalendar(ctx context.Context, tx bun.Tx, providerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", providerID.String()).Exec(ctx)
	return err
}

func (t ledgerTx) ActiveBookingExists(ctx context.Context, providerID uuid.UUID, date time.Time, slotTime string, exclude uuid.UUID) (bool, error) {
	q := t.tx.NewSelect().
		Model((*domain.Booking)(nil)).
		Where("provider_id = ?", providerID).
		Where("session_date = ?", domain.FormatDate(date)).
		Where("session_time = ?", slotTime).
		Where("status <> ?", domain.BookingStatusCancelled)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	return q.Exists(ctx)
}

func (t ledgerTx) updateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := b
	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("session_date", "session_time", "status", "provider_message", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Booking{}, slotConflict(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Booking{}, err
	}
	if affected == 0 {
		return domain.Booking{}, store.ErrNotFound
	}
	return m, nil
}

func slotConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeSlotIndex {
		return store.ErrConflict
	}
	return err
}

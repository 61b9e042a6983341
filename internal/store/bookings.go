package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
)

// BookingRepository is the booking ledger. Implementations must make every
// slot-claiming write (Create, UpdateClaimingSlot) atomic with its occupancy
// check, so at most one non-cancelled booking ever holds a
// (provider, date, time) slot; the loser of a race gets ErrConflict.
type BookingRepository interface {
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// Update persists status/message changes that release or keep the
	// booking's current slot (decline, cancel).
	Update(ctx context.Context, b domain.Booking) (domain.Booking, error)

	// UpdateClaimingSlot persists a change that (re)claims b's slot
	// (approve, revert, reschedule). The occupancy check excludes b itself,
	// so moving a booking onto its own slot succeeds.
	UpdateClaimingSlot(ctx context.Context, b domain.Booking) (domain.Booking, error)

	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Booking, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Booking, error)

	// ActiveTimes returns the times with a non-cancelled booking for the
	// provider on date, ascending.
	ActiveTimes(ctx context.Context, providerID uuid.UUID, date time.Time) ([]string, error)
}

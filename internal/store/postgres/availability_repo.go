package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/store"
)

type AvailabilityRepo struct {
	db *bun.DB
}

func NewAvailabilityRepo(db *bun.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

// SaveSettings replaces the provider's whole week and price in one
// transaction, under the same advisory lock the booking ledger takes, so a
// replace never interleaves with a slot-claiming write for that provider.
func (r *AvailabilityRepo) SaveSettings(ctx context.Context, providerID uuid.UUID, pricePerSession float64, week domain.WeeklyTemplate) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderCalendar(ctx, tx, providerID); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*domain.User)(nil)).
			Set("price_per_session = ?", pricePerSession).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", providerID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}

		if _, err := tx.NewDelete().
			Model((*domain.AvailabilitySlot)(nil)).
			Where("provider_id = ?", providerID).
			Exec(ctx); err != nil {
			return err
		}

		slots := make([]domain.AvailabilitySlot, 0, 32)
		for _, day := range domain.Weekdays {
			for _, t := range week[day] {
				slots = append(slots, domain.AvailabilitySlot{
					ProviderID: providerID,
					Day:        day,
					SlotTime:   t,
				})
			}
		}
		if len(slots) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&slots).Exec(ctx)
		return err
	})
}

func (r *AvailabilityRepo) Week(ctx context.Context, providerID uuid.UUID) (domain.WeeklyTemplate, error) {
	var rows []domain.AvailabilitySlot
	err := r.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("slot_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	week := make(domain.WeeklyTemplate, len(domain.Weekdays))
	for _, s := range rows {
		week[s.Day] = append(week[s.Day], s.SlotTime)
	}
	return week, nil
}

func (r *AvailabilityRepo) DayTimes(ctx context.Context, providerID uuid.UUID, day domain.Weekday) ([]string, error) {
	var times []string
	err := r.db.NewSelect().
		Model((*domain.AvailabilitySlot)(nil)).
		Column("slot_time").
		Where("provider_id = ?", providerID).
		Where("day = ?", day).
		OrderExpr("slot_time ASC").
		Scan(ctx, &times)
	if err != nil {
		return nil, err
	}
	return times, nil
}

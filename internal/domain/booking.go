package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is one subject's claim on a provider's concrete (date, time) slot.
// Bookings are never deleted, only moved between statuses; a slot counts as
// occupied while a non-cancelled booking sits on it.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID              uuid.UUID     `bun:"id,pk,type:uuid"`
	SubjectID       uuid.UUID     `bun:"subject_id,notnull,type:uuid"`
	ProviderID      uuid.UUID     `bun:"provider_id,notnull,type:uuid"`
	SessionDate     time.Time     `bun:"session_date,notnull,type:date"`
	SessionTime     string        `bun:"session_time,notnull"`
	Status          BookingStatus `bun:"status,notnull"`
	ProviderMessage string        `bun:"provider_message"`
	PaymentRef      string        `bun:"payment_ref"`
	CreatedAt       time.Time     `bun:"created_at,notnull"`
	UpdatedAt       time.Time     `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

// Active reports whether the booking occupies its slot.
func (b Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

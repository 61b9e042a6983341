package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Weekday names a day of the provider's recurring weekly template.
type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// Weekdays lists all days in calendar order, Sunday first.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func WeekdayOf(date time.Time) Weekday {
	return Weekdays[int(date.Weekday())]
}

func ParseWeekday(s string) (Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday":
		return Sunday, true
	case "monday":
		return Monday, true
	case "tuesday":
		return Tuesday, true
	case "wednesday":
		return Wednesday, true
	case "thursday":
		return Thursday, true
	case "friday":
		return Friday, true
	case "saturday":
		return Saturday, true
	default:
		return "", false
	}
}

// AvailabilitySlot is one (weekday, time) entry of a provider's weekly
// template. The full set for a provider is replaced wholesale on every
// settings save; there are no partial updates.
type AvailabilitySlot struct {
	bun.BaseModel `bun:"table:availability_slots"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	ProviderID uuid.UUID `bun:"provider_id,notnull,type:uuid"`
	Day        Weekday   `bun:"day,notnull"`
	SlotTime   string    `bun:"slot_time,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func (s *AvailabilitySlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// WeeklyTemplate maps each declared weekday to its slot times, ascending.
type WeeklyTemplate map[Weekday][]string

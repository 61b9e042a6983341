package store

import (
	"context"

	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
)

// AvailabilityRepository holds each provider's settings aggregate: the
// recurring weekly template plus the session price.
type AvailabilityRepository interface {
	// SaveSettings atomically replaces the provider's whole week
	// (delete-all then insert-all) and updates the price. Readers see
	// either the fully-old or fully-new template, never a partial set.
	SaveSettings(ctx context.Context, providerID uuid.UUID, pricePerSession float64, week domain.WeeklyTemplate) error

	Week(ctx context.Context, providerID uuid.UUID) (domain.WeeklyTemplate, error)

	// DayTimes returns the template times for one weekday, ascending.
	// Empty when the provider never declared that day.
	DayTimes(ctx context.Context, providerID uuid.UUID, day domain.Weekday) ([]string, error)
}

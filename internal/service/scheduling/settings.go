package scheduling

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
)

type SettingsInput struct {
	PricePerSession float64
	// Availability maps weekday names (case-insensitive) to "HH:MM" times.
	// The submitted week replaces the stored one wholesale.
	Availability map[string][]string
}

type ProviderSettings struct {
	PricePerSession float64
	Week            domain.WeeklyTemplate
}

type ProviderCard struct {
	ID              uuid.UUID
	Name            string
	Qualification   string
	PricePerSession float64
}

// UpdateProviderSettings validates and normalizes the submitted week, then
// replaces the provider's settings aggregate atomically. A week with no
// slots is allowed and means "not bookable".
func (s *Service) UpdateProviderSettings(ctx context.Context, caller Caller, in SettingsInput) (ProviderSettings, error) {
	if caller.Role != domain.RoleProvider {
		return ProviderSettings{}, ErrForbidden
	}
	if in.PricePerSession <= 0 {
		return ProviderSettings{}, validationError("pricePerSession must be greater than 0")
	}

	week, err := normalizeWeek(in.Availability)
	if err != nil {
		return ProviderSettings{}, err
	}

	if err := s.availability.SaveSettings(ctx, caller.ID, in.PricePerSession, week); err != nil {
		return ProviderSettings{}, err
	}
	return ProviderSettings{PricePerSession: in.PricePerSession, Week: week}, nil
}

func (s *Service) ProviderSettings(ctx context.Context, caller Caller) (ProviderSettings, error) {
	if caller.Role != domain.RoleProvider {
		return ProviderSettings{}, ErrForbidden
	}
	me, err := s.users.Get(ctx, caller.ID)
	if err != nil {
		return ProviderSettings{}, err
	}
	week, err := s.availability.Week(ctx, caller.ID)
	if err != nil {
		return ProviderSettings{}, err
	}
	return ProviderSettings{PricePerSession: me.PricePerSession, Week: week}, nil
}

func (s *Service) ListProviders(ctx context.Context) ([]ProviderCard, error) {
	providers, err := s.users.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProviderCard, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderCard{
			ID:              p.ID,
			Name:            p.FullName(),
			Qualification:   p.Qualification,
			PricePerSession: p.PricePerSession,
		})
	}
	return out, nil
}

// AvailableSlotsOn resolves the provider's bookable times for one calendar
// date: the weekday template minus times already held by a non-cancelled
// booking, ascending. Recomputed from the store on every call.
func (s *Service) AvailableSlotsOn(ctx context.Context, providerID uuid.UUID, rawDate string) ([]string, error) {
	provider, err := s.users.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.Role != domain.RoleProvider {
		return nil, ErrInvalidRole
	}

	date, err := domain.ParseDate(rawDate)
	if err != nil {
		return nil, validationError(err.Error())
	}

	template, err := s.availability.DayTimes(ctx, providerID, domain.WeekdayOf(date))
	if err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return []string{}, nil
	}

	booked, err := s.bookings.ActiveTimes(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	return domain.SubtractBooked(template, booked), nil
}

// normalizeWeek canonicalizes day names and times, rejects anything off the
// grid, and de-duplicates within each day. Two input keys naming the same
// day ("monday", "Monday") are merged.
func normalizeWeek(in map[string][]string) (domain.WeeklyTemplate, error) {
	seen := make(map[domain.Weekday]map[string]struct{}, len(in))
	week := make(domain.WeeklyTemplate, len(in))

	for rawDay, rawTimes := range in {
		day, ok := domain.ParseWeekday(rawDay)
		if !ok {
			return nil, validationError(fmt.Sprintf("unknown weekday %q", rawDay))
		}
		if seen[day] == nil {
			seen[day] = make(map[string]struct{}, len(rawTimes))
		}
		for _, rawTime := range rawTimes {
			t, err := domain.ParseSlotTime(rawTime)
			if err != nil {
				return nil, validationError(fmt.Sprintf("invalid time %q for %s: %s", rawTime, day, err))
			}
			if _, dup := seen[day][t]; dup {
				continue
			}
			seen[day][t] = struct{}{}
			week[day] = append(week[day], t)
		}
	}

	for day, times := range week {
		if len(times) == 0 {
			delete(week, day)
			continue
		}
		sort.Strings(times)
	}
	return week, nil
}

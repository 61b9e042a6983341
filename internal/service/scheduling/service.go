package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/notify"
	"bookwell/backend/internal/store"
)

// Caller is the identity the transport layer resolved for the request. The
// service trusts it; how it was established is the identity collaborator's
// concern.
type Caller struct {
	ID   uuid.UUID
	Role domain.Role
}

type Service struct {
	bookings     store.BookingRepository
	users        store.UserRepository
	availability store.AvailabilityRepository
	notifier     notify.Notifier
	log          *slog.Logger
	now          func() time.Time
}

func NewService(
	bookings store.BookingRepository,
	users store.UserRepository,
	availability store.AvailabilityRepository,
	notifier notify.Notifier,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		bookings:     bookings,
		users:        users,
		availability: availability,
		notifier:     notifier,
		log:          log.With(slog.String("component", "scheduling")),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	ProviderID uuid.UUID
	Date       string
	Time       string
	PaymentRef string
}

// BookingDetail joins a booking with the caller's counterparty: the provider
// for a subject's listing, the subject for a provider's listing. Counterpart
// is nil when the user record has gone missing.
type BookingDetail struct {
	Booking     domain.Booking
	Counterpart *domain.User
}

func (s *Service) CreateBooking(ctx context.Context, caller Caller, in CreateInput) (domain.Booking, error) {
	if caller.ID == uuid.Nil {
		return domain.Booking{}, ErrForbidden
	}

	provider, err := s.users.Get(ctx, in.ProviderID)
	if err != nil {
		return domain.Booking{}, err
	}
	if provider.Role != domain.RoleProvider {
		return domain.Booking{}, ErrInvalidRole
	}

	date, slotTime, err := s.validateSlot(in.Date, in.Time)
	if err != nil {
		return domain.Booking{}, err
	}

	if err := s.ensureInTemplate(ctx, provider.ID, date, slotTime); err != nil {
		return domain.Booking{}, err
	}

	b := domain.Booking{
		SubjectID:   caller.ID,
		ProviderID:  provider.ID,
		SessionDate: date,
		SessionTime: slotTime,
		Status:      domain.BookingStatusPending,
		PaymentRef:  strings.TrimSpace(in.PaymentRef),
	}

	created, err := s.bookings.Create(ctx, b)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Booking{}, ErrSlotTaken
		}
		return domain.Booking{}, err
	}

	s.notify(ctx, provider.Email, notify.EventBookingRequested, notify.Payload{
		Date:             domain.FormatDate(created.SessionDate),
		Time:             created.SessionTime,
		CounterpartyName: s.userName(ctx, caller.ID),
	})

	return created, nil
}

func (s *Service) ListForSubject(ctx context.Context, caller Caller) ([]BookingDetail, error) {
	rows, err := s.bookings.ListBySubject(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, rows, func(b domain.Booking) uuid.UUID { return b.ProviderID }), nil
}

func (s *Service) ListForProvider(ctx context.Context, caller Caller) ([]BookingDetail, error) {
	if caller.Role != domain.RoleProvider {
		return nil, ErrForbidden
	}
	rows, err := s.bookings.ListByProvider(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, rows, func(b domain.Booking) uuid.UUID { return b.SubjectID }), nil
}

// Approve confirms a pending booking. Approving an already-confirmed booking
// is a no-op; approving a cancelled one is an invalid transition.
func (s *Service) Approve(ctx context.Context, caller Caller, bookingID uuid.UUID) (domain.Booking, error) {
	b, err := s.providerBooking(ctx, caller, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	switch b.Status {
	case domain.BookingStatusConfirmed:
		return b, nil
	case domain.BookingStatusCancelled:
		return domain.Booking{}, ErrInvalidState
	}

	b.Status = domain.BookingStatusConfirmed
	out, err := s.bookings.UpdateClaimingSlot(ctx, b)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Booking{}, ErrSlotTaken
		}
		return domain.Booking{}, err
	}

	s.notifySubject(ctx, out, notify.EventBookingApproved, "")
	return out, nil
}

// Decline cancels a booking on the provider's side, recording an optional
// message for the subject. Declining an already-cancelled booking only
// overwrites the message.
func (s *Service) Decline(ctx context.Context, caller Caller, bookingID uuid.UUID, message string) (domain.Booking, error) {
	b, err := s.providerBooking(ctx, caller, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	b.Status = domain.BookingStatusCancelled
	b.ProviderMessage = strings.TrimSpace(message)
	out, err := s.bookings.Update(ctx, b)
	if err != nil {
		return domain.Booking{}, err
	}

	s.notifySubject(ctx, out, notify.EventBookingDeclined, out.ProviderMessage)
	return out, nil
}

// RevertPending moves a confirmed or cancelled booking back to pending, as
// long as no other active booking has claimed the slot in the meantime.
// Cancelled bookings stay revertible indefinitely; there is no expiry.
func (s *Service) RevertPending(ctx context.Context, caller Caller, bookingID uuid.UUID) (domain.Booking, error) {
	b, err := s.providerBooking(ctx, caller, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	if b.Status == domain.BookingStatusPending {
		return b, nil
	}

	b.Status = domain.BookingStatusPending
	b.ProviderMessage = ""
	out, err := s.bookings.UpdateClaimingSlot(ctx, b)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Booking{}, ErrSlotTaken
		}
		return domain.Booking{}, err
	}
	return out, nil
}

type RescheduleInput struct {
	Date string
	Time string
}

// Reschedule moves the subject's booking to a new slot and resets it to
// pending. The occupancy check excludes the booking itself, so picking the
// current slot again succeeds.
func (s *Service) Reschedule(ctx context.Context, caller Caller, bookingID uuid.UUID, in RescheduleInput) (domain.Booking, error) {
	b, err := s.subjectBooking(ctx, caller, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.Status == domain.BookingStatusCancelled {
		return domain.Booking{}, ErrInvalidState
	}

	date, slotTime, err := s.validateSlot(in.Date, in.Time)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.ensureInTemplate(ctx, b.ProviderID, date, slotTime); err != nil {
		return domain.Booking{}, err
	}

	b.SessionDate = date
	b.SessionTime = slotTime
	b.Status = domain.BookingStatusPending
	b.ProviderMessage = ""

	out, err := s.bookings.UpdateClaimingSlot(ctx, b)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Booking{}, ErrSlotTaken
		}
		return domain.Booking{}, err
	}

	if provider, err := s.users.Get(ctx, out.ProviderID); err == nil {
		s.notify(ctx, provider.Email, notify.EventBookingRescheduled, notify.Payload{
			Date:             domain.FormatDate(out.SessionDate),
			Time:             out.SessionTime,
			CounterpartyName: s.userName(ctx, out.SubjectID),
		})
	}
	return out, nil
}

// Cancel sets the subject's booking to cancelled and clears any stale
// provider message.
func (s *Service) Cancel(ctx context.Context, caller Caller, bookingID uuid.UUID) (domain.Booking, error) {
	b, err := s.subjectBooking(ctx, caller, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	b.Status = domain.BookingStatusCancelled
	b.ProviderMessage = ""
	return s.bookings.Update(ctx, b)
}

func (s *Service) providerBooking(ctx context.Context, caller Caller, bookingID uuid.UUID) (domain.Booking, error) {
	if caller.Role != domain.RoleProvider {
		return domain.Booking{}, ErrForbidden
	}
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.ProviderID != caller.ID {
		return domain.Booking{}, ErrForbidden
	}
	return b, nil
}

func (s *Service) subjectBooking(ctx context.Context, caller Caller, bookingID uuid.UUID) (domain.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.SubjectID != caller.ID {
		return domain.Booking{}, ErrForbidden
	}
	return b, nil
}

// validateSlot parses and normalizes the (date, time) pair and rejects slots
// at or before the current minute.
func (s *Service) validateSlot(rawDate, rawTime string) (time.Time, string, error) {
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		return time.Time{}, "", validationError(err.Error())
	}
	slotTime, err := domain.ParseSlotTime(rawTime)
	if err != nil {
		return time.Time{}, "", validationError(err.Error())
	}
	if domain.SlotInPast(date, slotTime, s.now()) {
		return time.Time{}, "", validationError("cannot book a session in the past")
	}
	return date, slotTime, nil
}

func (s *Service) ensureInTemplate(ctx context.Context, providerID uuid.UUID, date time.Time, slotTime string) error {
	times, err := s.availability.DayTimes(ctx, providerID, domain.WeekdayOf(date))
	if err != nil {
		return err
	}
	if !domain.ContainsTime(times, slotTime) {
		return ErrSlotUnavailable
	}
	return nil
}

func (s *Service) withCounterparts(ctx context.Context, rows []domain.Booking, counterpartID func(domain.Booking) uuid.UUID) []BookingDetail {
	out := make([]BookingDetail, 0, len(rows))
	for _, b := range rows {
		d := BookingDetail{Booking: b}
		if u, err := s.users.Get(ctx, counterpartID(b)); err == nil {
			d.Counterpart = &u
		}
		out = append(out, d)
	}
	return out
}

func (s *Service) notifySubject(ctx context.Context, b domain.Booking, event notify.Event, message string) {
	subject, err := s.users.Get(ctx, b.SubjectID)
	if err != nil {
		s.log.Warn("notification recipient lookup failed",
			slog.String("booking_id", b.ID.String()),
			slog.Any("err", err),
		)
		return
	}
	s.notify(ctx, subject.Email, event, notify.Payload{
		Date:             domain.FormatDate(b.SessionDate),
		Time:             b.SessionTime,
		CounterpartyName: s.userName(ctx, b.ProviderID),
		Message:          message,
	})
}

// notify delivers fire-and-forget: a failed notification is logged and
// swallowed so it can never fail the mutation that triggered it.
func (s *Service) notify(ctx context.Context, recipient string, event notify.Event, p notify.Payload) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, event, p); err != nil {
		s.log.Warn("notification delivery failed",
			slog.String("event", string(event)),
			slog.Any("err", err),
		)
	}
}

func (s *Service) userName(ctx context.Context, id uuid.UUID) string {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return ""
	}
	return u.FullName()
}

package scheduling

import "errors"

// ValidationError marks malformed caller input: bad date or time format,
// off-grid times, past slots, non-positive price.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

var (
	// ErrForbidden: the caller is not the booking's owner, or lacks the
	// role the operation requires.
	ErrForbidden = errors.New("not allowed")

	// ErrInvalidRole: the referenced user exists but is not a provider.
	ErrInvalidRole = errors.New("selected user is not a provider")

	// ErrSlotUnavailable: the time is on the grid but not in the
	// provider's weekly template for that weekday.
	ErrSlotUnavailable = errors.New("provider is not available at that time")

	// ErrSlotTaken: another non-cancelled booking already occupies the
	// slot.
	ErrSlotTaken = errors.New("this time slot is already booked")

	// ErrInvalidState: the booking's current status does not admit the
	// requested transition.
	ErrInvalidState = errors.New("booking state does not allow this operation")
)

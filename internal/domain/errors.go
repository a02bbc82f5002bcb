package domain

import "errors"

// Error kinds surfaced by the reservation core. Services wrap them with
// fmt.Errorf("%w: ...") so callers can match with errors.Is.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("reservation not found")
	ErrRoomNotFound           = errors.New("room not found")
	ErrRoomUnavailable        = errors.New("room unavailable")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPayment                = errors.New("payment error")
	ErrForbidden              = errors.New("forbidden")
)

package service

import "errors"

// Domain errors surfaced to callers. Handlers map these onto HTTP statuses.
var (
	// ErrAlreadyActive rejects a claim while the user holds an open booking.
	ErrAlreadyActive = errors.New("user already has an active booking")
	// ErrNoAvailability rejects a claim against a lot with no free spot.
	ErrNoAvailability = errors.New("no free spot in this lot")
	// ErrBookingNotFound is returned for an unknown booking id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrNotOwner rejects a release of somebody else's booking.
	ErrNotOwner = errors.New("booking belongs to another user")
	// ErrLotNotFound is returned for an unknown lot id.
	ErrLotNotFound = errors.New("parking lot not found")
	// ErrDuplicateLotName rejects creating a lot whose name is taken.
	ErrDuplicateLotName = errors.New("parking lot name already exists")
	// ErrLotInUse rejects deleting a lot while any of its spots has an open booking.
	ErrLotInUse = errors.New("parking lot has active bookings")
	// ErrInvalidArgument rejects malformed input before any state change.
	ErrInvalidArgument = errors.New("invalid argument")
)

package domain

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrVehicleNotAvailable     = errors.New("vehicle is not available")
	ErrDropoffNotSet           = errors.New("dropoff stop not set")
	ErrStopInactive            = errors.New("stop is not active")
	ErrPendingCallExists       = errors.New("stop already has a pending call")
)

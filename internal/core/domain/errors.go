package domain

import "errors"

var (
	// ErrPriceMismatch is thrown when the client-submitted checkout total is
	// lower than the server-recomputed total by more than the tolerance band.
	// It aborts the checkout transaction and instructs the client to refresh.
	ErrPriceMismatch = errors.New("price has changed, please refresh and try again")

	// ErrRateNotFound means the selected carrier service id could not be
	// located in the recomputed rate set.
	ErrRateNotFound = errors.New("selected rate not found")

	ErrCarrierNotConfigured = errors.New("service not configured")
	ErrNoRatesAvailable     = errors.New("no rates available")
	ErrPaymentDeclined      = errors.New("payment declined")
	ErrMandatoryAddon       = errors.New("mandatory addon not selected")
	ErrInvalidInput         = errors.New("invalid input")

	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("access forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

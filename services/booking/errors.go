// File: services/booking/errors.go
package booking

import (
	"errors"
	"fmt"
)

// Reservation failures are classified after the conditional write loses, by
// re-reading the slot and its holds. The distinction matters to clients:
// ErrSlotFull is final for this slot, ErrSlotLocked means expired holds are
// pending sweep and a retry moments later may succeed.
var (
	// ErrSlotNotFound means the slot id resolves to nothing.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrSlotFull means every seat is taken by confirmed appointments or
	// live reservations.
	ErrSlotFull = errors.New("slot fully booked")
	// ErrSlotLocked means capacity is exhausted but some of it is held by
	// expired reservations the sweeper has not reclaimed yet.
	ErrSlotLocked = errors.New("slot temporarily locked")
	// ErrSlotUnavailable means the slot is blocked or otherwise not open
	// for booking.
	ErrSlotUnavailable = errors.New("slot not available for booking")
	// ErrSlotInPast means the slot's start time has already passed.
	ErrSlotInPast = errors.New("slot start time has passed")

	// ErrPaymentNotConfigured means no payment gateway is wired.
	ErrPaymentNotConfigured = errors.New("payment gateway not configured")
	// ErrPaymentNotPending means a payment retry was asked for an
	// appointment that is not waiting on payment.
	ErrPaymentNotPending = errors.New("appointment is not awaiting payment")
	// ErrReservationExpired means the hold lapsed before the operation.
	ErrReservationExpired = errors.New("reservation expired")

	// ErrRequestInFlight means the same idempotency key is mid-execution
	// on another request.
	ErrRequestInFlight = errors.New("request with this idempotency key is in flight")
	// ErrForbidden means the caller does not own the resource.
	ErrForbidden = errors.New("not allowed for this caller")
)

// PaymentProviderError wraps a gateway failure with the operation that hit it.
type PaymentProviderError struct {
	Op  string
	Err error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }

// RescheduleError reports which stage of a slot move failed. Stage
// "reserve" means the original booking is untouched; stage "swap" or
// "release" means the new seat was taken but cleanup may be pending.
type RescheduleError struct {
	Stage string
	Err   error
}

func (e *RescheduleError) Error() string {
	return fmt.Sprintf("reschedule failed at %s: %v", e.Stage, e.Err)
}

func (e *RescheduleError) Unwrap() error { return e.Err }

package models

import "time"

// BookingRequest starts the reserve-then-pay flow for one seat of a slot.
// IdempotencyKey is caller-supplied; replays with the same key return the
// original result instead of booking twice.
type BookingRequest struct {
	SlotID         string `json:"slot_id"`
	PatientID      string `json:"patient_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Notes          string `json:"notes,omitempty"`
}

// BookingResult is returned once the seat is held and the appointment row
// exists. Payment may still be outstanding; the appointment confirms when
// the gateway reports the order paid. If the gateway could not produce an
// order, PaymentIssue carries the machine-readable reason and the hold
// stays alive until its TTL so payment can be retried.
type BookingResult struct {
	Appointment  Appointment   `json:"appointment"`
	PaymentOrder *PaymentOrder `json:"payment_order,omitempty"`
	PaymentIssue string        `json:"payment_issue,omitempty"`
	ReservedTill time.Time     `json:"reserved_till"`
}

// CancelRequest asks for an appointment to be cancelled by the given actor.
type CancelRequest struct {
	AppointmentID  string      `json:"appointment_id"`
	Actor          CancelActor `json:"actor"`
	ActorID        string      `json:"actor_id"`
	Reason         string      `json:"reason,omitempty"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
}

// CancelResult reports the cancellation and any refund decided for it.
type CancelResult struct {
	Appointment Appointment   `json:"appointment"`
	Refund      *RefundRecord `json:"refund,omitempty"`
}

// RescheduleRequest moves an appointment to a different slot. The new seat
// is taken before the old one is given up, so a failed move leaves the
// patient exactly where they started.
type RescheduleRequest struct {
	AppointmentID  string `json:"appointment_id"`
	NewSlotID      string `json:"new_slot_id"`
	PatientID      string `json:"patient_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

package models

import "time"

// RefundType classifies the policy outcome of a cancellation.
type RefundType string

const (
	RefundFull    RefundType = "full"
	RefundPartial RefundType = "partial"
	RefundNone    RefundType = "none"
)

// RefundStatus tracks a refund record through settlement.
type RefundStatus string

const (
	RefundCreated   RefundStatus = "created"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

// RefundRecord is the audit row produced whenever a paid appointment is
// cancelled. Percent is the policy outcome at decision time; Amount and
// PlatformFeeRefund are the resulting money figures, rounded to two
// decimals. Zero-percent outcomes still get a record (type none), created
// directly in status processed since there is nothing to settle.
type RefundRecord struct {
	ID                string       `bson:"id" json:"id"`
	AppointmentID     string       `bson:"appointment_id" json:"appointment_id"`
	PatientID         string       `bson:"patient_id" json:"patient_id"`
	PaymentOrderID    string       `bson:"payment_order_id" json:"payment_order_id"`
	Actor             CancelActor  `bson:"actor" json:"actor"`
	LeadMinutes       int          `bson:"lead_minutes" json:"lead_minutes"`
	Type              RefundType   `bson:"type" json:"type"`
	Percent           int          `bson:"percent" json:"percent"`
	Amount            float64      `bson:"amount" json:"amount"`
	PlatformFeeRefund float64      `bson:"platform_fee_refund" json:"platform_fee_refund"`
	Currency          string       `bson:"currency" json:"currency"`
	Status            RefundStatus `bson:"status" json:"status"`
	FailureReason     string       `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	CreatedAt         time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `bson:"updated_at" json:"updated_at"`
}

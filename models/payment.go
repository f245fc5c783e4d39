package models

import "time"

// PaymentOrderStatus mirrors the gateway's view of an order.
type PaymentOrderStatus string

const (
	OrderCreated   PaymentOrderStatus = "created"
	OrderPaid      PaymentOrderStatus = "paid"
	OrderFailed    PaymentOrderStatus = "failed"
	OrderCancelled PaymentOrderStatus = "cancelled"
)

// OrderRequest is what the booking flow hands the payment gateway.
type OrderRequest struct {
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	AppointmentID string            `json:"appointment_id"`
	PatientID     string            `json:"patient_id"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PaymentOrder is the gateway-side order the patient pays against.
// ClientSecret is forwarded to the client SDK and never persisted.
type PaymentOrder struct {
	ID           string             `bson:"id" json:"id"`
	Provider     string             `bson:"provider" json:"provider"`
	Amount       float64            `bson:"amount" json:"amount"`
	Currency     string             `bson:"currency" json:"currency"`
	Status       PaymentOrderStatus `bson:"status" json:"status"`
	ClientSecret string             `bson:"-" json:"client_secret,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// PaymentEvent is a gateway webhook notification after signature
// verification, reduced to the fields the booking flow acts on.
type PaymentEvent struct {
	OrderID       string             `json:"order_id"`
	AppointmentID string             `json:"appointment_id"`
	Status        PaymentOrderStatus `json:"status"`
	Amount        float64            `json:"amount"`
	Currency      string             `json:"currency"`
	ReceivedAt    time.Time          `json:"received_at"`
}

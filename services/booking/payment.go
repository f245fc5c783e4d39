// File: services/booking/payment.go
package booking

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/roza-in/server/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// PaymentGateway is the booking flow's view of the payment provider: create
// an order for the patient to pay, and read an order's current state. The
// sweep uses FetchOrder to double-check before expiring a hold, so money
// captured moments before the timeout still lands on a confirmed booking.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.PaymentOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	Configured() bool
}

// StripeGateway implements PaymentGateway on Stripe PaymentIntents. The API
// key is the process-wide stripe.Key set at startup.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway { return &StripeGateway{} }

func (g *StripeGateway) Configured() bool { return stripe.Key != "" }

func (g *StripeGateway) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.PaymentOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("appointment_id", req.AppointmentID)
	params.AddMetadata("patient_id", req.PatientID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, &PaymentProviderError{Op: "create order", Err: err}
	}
	return fromIntent(pi), nil
}

func (g *StripeGateway) FetchOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(orderID, params)
	if err != nil {
		return nil, &PaymentProviderError{Op: "fetch order", Err: err}
	}
	return fromIntent(pi), nil
}

func fromIntent(pi *stripe.PaymentIntent) *models.PaymentOrder {
	return &models.PaymentOrder{
		ID:           pi.ID,
		Provider:     "stripe",
		Amount:       float64(pi.Amount) / 100,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Status:       orderStatus(pi.Status),
		ClientSecret: pi.ClientSecret,
		CreatedAt:    time.Unix(pi.Created, 0).UTC(),
	}
}

func orderStatus(s stripe.PaymentIntentStatus) models.PaymentOrderStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return models.OrderPaid
	case stripe.PaymentIntentStatusCanceled:
		return models.OrderCancelled
	default:
		return models.OrderCreated
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

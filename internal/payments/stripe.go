package payments

import (
	"context"
	"errors"
	"math"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/transfer"
)

// StripeGateway implements Gateway with PaymentIntent manual-capture holds
// and Transfers for driver payouts.
type StripeGateway struct {
	currency string
}

func NewStripeGateway(apiKey, currency string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{currency: currency}
}

func (g *StripeGateway) Authorize(ctx context.Context, amount float64, customerID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toCents(amount)),
		Currency:      stripe.String(g.currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

func (g *StripeGateway) Capture(ctx context.Context, authorizationID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	_, err := paymentintent.Capture(authorizationID, params)
	return err
}

func (g *StripeGateway) Void(ctx context.Context, authorizationID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := paymentintent.Cancel(authorizationID, params)
	if isAlreadyVoided(err) {
		return nil
	}
	return err
}

func (g *StripeGateway) Payout(ctx context.Context, account string, amount float64) error {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(toCents(amount)),
		Currency:    stripe.String(g.currency),
		Destination: stripe.String(account),
	}
	params.Context = ctx
	_, err := transfer.New(params)
	return err
}

// A hold that was already captured or cancelled reports an unexpected-state
// error; for Void that outcome is what the caller wanted.
func isAlreadyVoided(err error) bool {
	if err == nil {
		return false
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState
	}
	return false
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Package payments implements the external payment gateway the bail
// workflow delegates to, backed by Stripe Checkout Sessions. The session id
// doubles as the track token correlating a payment back to its bail.
package payments

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"

	"github.com/parsaivi/police-department-api/config"
)

// StripeGateway implements workflow.PaymentGateway over Stripe Checkout.
type StripeGateway struct {
	baseURL string
}

// NewStripeGateway sets the global stripe key from config and returns the
// gateway.
func NewStripeGateway(conf *config.Config) (*StripeGateway, error) {
	if conf.StripeSecretKey == "" {
		return nil, errors.New("stripe secret key is not set")
	}
	stripe.Key = conf.StripeSecretKey
	return &StripeGateway{baseURL: conf.BaseURL}, nil
}

// RequestPayment opens a checkout session for the given amount and returns
// the session id as the track token. callbackRef is carried as the client
// reference so the asynchronous callback can be correlated.
func (g *StripeGateway) RequestPayment(ctx context.Context, amount int64, callbackRef string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Bail payment"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(callbackRef),
		SuccessURL:        stripe.String(g.baseURL + "/api/v1/bails/payment/callback?track_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(g.baseURL + "/api/v1/bails/payment/cancelled"),
	}
	sess, err := session.New(params)
	if err != nil {
		return "", errors.Wrap(err, "create checkout session")
	}
	zap.S().Debugw("checkout session created", "sessionID", sess.ID, "amount", amount)
	return sess.ID, nil
}

// VerifyPayment retrieves the session for a track token and reports whether
// it has been paid.
func (g *StripeGateway) VerifyPayment(ctx context.Context, trackID string) (bool, error) {
	sess, err := session.Get(trackID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return false, errors.Wrapf(err, "retrieve checkout session %s", trackID)
	}
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}

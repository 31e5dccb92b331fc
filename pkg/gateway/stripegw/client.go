// Package stripegw adapts Stripe Checkout to the gateway interface.
package stripegw

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/webhook"

	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/gateway"
)

// Client drives Stripe Checkout sessions with an explicit secret key, so
// credentials resolved per request (settings row over environment) never
// touch the package-level global.
type Client struct {
	sessions *checkoutsession.Client
}

// New builds a Stripe gateway bound to the given secret key.
func New(secretKey string) *Client {
	return &Client{
		sessions: &checkoutsession.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
	}
}

var _ gateway.Gateway = (*Client)(nil)

// CreateSession opens a hosted Checkout session in payment mode. The order is
// represented as a single line item for the full total; the line breakdown
// stays on our side.
func (c *Client) CreateSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderNo),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(string(req.Currency))),
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_no", req.OrderNo)

	sess, err := c.sessions.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating stripe checkout session")
	}

	return &gateway.Session{
		ProviderRef: sess.ID,
		RedirectURL: sess.URL,
		Raw:         rawJSON(sess),
	}, nil
}

// Settle retrieves the session and reports whether Stripe collected payment.
func (c *Client) Settle(ctx context.Context, providerRef string) (*gateway.SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.sessions.Get(providerRef, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving stripe checkout session")
	}

	return StatusFromSession(sess), nil
}

// StatusFromSession maps a checkout session onto the gateway status. Webhook
// handling reuses it for sessions decoded from event payloads.
func StatusFromSession(sess *stripe.CheckoutSession) *gateway.SessionStatus {
	orderNo := sess.ClientReferenceID
	if orderNo == "" {
		orderNo = sess.Metadata["order_no"]
	}
	return &gateway.SessionStatus{
		Completed: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		OrderNo:   orderNo,
		Currency:  strings.ToUpper(string(sess.Currency)),
		Amount:    decimal.NewFromInt(sess.AmountTotal).Shift(-2),
		Raw:       rawJSON(sess),
	}
}

// VerifyEvent checks the webhook signature and decodes the event. Callers
// treat an error as a signature rejection.
func VerifyEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, secret)
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func rawJSON(sess *stripe.CheckoutSession) string {
	if sess == nil || sess.LastResponse == nil {
		return ""
	}
	return string(sess.LastResponse.RawJSON)
}

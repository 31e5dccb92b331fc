// Package paypalgw adapts PayPal Orders (hosted approval plus capture) to the
// gateway interface.
package paypalgw

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/gateway"
)

// Client drives PayPal orders through the REST SDK. A fresh client is built
// per request because credentials can come from the settings row.
type Client struct {
	pp *paypal.Client
}

// New builds a PayPal gateway for the given credentials. env is "sandbox" or
// "live"; anything else falls back to sandbox.
func New(clientID, clientSecret, env string) (*Client, error) {
	base := paypal.APIBaseSandBox
	if strings.EqualFold(env, "live") {
		base = paypal.APIBaseLive
	}

	pp, err := paypal.NewClient(clientID, clientSecret, base)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProviderNotConfigured, err, "building paypal client")
	}
	return &Client{pp: pp}, nil
}

var _ gateway.Gateway = (*Client)(nil)

// Verify performs a credential check by fetching an access token. The admin
// settings surface uses it to validate stored credentials before enabling the
// provider.
func (c *Client) Verify(ctx context.Context) error {
	if _, err := c.pp.GetAccessToken(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring paypal access token")
	}
	return nil
}

// CreateSession creates a CAPTURE-intent order and returns its approval link.
func (c *Client) CreateSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	if _, err := c.pp.GetAccessToken(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring paypal access token")
	}

	purchaseUnits := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: req.OrderNo,
			CustomID:    req.OrderNo,
			Description: req.Description,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: strings.ToUpper(string(req.Currency)),
				Value:    req.Amount.StringFixed(2),
			},
		},
	}
	applicationContext := &paypal.ApplicationContext{
		ReturnURL: req.SuccessURL,
		CancelURL: req.CancelURL,
	}

	order, err := c.pp.CreateOrder(ctx, paypal.OrderIntentCapture, purchaseUnits, nil, applicationContext)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating paypal order")
	}

	approvalURL := approvalLink(order)
	if approvalURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paypal order is missing an approval link")
	}

	return &gateway.Session{
		ProviderRef: order.ID,
		RedirectURL: approvalURL,
		Raw:         marshalRaw(order),
	}, nil
}

// Settle captures the approved order. PayPal only moves money at capture
// time, so this is the authoritative settlement call.
func (c *Client) Settle(ctx context.Context, providerRef string) (*gateway.SessionStatus, error) {
	if _, err := c.pp.GetAccessToken(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring paypal access token")
	}

	capture, err := c.pp.CaptureOrder(ctx, providerRef, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capturing paypal order")
	}

	status := &gateway.SessionStatus{
		Completed: capture.Status == "COMPLETED",
		Raw:       marshalRaw(capture),
	}

	for _, unit := range capture.PurchaseUnits {
		if status.OrderNo == "" {
			status.OrderNo = unit.ReferenceID
		}
		if unit.Payments == nil {
			continue
		}
		for _, cap := range unit.Payments.Captures {
			if cap.Amount == nil {
				continue
			}
			amount, err := decimal.NewFromString(cap.Amount.Value)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parsing paypal capture amount")
			}
			status.Amount = status.Amount.Add(amount)
			status.Currency = strings.ToUpper(cap.Amount.Currency)
			if status.OrderNo == "" {
				status.OrderNo = cap.CustomID
			}
		}
	}

	return status, nil
}

func approvalLink(order *paypal.Order) string {
	for _, link := range order.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

func marshalRaw(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

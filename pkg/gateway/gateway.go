// Package gateway abstracts hosted-checkout payment providers behind a small
// session interface. Adapters live in the stripegw and paypalgw subpackages.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// SessionRequest carries everything a provider needs to open a hosted
// checkout session for one order.
type SessionRequest struct {
	OrderNo     string
	Currency    enums.Currency
	Amount      decimal.Decimal
	Description string
	SuccessURL  string
	CancelURL   string
}

// Session is the provider-side handle for a freshly created checkout.
type Session struct {
	// ProviderRef identifies the session at the provider (Stripe session id,
	// PayPal order id).
	ProviderRef string
	// RedirectURL is where the buyer completes payment.
	RedirectURL string
	// Raw is the provider response payload, kept for diagnostics.
	Raw string
}

// SessionStatus is the provider's answer when settling a session. Amount and
// Currency reflect what the provider actually collected, never what we asked
// for.
type SessionStatus struct {
	Completed bool
	OrderNo   string
	Currency  string
	Amount    decimal.Decimal
	Raw       string
}

// Gateway is implemented once per provider.
type Gateway interface {
	// CreateSession opens a hosted checkout session.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// Settle fetches (and for capture-style providers, performs) the final
	// outcome of a session.
	Settle(ctx context.Context, providerRef string) (*SessionStatus, error)
}

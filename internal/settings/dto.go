package settings

import (
	"github.com/shopspring/decimal"

	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// PublicView is the storefront-facing slice of the settings row. It never
// carries credentials.
type PublicView struct {
	StripeEnabled      bool            `json:"stripe_enabled"`
	PayPalEnabled      bool            `json:"paypal_enabled"`
	DefaultCurrency    enums.Currency  `json:"default_currency"`
	DefaultShippingFee decimal.Decimal `json:"default_shipping_fee"`
}

// AdminView reports the full settings state. Credentials are reduced to a
// configured flag; plaintext never leaves the service.
type AdminView struct {
	StripeEnabled      bool            `json:"stripe_enabled"`
	PayPalEnabled      bool            `json:"paypal_enabled"`
	DefaultCurrency    enums.Currency  `json:"default_currency"`
	DefaultShippingFee decimal.Decimal `json:"default_shipping_fee"`
	PayPalEnv          string          `json:"paypal_env"`

	StripeSecretKeySet     bool `json:"stripe_secret_key_set"`
	StripeWebhookSecretSet bool `json:"stripe_webhook_secret_set"`
	PayPalClientIDSet      bool `json:"paypal_client_id_set"`
	PayPalClientSecretSet  bool `json:"paypal_client_secret_set"`
}

// UpdateInput carries a partial settings update. Nil fields are left
// untouched; empty credential strings store an explicit blank that disables
// the environment fallback.
type UpdateInput struct {
	StripeEnabled      *bool            `json:"stripe_enabled"`
	PayPalEnabled      *bool            `json:"paypal_enabled"`
	DefaultCurrency    *string          `json:"default_currency" validate:"omitempty,uppercase"`
	DefaultShippingFee *decimal.Decimal `json:"default_shipping_fee"`
	PayPalEnv          *string          `json:"paypal_env" validate:"omitempty,oneof=sandbox live"`

	StripeSecretKey     *string `json:"stripe_secret_key"`
	StripeWebhookSecret *string `json:"stripe_webhook_secret"`
	PayPalClientID      *string `json:"paypal_client_id"`
	PayPalClientSecret  *string `json:"paypal_client_secret"`
}

// Resolved is the effective runtime configuration after merging the settings
// row with environment fallbacks and decrypting stored credentials.
type Resolved struct {
	StripeEnabled      bool
	PayPalEnabled      bool
	DefaultCurrency    enums.Currency
	DefaultShippingFee decimal.Decimal

	StripeSecretKey     string
	StripeWebhookSecret string
	PayPalClientID      string
	PayPalClientSecret  string
	PayPalEnv           string
}

// StripeConfigured reports whether Stripe can be called at all.
func (r Resolved) StripeConfigured() bool {
	return r.StripeSecretKey != ""
}

// PayPalConfigured reports whether PayPal can be called at all.
func (r Resolved) PayPalConfigured() bool {
	return r.PayPalClientID != "" && r.PayPalClientSecret != ""
}

package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// ShopSettings is the single global settings row (get-or-create). Credential
// columns hold secretbox ciphertext. NULL means "unset, fall back to the
// environment"; empty string means "explicitly blank". The two states are
// intentionally distinct.
type ShopSettings struct {
	ID                 uint            `gorm:"column:id;primaryKey"`
	EnableStripe       enums.Toggle    `gorm:"column:enable_stripe;not null;default:'2'"`
	EnablePayPal       enums.Toggle    `gorm:"column:enable_paypal;not null;default:'2'"`
	DefaultCurrency    enums.Currency  `gorm:"column:default_currency;not null;default:'USD'"`
	DefaultShippingFee decimal.Decimal `gorm:"column:default_shipping_fee;type:numeric(10,2);not null;default:0"`
	PayPalEnv          string          `gorm:"column:paypal_env;default:'sandbox'"`

	StripeSecretKeyEnc     *string `gorm:"column:stripe_secret_key_enc"`
	StripeWebhookSecretEnc *string `gorm:"column:stripe_webhook_secret_enc"`
	PayPalClientIDEnc      *string `gorm:"column:paypal_client_id_enc"`
	PayPalClientSecretEnc  *string `gorm:"column:paypal_client_secret_enc"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

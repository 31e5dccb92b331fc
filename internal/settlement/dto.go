package settlement

import (
	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// InitiateInput asks for a hosted checkout session on a pending order.
type InitiateInput struct {
	OrderNo    string                `json:"order_no" validate:"required"`
	QueryToken string                `json:"query_token" validate:"required"`
	Provider   enums.PaymentProvider `json:"-"`
}

// InitiateResult carries the provider handle the storefront redirects to.
type InitiateResult struct {
	Provider    enums.PaymentProvider `json:"provider"`
	ProviderRef string                `json:"provider_ref"`
	RedirectURL string                `json:"redirect_url"`
}

// ConfirmInput reports the buyer's return from the provider. ProviderRef is
// optional; when absent the latest open attempt for the provider is used.
type ConfirmInput struct {
	OrderNo     string                `json:"order_no" validate:"required"`
	QueryToken  string                `json:"query_token" validate:"required"`
	ProviderRef string                `json:"provider_ref"`
	Provider    enums.PaymentProvider `json:"-"`
}

// ConfirmResult is the settlement outcome. Warning is set when the order was
// paid but its inventory deduction failed and needs manual follow-up.
type ConfirmResult struct {
	OrderNo string            `json:"order_no"`
	Status  enums.OrderStatus `json:"status"`
	Warning string            `json:"warning,omitempty"`
}

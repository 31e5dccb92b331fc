package settlement

import (
	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/gateway"
	"github.com/avelarde/shopfront-backend/pkg/gateway/paypalgw"
	"github.com/avelarde/shopfront-backend/pkg/gateway/stripegw"
)

type gatewayFactory struct{}

// NewGatewayFactory builds provider adapters from resolved credentials. A new
// adapter per call keeps settings changes effective without a restart.
func NewGatewayFactory() GatewayFactory {
	return gatewayFactory{}
}

func (gatewayFactory) ForProvider(provider enums.PaymentProvider, resolved *settings.Resolved) (gateway.Gateway, error) {
	switch provider {
	case enums.ProviderStripe:
		if !resolved.StripeConfigured() {
			return nil, pkgerrors.New(pkgerrors.CodeProviderNotConfigured, "stripe credentials are not configured")
		}
		return stripegw.New(resolved.StripeSecretKey), nil

	case enums.ProviderPayPal:
		if !resolved.PayPalConfigured() {
			return nil, pkgerrors.New(pkgerrors.CodeProviderNotConfigured, "paypal credentials are not configured")
		}
		return paypalgw.New(resolved.PayPalClientID, resolved.PayPalClientSecret, resolved.PayPalEnv)

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
}

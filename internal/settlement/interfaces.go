package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	"github.com/avelarde/shopfront-backend/pkg/gateway"
)

// Repository covers the order and payment persistence settlement needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderByNoAndToken(ctx context.Context, orderNo, queryToken string) (*models.Order, error)
	FindOrderByNo(ctx context.Context, orderNo string) (*models.Order, error)
	// LockOrderByNo loads the order with its items under a row lock where the
	// dialect supports one.
	LockOrderByNo(ctx context.Context, orderNo string) (*models.Order, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	// FindOpenPayment returns the newest created/pending attempt for the
	// provider, optionally pinned to a provider ref.
	FindOpenPayment(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider, providerRef string) (*models.Payment, error)
	FindPaymentByRef(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider, providerRef string) (*models.Payment, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// GatewayFactory builds a provider adapter from resolved credentials.
type GatewayFactory interface {
	ForProvider(provider enums.PaymentProvider, resolved *settings.Resolved) (gateway.Gateway, error)
}

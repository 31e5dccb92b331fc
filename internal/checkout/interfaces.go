package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
)

// Repository covers the reads and writes checkout needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrderByNoAndToken(ctx context.Context, orderNo, queryToken string) (*models.Order, error)
}

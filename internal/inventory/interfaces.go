package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
)

// Repository covers the locked reads and stock writes deduction needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// LockProduct loads the product under a row lock where the dialect
	// supports one.
	LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	LockVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	UpdateProductStock(ctx context.Context, id uuid.UUID, stock int) error
	UpdateVariantStock(ctx context.Context, id uuid.UUID, stock int) error
	MarkOrderDeducted(ctx context.Context, orderID uuid.UUID) error
}

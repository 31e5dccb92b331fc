package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
)

// Repository persists the single settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Get returns the settings row, creating it with defaults on first use.
	Get(ctx context.Context) (*models.ShopSettings, error)
	Save(ctx context.Context, row *models.ShopSettings) error
}

package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
)

const settingsRowID = 1

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context) (*models.ShopSettings, error) {
	row := models.ShopSettings{
		ID:              settingsRowID,
		EnableStripe:    enums.ToggleOff,
		EnablePayPal:    enums.ToggleOff,
		DefaultCurrency: enums.CurrencyUSD,
		PayPalEnv:       "sandbox",
	}
	err := r.db.WithContext(ctx).
		Where(models.ShopSettings{ID: settingsRowID}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Save(ctx context.Context, row *models.ShopSettings) error {
	return r.db.WithContext(ctx).Save(row).Error
}

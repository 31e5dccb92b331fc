package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// ProductVariant (SKU) optionally overrides price, stock and availability of
// its parent product.
type ProductVariant struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	SkuCode   string              `gorm:"column:sku_code"`
	Attrs     *string             `gorm:"column:attrs"`
	Price     *decimal.Decimal    `gorm:"column:price;type:numeric(10,2)"`
	Stock     int                 `gorm:"column:stock;not null;default:0"`
	Cover     string              `gorm:"column:cover"`
	Status    enums.VariantStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

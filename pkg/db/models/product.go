package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a storefront listing. Stock is only mutated under row locks via
// the inventory deductor; TrackStock=false means stock is not enforced.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Title       string           `gorm:"column:title;not null"`
	Description *string          `gorm:"column:description"`
	Cover       string           `gorm:"column:cover"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	TrackStock  bool             `gorm:"column:track_stock;not null;default:false"`
	Stock       int              `gorm:"column:stock;not null;default:0"`
	// IsActive carries no column default so an explicit false survives insert.
	IsActive  bool             `gorm:"column:is_active;not null"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is the immutable snapshot of one order line. Product/variant
// references are historical pointers only (SET NULL on delete); the snapshot
// columns are authoritative for money and display.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID     *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	TitleSnapshot string          `gorm:"column:title_snapshot;not null"`
	CoverSnapshot string          `gorm:"column:cover_snapshot"`
	AttrsSnapshot *string         `gorm:"column:attrs_snapshot"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	LineTotal     decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// Order is a guest purchase. Totals are computed from the line items at
// creation time and never re-trusted from client input afterwards.
type Order struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNo string    `gorm:"column:order_no;uniqueIndex;not null"`
	// QueryToken is the bearer capability for guest lookup; it replaces
	// account auth for this flow.
	QueryToken        string            `gorm:"column:query_token;uniqueIndex;not null"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Currency          enums.Currency    `gorm:"column:currency;not null"`
	Subtotal          decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ShippingFee       decimal.Decimal   `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	Total             decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	CustomerEmail     string            `gorm:"column:customer_email"`
	CustomerPhone     string            `gorm:"column:customer_phone"`
	InventoryDeducted bool              `gorm:"column:inventory_deducted;not null;default:false"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments          []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

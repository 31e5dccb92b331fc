package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// Payment records one provider-specific attempt at collecting money for an
// order. Retries and provider switches create new rows; at most one row per
// order should ever reach paid.
type Payment struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Provider    enums.PaymentProvider `gorm:"column:provider;not null"`
	Status      enums.PaymentStatus   `gorm:"column:status;not null;default:'created'"`
	ProviderRef string                `gorm:"column:provider_ref;index"`
	// Raw keeps the provider response or error payload for diagnostics.
	Raw       string    `gorm:"column:raw;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

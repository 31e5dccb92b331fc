package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	"github.com/avelarde/shopfront-backend/pkg/pagination"
)

// VariantInput creates or replaces one SKU under a product.
type VariantInput struct {
	SkuCode string           `json:"sku_code"`
	Attrs   *string          `json:"attrs"`
	Price   *decimal.Decimal `json:"price"`
	Stock   int              `json:"stock" validate:"gte=0"`
	Cover   string           `json:"cover"`
	Active  *bool            `json:"active"`
}

// CreateInput is the admin product creation payload.
type CreateInput struct {
	Title       string          `json:"title" validate:"required"`
	Description *string         `json:"description"`
	Cover       string          `json:"cover"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	TrackStock  bool            `json:"track_stock"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"is_active"`
	Variants    []VariantInput  `json:"variants" validate:"dive"`
}

// UpdateInput is a partial admin product update. Nil fields stay untouched.
type UpdateInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Cover       *string          `json:"cover"`
	Price       *decimal.Decimal `json:"price"`
	TrackStock  *bool            `json:"track_stock"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active"`
}

// ListParams filters product listings. ActiveOnly is forced for the
// storefront surface.
type ListParams struct {
	ActiveOnly bool
	Page       pagination.Params
}

// VariantView is the API shape of one SKU.
type VariantView struct {
	ID      uuid.UUID           `json:"id"`
	SkuCode string              `json:"sku_code"`
	Attrs   *string             `json:"attrs"`
	Price   *decimal.Decimal    `json:"price"`
	Stock   int                 `json:"stock"`
	Cover   string              `json:"cover"`
	Status  enums.VariantStatus `json:"status"`
}

// View is the API shape of a product with its variants.
type View struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Cover       string          `json:"cover"`
	Price       decimal.Decimal `json:"price"`
	TrackStock  bool            `json:"track_stock"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	Variants    []VariantView   `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewView maps a persisted product onto the API shape.
func NewView(product *models.Product) *View {
	view := &View{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Cover:       product.Cover,
		Price:       product.Price,
		TrackStock:  product.TrackStock,
		Stock:       product.Stock,
		IsActive:    product.IsActive,
		Variants:    make([]VariantView, 0, len(product.Variants)),
		CreatedAt:   product.CreatedAt,
	}
	for _, variant := range product.Variants {
		view.Variants = append(view.Variants, VariantView{
			ID:      variant.ID,
			SkuCode: variant.SkuCode,
			Attrs:   variant.Attrs,
			Price:   variant.Price,
			Stock:   variant.Stock,
			Cover:   variant.Cover,
			Status:  variant.Status,
		})
	}
	return view
}

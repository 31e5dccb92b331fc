package inventory

import (
	"context"
	stdErrors "errors"
	"sort"

	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

// Deductor performs the binding stock deduction at settlement time.
type Deductor interface {
	// Deduct runs inside the caller's transaction and is all or nothing: any
	// failed line leaves every stock level untouched. A second call for the
	// same order is a no-op once the deducted latch is set.
	Deduct(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type deductor struct {
	repo Repository
	logg *logger.Logger
}

// NewDeductor wires the inventory deductor.
func NewDeductor(repo Repository, logg *logger.Logger) Deductor {
	return &deductor{repo: repo, logg: logg}
}

func (d *deductor) Deduct(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order.InventoryDeducted {
		return nil
	}

	repo := d.repo.WithTx(tx)

	// Lock rows in item id order so concurrent settlements cannot deadlock.
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID.String() < items[j].ID.String()
	})

	for _, item := range items {
		if err := d.deductLine(ctx, repo, item); err != nil {
			return err
		}
	}

	if err := repo.MarkOrderDeducted(ctx, order.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order deducted")
	}
	order.InventoryDeducted = true

	ctx = d.logg.WithOrderNo(ctx, order.OrderNo)
	d.logg.Info(ctx, "inventory deducted")
	return nil
}

func (d *deductor) deductLine(ctx context.Context, repo Repository, item models.OrderItem) error {
	// Lines whose product was since deleted have nothing left to deduct.
	if item.ProductID == nil {
		return nil
	}

	product, err := repo.LockProduct(ctx, *item.ProductID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking product")
	}
	// TrackStock is a product-level switch: variant stock on a non-tracking
	// product is informational only.
	if !product.TrackStock {
		return nil
	}

	if item.VariantID != nil {
		return d.deductVariantLine(ctx, repo, item)
	}

	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeSkuInactive, "product is not available").
			WithDetails(map[string]string{"product_id": product.ID.String()})
	}
	if product.Stock < item.Quantity {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": product.ID.String(), "available": product.Stock})
	}
	if err := repo.UpdateProductStock(ctx, product.ID, product.Stock-item.Quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product stock")
	}
	return nil
}

func (d *deductor) deductVariantLine(ctx context.Context, repo Repository, item models.OrderItem) error {
	variant, err := repo.LockVariant(ctx, *item.VariantID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeSkuInactive, "variant no longer exists").
				WithDetails(map[string]string{"variant_id": item.VariantID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking variant")
	}
	if variant.Status != enums.VariantStatusActive {
		return pkgerrors.New(pkgerrors.CodeSkuInactive, "variant is not available").
			WithDetails(map[string]string{"variant_id": variant.ID.String()})
	}
	if variant.Stock < item.Quantity {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
			WithDetails(map[string]any{"variant_id": variant.ID.String(), "available": variant.Stock})
	}
	if err := repo.UpdateVariantStock(ctx, variant.ID, variant.Stock-item.Quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating variant stock")
	}
	return nil
}

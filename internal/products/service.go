package products

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers both the storefront catalog reads and the admin CRUD.
type Service interface {
	List(ctx context.Context, params ListParams) (*pagination.Result[View], error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	Create(ctx context.Context, input CreateInput) (*View, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*View, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceVariants(ctx context.Context, productID uuid.UUID, inputs []VariantInput) (*View, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService wires the products service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, logg: logg}
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Result[View], error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *NewView(&rows[i]))
	}
	result := pagination.NewResult(views, total, params.Page)
	return &result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(product), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	product := &models.Product{
		Title:       input.Title,
		Description: input.Description,
		Cover:       input.Cover,
		Price:       input.Price,
		TrackStock:  input.TrackStock,
		Stock:       input.Stock,
		IsActive:    true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	for _, v := range input.Variants {
		variant, err := buildVariant(v)
		if err != nil {
			return nil, err
		}
		product.Variants = append(product.Variants, *variant)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	return NewView(product), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*View, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Cover != nil {
		product.Cover = *input.Cover
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.TrackStock != nil {
		product.TrackStock = *input.TrackStock
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return NewView(product), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product deleted")
	return nil
}

// ReplaceVariants swaps the product's SKU set atomically. Existing order
// items keep their snapshots; their variant references null out.
func (s *service) ReplaceVariants(ctx context.Context, productID uuid.UUID, inputs []VariantInput) (*View, error) {
	product, err := s.find(ctx, productID)
	if err != nil {
		return nil, err
	}

	variants := make([]models.ProductVariant, 0, len(inputs))
	for _, v := range inputs {
		variant, err := buildVariant(v)
		if err != nil {
			return nil, err
		}
		variant.ProductID = product.ID
		variants = append(variants, *variant)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceVariants(ctx, product.ID, variants)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing variants")
	}

	product.Variants = variants
	return NewView(product), nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}

func buildVariant(input VariantInput) (*models.ProductVariant, error) {
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant stock must not be negative")
	}

	variant := &models.ProductVariant{
		SkuCode: input.SkuCode,
		Attrs:   input.Attrs,
		Price:   input.Price,
		Stock:   input.Stock,
		Cover:   input.Cover,
		Status:  enums.VariantStatusActive,
	}
	if input.Active != nil && !*input.Active {
		variant.Status = enums.VariantStatusDisabled
	}
	return variant, nil
}

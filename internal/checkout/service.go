package checkout

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type settingsResolver interface {
	Resolve(ctx context.Context) (*settings.Resolved, error)
}

type createdNotifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// Service creates guest orders and serves token-based lookups.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderView, error)
	Query(ctx context.Context, orderNo, queryToken string) (*OrderView, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	settings settingsResolver
	notifier createdNotifier
	logg     *logger.Logger
}

// NewService wires the checkout service. notifier may be nil.
func NewService(repo Repository, tx txRunner, settings settingsResolver, notifier createdNotifier, logg *logger.Logger) Service {
	return &service{
		repo:     repo,
		tx:       tx,
		settings: settings,
		notifier: notifier,
		logg:     logg,
	}
}

// Create validates the requested lines, snapshots pricing and persists the
// order with its items in one transaction. Stock checks here are advisory;
// the binding deduction happens at settlement.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if input.CustomerEmail == "" && input.CustomerPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a customer email or phone is required")
	}
	if input.ShippingFee != nil && input.ShippingFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping fee must not be negative")
	}

	resolved, err := s.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	currency := resolved.DefaultCurrency
	if input.Currency != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
				WithDetails(map[string]string{"currency": input.Currency})
		}
		currency = parsed
	}

	orderNo, err := NewOrderNo()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
	}
	queryToken, err := NewQueryToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating query token")
	}

	shippingFee := resolved.DefaultShippingFee
	if input.ShippingFee != nil {
		shippingFee = *input.ShippingFee
	}

	order := &models.Order{
		OrderNo:       orderNo,
		QueryToken:    queryToken,
		Status:        enums.OrderStatusPending,
		Currency:      currency,
		ShippingFee:   shippingFee,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		subtotal := decimal.Zero
		for _, line := range input.Items {
			item, err := s.buildLine(ctx, repo, line)
			if err != nil {
				return err
			}
			subtotal = subtotal.Add(item.LineTotal)
			order.Items = append(order.Items, *item)
		}

		order.Subtotal = subtotal
		order.Total = subtotal.Add(order.ShippingFee)

		return repo.CreateOrder(ctx, order)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	ctx = s.logg.WithOrderNo(ctx, order.OrderNo)
	s.logg.Info(ctx, "order created")
	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, order)
	}

	return NewOrderView(order), nil
}

// buildLine resolves one requested line against the catalog and produces its
// immutable snapshot.
func (s *service) buildLine(ctx context.Context, repo Repository, line LineInput) (*models.OrderItem, error) {
	if line.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := repo.FindProductByID(ctx, line.ProductID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"product_id": line.ProductID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeSkuInactive, "product is not available").
			WithDetails(map[string]string{"product_id": product.ID.String()})
	}

	item := &models.OrderItem{
		ProductID:     ptrUUID(product.ID),
		TitleSnapshot: product.Title,
		CoverSnapshot: product.Cover,
		UnitPrice:     product.Price,
		Quantity:      line.Quantity,
	}

	if line.VariantID != nil {
		variant, err := repo.FindVariantByID(ctx, *line.VariantID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
					WithDetails(map[string]string{"variant_id": line.VariantID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant")
		}
		if variant.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product").
				WithDetails(map[string]string{"variant_id": variant.ID.String()})
		}
		if variant.Status != enums.VariantStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeSkuInactive, "variant is not available").
				WithDetails(map[string]string{"variant_id": variant.ID.String()})
		}
		if variant.Stock < line.Quantity {
			return nil, outOfStock("variant_id", variant.ID, variant.Stock)
		}
		item.VariantID = ptrUUID(variant.ID)
		item.AttrsSnapshot = variant.Attrs
		if variant.Cover != "" {
			item.CoverSnapshot = variant.Cover
		}
		if variant.Price != nil {
			item.UnitPrice = *variant.Price
		}
	} else if product.TrackStock && product.Stock < line.Quantity {
		return nil, outOfStock("product_id", product.ID, product.Stock)
	}

	item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	return item, nil
}

// Query returns the order only when both the number and the token match, so a
// miss on either is indistinguishable from a missing order.
func (s *service) Query(ctx context.Context, orderNo, queryToken string) (*OrderView, error) {
	if orderNo == "" || queryToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_no and query_token are required")
	}

	order, err := s.repo.FindOrderByNoAndToken(ctx, orderNo, queryToken)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	return NewOrderView(order), nil
}

func outOfStock(key string, id uuid.UUID, available int) error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
		WithDetails(map[string]string{
			key:         id.String(),
			"available": fmt.Sprintf("%d", available),
		})
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	v := id
	return &v
}

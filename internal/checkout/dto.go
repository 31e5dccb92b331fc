package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// LineInput is one requested order line.
type LineInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the guest checkout request body. ShippingFee overrides
// the shop default when present; at least one contact field is required so a
// settled order is reachable.
type CreateOrderInput struct {
	Items         []LineInput      `json:"items" validate:"required,min=1,dive"`
	Currency      string           `json:"currency"`
	ShippingFee   *decimal.Decimal `json:"shipping_fee"`
	CustomerEmail string           `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string           `json:"customer_phone"`
}

// ItemView is the order line as returned to the storefront.
type ItemView struct {
	ProductID *uuid.UUID      `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id"`
	Title     string          `json:"title"`
	Cover     string          `json:"cover"`
	Attrs     *string         `json:"attrs"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PaymentView is the payment attempt summary exposed on order lookup.
type PaymentView struct {
	Provider  enums.PaymentProvider `json:"provider"`
	Status    enums.PaymentStatus   `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

// OrderView is the guest-visible order representation. QueryToken is the
// caller's capability for later lookups, so it is echoed back.
type OrderView struct {
	OrderNo     string            `json:"order_no"`
	QueryToken  string            `json:"query_token"`
	Status      enums.OrderStatus `json:"status"`
	Currency    enums.Currency    `json:"currency"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	ShippingFee decimal.Decimal   `json:"shipping_fee"`
	Total       decimal.Decimal   `json:"total"`
	Items       []ItemView        `json:"items"`
	Payments    []PaymentView     `json:"payments,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewOrderView maps a persisted order onto the storefront shape.
func NewOrderView(order *models.Order) *OrderView {
	view := &OrderView{
		OrderNo:     order.OrderNo,
		QueryToken:  order.QueryToken,
		Status:      order.Status,
		Currency:    order.Currency,
		Subtotal:    order.Subtotal,
		ShippingFee: order.ShippingFee,
		Total:       order.Total,
		Items:       make([]ItemView, 0, len(order.Items)),
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, ItemView{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     item.TitleSnapshot,
			Cover:     item.CoverSnapshot,
			Attrs:     item.AttrsSnapshot,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	for _, payment := range order.Payments {
		view.Payments = append(view.Payments, PaymentView{
			Provider:  payment.Provider,
			Status:    payment.Status,
			CreatedAt: payment.CreatedAt,
		})
	}
	return view
}

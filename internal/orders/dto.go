package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	"github.com/avelarde/shopfront-backend/pkg/pagination"
)

// ListParams filters the admin order list. Keyword matches against the
// order number and the customer email.
type ListParams struct {
	Status  enums.OrderStatus
	Keyword string
	Page    pagination.Params
}

// PaymentListParams filters the admin payment list.
type PaymentListParams struct {
	Provider enums.PaymentProvider
	Status   enums.PaymentStatus
	Page     pagination.Params
}

// PaymentSummary is one row of the admin payment list.
type PaymentSummary struct {
	ID          uuid.UUID             `json:"id"`
	OrderID     uuid.UUID             `json:"order_id"`
	Provider    enums.PaymentProvider `json:"provider"`
	Status      enums.PaymentStatus   `json:"status"`
	ProviderRef string                `json:"provider_ref"`
	CreatedAt   time.Time             `json:"created_at"`
}

func newPaymentSummary(payment *models.Payment) PaymentSummary {
	return PaymentSummary{
		ID:          payment.ID,
		OrderID:     payment.OrderID,
		Provider:    payment.Provider,
		Status:      payment.Status,
		ProviderRef: payment.ProviderRef,
		CreatedAt:   payment.CreatedAt,
	}
}

// Summary is one row of the admin order list.
type Summary struct {
	ID                uuid.UUID         `json:"id"`
	OrderNo           string            `json:"order_no"`
	Status            enums.OrderStatus `json:"status"`
	Currency          enums.Currency    `json:"currency"`
	Total             decimal.Decimal   `json:"total"`
	CustomerEmail     string            `json:"customer_email"`
	InventoryDeducted bool              `json:"inventory_deducted"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ItemDetail is one order line in the admin detail view.
type ItemDetail struct {
	ProductID *uuid.UUID      `json:"product_id"`
	VariantID *uuid.UUID      `json:"variant_id"`
	Title     string          `json:"title"`
	Attrs     *string         `json:"attrs"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PaymentDetail is one payment attempt in the admin detail view.
type PaymentDetail struct {
	ID          uuid.UUID             `json:"id"`
	Provider    enums.PaymentProvider `json:"provider"`
	Status      enums.PaymentStatus   `json:"status"`
	ProviderRef string                `json:"provider_ref"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Detail is the full admin order view.
type Detail struct {
	Summary
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	CustomerPhone string          `json:"customer_phone"`
	Items         []ItemDetail    `json:"items"`
	Payments      []PaymentDetail `json:"payments"`
}

func newSummary(order *models.Order) Summary {
	return Summary{
		ID:                order.ID,
		OrderNo:           order.OrderNo,
		Status:            order.Status,
		Currency:          order.Currency,
		Total:             order.Total,
		CustomerEmail:     order.CustomerEmail,
		InventoryDeducted: order.InventoryDeducted,
		CreatedAt:         order.CreatedAt,
	}
}

func newDetail(order *models.Order) *Detail {
	detail := &Detail{
		Summary:       newSummary(order),
		Subtotal:      order.Subtotal,
		ShippingFee:   order.ShippingFee,
		CustomerPhone: order.CustomerPhone,
		Items:         make([]ItemDetail, 0, len(order.Items)),
		Payments:      make([]PaymentDetail, 0, len(order.Payments)),
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, ItemDetail{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     item.TitleSnapshot,
			Attrs:     item.AttrsSnapshot,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	for _, payment := range order.Payments {
		detail.Payments = append(detail.Payments, PaymentDetail{
			ID:          payment.ID,
			Provider:    payment.Provider,
			Status:      payment.Status,
			ProviderRef: payment.ProviderRef,
			CreatedAt:   payment.CreatedAt,
		})
	}
	return detail
}

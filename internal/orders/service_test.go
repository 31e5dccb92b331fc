package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/pagination"
)

func newOrdersService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:orders_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	))
	return NewService(NewRepository(conn), logger.New(logger.Options{ServiceName: "test"})), conn
}

func seedAdminOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNo:    "OD" + uuid.NewString()[:14],
		QueryToken: uuid.NewString(),
		Status:     status,
		Currency:   enums.CurrencyUSD,
		Subtotal:   decimal.RequireFromString("10.00"),
		Total:      decimal.RequireFromString("10.00"),
		Items: []models.OrderItem{{
			TitleSnapshot: "Ceramic Mug",
			UnitPrice:     decimal.RequireFromString("10.00"),
			Quantity:      1,
			LineTotal:     decimal.RequireFromString("10.00"),
		}},
		CreatedAt: created,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}

func TestListFiltersByStatus(t *testing.T) {
	svc, conn := newOrdersService(t)

	now := time.Now().UTC()
	seedAdminOrder(t, conn, enums.OrderStatusPending, now.Add(-2*time.Hour))
	paid := seedAdminOrder(t, conn, enums.OrderStatusPaid, now.Add(-time.Hour))
	seedAdminOrder(t, conn, enums.OrderStatusCanceled, now)

	result, err := svc.List(context.Background(), ListParams{Status: enums.OrderStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, paid.OrderNo, result.Items[0].OrderNo)

	all, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
}

func TestListPaginates(t *testing.T) {
	svc, conn := newOrdersService(t)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seedAdminOrder(t, conn, enums.OrderStatusPending, now.Add(time.Duration(-i)*time.Minute))
	}

	page, err := svc.List(context.Background(), ListParams{Page: pagination.Params{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
}

func TestListMatchesKeyword(t *testing.T) {
	svc, conn := newOrdersService(t)

	now := time.Now().UTC()
	target := seedAdminOrder(t, conn, enums.OrderStatusPaid, now)
	require.NoError(t, conn.Model(target).Update("customer_email", "alice@example.com").Error)
	other := seedAdminOrder(t, conn, enums.OrderStatusPaid, now)
	require.NoError(t, conn.Model(other).Update("customer_email", "bob@example.com").Error)

	byEmail, err := svc.List(context.Background(), ListParams{Keyword: "alice"})
	require.NoError(t, err)
	require.Len(t, byEmail.Items, 1)
	assert.Equal(t, target.OrderNo, byEmail.Items[0].OrderNo)

	byOrderNo, err := svc.List(context.Background(), ListParams{Keyword: other.OrderNo})
	require.NoError(t, err)
	require.Len(t, byOrderNo.Items, 1)
	assert.Equal(t, other.OrderNo, byOrderNo.Items[0].OrderNo)

	none, err := svc.List(context.Background(), ListParams{Keyword: "carol"})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newOrdersService(t)

	_, err := svc.List(context.Background(), ListParams{Status: "shipped"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetReturnsDetail(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedAdminOrder(t, conn, enums.OrderStatusPaid, time.Now().UTC())

	detail, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNo, detail.OrderNo)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Ceramic Mug", detail.Items[0].Title)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdvanceFollowsFulfillmentChain(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedAdminOrder(t, conn, enums.OrderStatusPaid, time.Now().UTC())

	detail, err := svc.Advance(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFulfilled, detail.Status)

	detail, err = svc.Advance(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, detail.Status)

	_, err = svc.Advance(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestAdvanceRejectsPendingOrder(t *testing.T) {
	svc, conn := newOrdersService(t)

	order := seedAdminOrder(t, conn, enums.OrderStatusPending, time.Now().UTC())

	_, err := svc.Advance(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCancelOnlyPendingOrders(t *testing.T) {
	svc, conn := newOrdersService(t)

	pending := seedAdminOrder(t, conn, enums.OrderStatusPending, time.Now().UTC())
	paid := seedAdminOrder(t, conn, enums.OrderStatusPaid, time.Now().UTC())

	detail, err := svc.Cancel(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCanceled, detail.Status)

	_, err = svc.Cancel(context.Background(), paid.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func seedPayment(t *testing.T, conn *gorm.DB, order *models.Order, provider enums.PaymentProvider, status enums.PaymentStatus, created time.Time) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		OrderID:     order.ID,
		Provider:    provider,
		Status:      status,
		ProviderRef: "ref_" + uuid.NewString()[:8],
		CreatedAt:   created,
	}
	require.NoError(t, conn.Create(payment).Error)
	return payment
}

func TestListPaymentsFilters(t *testing.T) {
	svc, conn := newOrdersService(t)

	now := time.Now().UTC()
	order := seedAdminOrder(t, conn, enums.OrderStatusPaid, now)
	stripePaid := seedPayment(t, conn, order, enums.ProviderStripe, enums.PaymentStatusPaid, now.Add(-time.Minute))
	seedPayment(t, conn, order, enums.ProviderStripe, enums.PaymentStatusFailed, now.Add(-2*time.Minute))
	paypalPending := seedPayment(t, conn, order, enums.ProviderPayPal, enums.PaymentStatusPending, now)

	all, err := svc.ListPayments(context.Background(), PaymentListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	require.Len(t, all.Items, 3)
	assert.Equal(t, paypalPending.ID, all.Items[0].ID, "newest first")

	byStatus, err := svc.ListPayments(context.Background(), PaymentListParams{Status: enums.PaymentStatusPaid})
	require.NoError(t, err)
	require.Len(t, byStatus.Items, 1)
	assert.Equal(t, stripePaid.ID, byStatus.Items[0].ID)
	assert.Equal(t, order.ID, byStatus.Items[0].OrderID)

	byProvider, err := svc.ListPayments(context.Background(), PaymentListParams{Provider: enums.ProviderStripe})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byProvider.Total)
}

func TestListPaymentsRejectsUnknownFilters(t *testing.T) {
	svc, _ := newOrdersService(t)

	_, err := svc.ListPayments(context.Background(), PaymentListParams{Provider: "square"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.ListPayments(context.Background(), PaymentListParams{Status: "refunded"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

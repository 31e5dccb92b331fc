package settlement

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/internal/inventory"
	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/pkg/db"
	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/gateway"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/metrics"
)

type stubGateway struct {
	mu         sync.Mutex
	session    gateway.Session
	status     gateway.SessionStatus
	settleErr  error
	settleRefs []string
}

func (g *stubGateway) CreateSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	out := g.session
	return &out, nil
}

func (g *stubGateway) Settle(ctx context.Context, providerRef string) (*gateway.SessionStatus, error) {
	g.mu.Lock()
	g.settleRefs = append(g.settleRefs, providerRef)
	g.mu.Unlock()
	if g.settleErr != nil {
		return nil, g.settleErr
	}
	out := g.status
	return &out, nil
}

type stubFactory struct {
	gw *stubGateway
}

func (f stubFactory) ForProvider(provider enums.PaymentProvider, resolved *settings.Resolved) (gateway.Gateway, error) {
	return f.gw, nil
}

type stubSettings struct {
	resolved settings.Resolved
}

func (s *stubSettings) Resolve(ctx context.Context) (*settings.Resolved, error) {
	out := s.resolved
	return &out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []string
}

func (n *recordingNotifier) OrderPaid(ctx context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.OrderNo)
}

type settlementFixture struct {
	conn     *gorm.DB
	svc      Service
	gw       *stubGateway
	notifier *recordingNotifier
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:settlement_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	))

	logg := logger.New(logger.Options{ServiceName: "test"})
	gw := &stubGateway{
		session: gateway.Session{ProviderRef: "sess_123", RedirectURL: "https://pay.example/sess_123"},
	}
	notifier := &recordingNotifier{}

	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		TransactionRunner: db.NewFromConn(conn),
		Settings: &stubSettings{resolved: settings.Resolved{
			StripeEnabled:       true,
			PayPalEnabled:       true,
			StripeSecretKey:     "sk_test",
			StripeWebhookSecret: "whsec_test",
			DefaultCurrency:     enums.CurrencyUSD,
		}},
		Gateways:      stubFactory{gw: gw},
		Deductor:      inventory.NewDeductor(inventory.NewRepository(conn), logg),
		Metrics:       metrics.NewSettlementMetrics(nil),
		Notifier:      notifier,
		Logger:        logg,
		PublicBaseURL: "https://shop.example",
	})
	require.NoError(t, err)

	return &settlementFixture{conn: conn, svc: svc, gw: gw, notifier: notifier}
}

func (f *settlementFixture) seedOrder(t *testing.T, total string, stock int) *models.Order {
	t.Helper()

	product := &models.Product{
		Title:      "Ceramic Mug",
		Price:      decimal.RequireFromString(total),
		TrackStock: true,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, f.conn.Create(product).Error)

	order := &models.Order{
		OrderNo:    "OD" + uuid.NewString()[:14],
		QueryToken: uuid.NewString(),
		Status:     enums.OrderStatusPending,
		Currency:   enums.CurrencyUSD,
		Subtotal:   decimal.RequireFromString(total),
		Total:      decimal.RequireFromString(total),
		Items: []models.OrderItem{{
			ProductID:     &product.ID,
			TitleSnapshot: product.Title,
			UnitPrice:     product.Price,
			Quantity:      1,
			LineTotal:     decimal.RequireFromString(total),
		}},
	}
	require.NoError(t, f.conn.Create(order).Error)
	return order
}

func (f *settlementFixture) reloadOrder(t *testing.T, id uuid.UUID) *models.Order {
	t.Helper()

	var order models.Order
	require.NoError(t, f.conn.Preload("Items").Preload("Payments").First(&order, "id = ?", id).Error)
	return &order
}

func completedStatus(order *models.Order) gateway.SessionStatus {
	return gateway.SessionStatus{
		Completed: true,
		OrderNo:   order.OrderNo,
		Currency:  string(order.Currency),
		Amount:    order.Total,
		Raw:       `{"status":"complete"}`,
	}
}

func TestInitiateCreatesPendingPayment(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	result, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	assert.Equal(t, "sess_123", result.ProviderRef)
	assert.Equal(t, "https://pay.example/sess_123", result.RedirectURL)

	reloaded := f.reloadOrder(t, order.ID)
	require.Len(t, reloaded.Payments, 1)
	payment := reloaded.Payments[0]
	assert.Equal(t, enums.PaymentStatusPending, payment.Status)
	assert.Equal(t, "sess_123", payment.ProviderRef)
	assert.Equal(t, enums.ProviderStripe, payment.Provider)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
}

func TestInitiateRejectsWrongToken(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "10.00", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: "wrong",
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestInitiateRejectsDisabledProvider(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "10.00", 5)

	disabled, err := NewService(ServiceParams{
		Repo:              NewRepository(f.conn),
		TransactionRunner: db.NewFromConn(f.conn),
		Settings:          &stubSettings{resolved: settings.Resolved{StripeEnabled: false}},
		Gateways:          stubFactory{gw: f.gw},
		Deductor:          inventory.NewDeductor(inventory.NewRepository(f.conn), logger.New(logger.Options{ServiceName: "test"})),
		Metrics:           metrics.NewSettlementMetrics(nil),
		Logger:            logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)

	_, err = disabled.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeProviderDisabled, pkgerrors.As(err).Code())
}

func TestConfirmSettlesOrderAndDeductsStock(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)

	f.gw.status = completedStatus(order)

	result, err := f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, result.Status)
	assert.Empty(t, result.Warning)

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
	assert.True(t, reloaded.InventoryDeducted)
	require.Len(t, reloaded.Payments, 1)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.Payments[0].Status)

	var product models.Product
	require.NoError(t, f.conn.First(&product).Error)
	assert.Equal(t, 4, product.Stock)

	assert.Equal(t, []string{order.OrderNo}, f.notifier.orders)
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	f.gw.status = completedStatus(order)

	first, err := f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPaid, first.Status)
	settleCalls := len(f.gw.settleRefs)

	second, err := f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, second.Status)
	assert.Len(t, f.gw.settleRefs, settleCalls, "settled orders must not hit the provider again")

	var product models.Product
	require.NoError(t, f.conn.First(&product).Error)
	assert.Equal(t, 4, product.Stock, "stock must deduct exactly once")
	assert.Len(t, f.notifier.orders, 1)
}

func TestConfirmAmountMismatchFailsVerification(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)

	status := completedStatus(order)
	status.Amount = decimal.RequireFromString("1.00")
	f.gw.status = status

	_, err = f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeVerificationFailed, pkgerrors.As(err).Code())

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.False(t, reloaded.InventoryDeducted)
	require.Len(t, reloaded.Payments, 1)
	assert.Equal(t, enums.PaymentStatusFailed, reloaded.Payments[0].Status)
}

func TestConfirmCurrencyMismatchFailsVerification(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)

	status := completedStatus(order)
	status.Currency = "EUR"
	f.gw.status = status

	_, err = f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeVerificationFailed, pkgerrors.As(err).Code())
}

func TestConfirmIncompleteSessionFailsVerification(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)

	status := completedStatus(order)
	status.Completed = false
	f.gw.status = status

	_, err = f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeVerificationFailed, pkgerrors.As(err).Code())

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
}

func TestConfirmDeductionFailureStillSettles(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 0)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	f.gw.status = completedStatus(order)

	result, err := f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, result.Status)
	assert.Equal(t, string(pkgerrors.CodeOutOfStock), result.Warning)

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
	assert.False(t, reloaded.InventoryDeducted)
	require.Len(t, reloaded.Payments, 1)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.Payments[0].Status)

	var product models.Product
	require.NoError(t, f.conn.First(&product).Error)
	assert.Equal(t, 0, product.Stock, "failed deduction must leave stock untouched")
}

func TestConfirmCanceledOrderConflicts(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "10.00", 5)
	require.NoError(t, f.conn.Model(order).Update("status", enums.OrderStatusCanceled).Error)

	_, err := f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestConfirmWithoutOpenAttemptConflicts(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "10.00", 5)
	f.gw.status = completedStatus(order)

	_, err := f.svc.Confirm(context.Background(), ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestConcurrentConfirmDeductsOnce(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)
	f.gw.status = completedStatus(order)

	input := ConfirmInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	}

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			// Interleaved transactions can abort on sqlite's table locks;
			// retrying mirrors a buyer refreshing the return page.
			var err error
			for attempt := 0; attempt < 20; attempt++ {
				if _, err = f.svc.Confirm(context.Background(), input); err == nil {
					break
				}
				time.Sleep(time.Millisecond)
			}
			results <- err
		}()
	}
	close(start)
	for i := 0; i < 2; i++ {
		require.NoError(t, <-results)
	}

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
	assert.True(t, reloaded.InventoryDeducted)
	require.Len(t, reloaded.Payments, 1, "racing confirmations must share one payment row")
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.Payments[0].Status)

	var product models.Product
	require.NoError(t, f.conn.First(&product).Error)
	assert.Equal(t, 4, product.Stock, "stock must deduct exactly once")
	assert.Len(t, f.notifier.orders, 1)
}

func (f *settlementFixture) signedCheckoutEvent(t *testing.T, orderNo, sessionID string, amountMinor int64) ([]byte, string) {
	t.Helper()

	session := &stripe.CheckoutSession{
		ID:                sessionID,
		ClientReferenceID: orderNo,
		Currency:          stripe.CurrencyUSD,
		AmountTotal:       amountMinor,
		PaymentStatus:     stripe.CheckoutSessionPaymentStatusPaid,
	}
	rawSession, err := json.Marshal(session)
	require.NoError(t, err)

	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypeCheckoutSessionCompleted,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: rawSession},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload, stripeSignatureHeader(payload, "whsec_test", time.Now().Unix())
}

func stripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookSettlesOrderAndReplayIsSafe(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	_, err := f.svc.Initiate(context.Background(), InitiateInput{
		OrderNo:    order.OrderNo,
		QueryToken: order.QueryToken,
		Provider:   enums.ProviderStripe,
	})
	require.NoError(t, err)

	payload, header := f.signedCheckoutEvent(t, order.OrderNo, "sess_123", 2850)

	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, header))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, reloaded.Status)
	assert.True(t, reloaded.InventoryDeducted)
	require.Len(t, reloaded.Payments, 1)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.Payments[0].Status)
	assert.Equal(t, "sess_123", reloaded.Payments[0].ProviderRef)

	// Replayed delivery: same event, same signature.
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, header))

	replayed := f.reloadOrder(t, order.ID)
	require.Len(t, replayed.Payments, 1, "replay must not add payment rows")

	var product models.Product
	require.NoError(t, f.conn.First(&product).Error)
	assert.Equal(t, 4, product.Stock, "replay must not deduct again")
	assert.Len(t, f.notifier.orders, 1)
}

func TestWebhookAcksUnknownOrder(t *testing.T) {
	f := newSettlementFixture(t)

	payload, header := f.signedCheckoutEvent(t, "OD00000000000000", "sess_gone", 1000)

	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, header))

	var payments int64
	require.NoError(t, f.conn.Model(&models.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestWebhookAcksAmountMismatchWithoutSettling(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	payload, header := f.signedCheckoutEvent(t, order.OrderNo, "sess_123", 100)

	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, header))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.False(t, reloaded.InventoryDeducted)
	assert.Empty(t, reloaded.Payments)

	var product models.Product
	require.NoError(t, f.conn.First(&product).Error)
	assert.Equal(t, 5, product.Stock)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedOrder(t, "28.50", 5)

	payload, _ := f.signedCheckoutEvent(t, order.OrderNo, "sess_123", 2850)

	err := f.svc.HandleStripeWebhook(context.Background(), payload, "t=1,v1=invalid")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeVerificationFailed, pkgerrors.As(err).Code())

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
}

package settlement

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/internal/inventory"
	"github.com/avelarde/shopfront-backend/internal/settings"
	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/gateway"
	"github.com/avelarde/shopfront-backend/pkg/gateway/stripegw"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/metrics"
)

const deductSavepoint = "inventory_deduction"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type settingsResolver interface {
	Resolve(ctx context.Context) (*settings.Resolved, error)
}

type paidNotifier interface {
	OrderPaid(ctx context.Context, order *models.Order)
}

// Service drives the payment lifecycle: opening provider sessions, settling
// them and latching the inventory deduction.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	// HandleStripeWebhook verifies and processes a raw webhook delivery. A
	// signature failure is the only error callers should surface as 400;
	// everything recoverable is logged and acknowledged.
	HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// ServiceParams wires the settlement service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Settings          settingsResolver
	Gateways          GatewayFactory
	Deductor          inventory.Deductor
	Metrics           *metrics.SettlementMetrics
	Notifier          paidNotifier
	Logger            *logger.Logger
	PublicBaseURL     string
}

type service struct {
	repo     Repository
	tx       txRunner
	settings settingsResolver
	gateways GatewayFactory
	deductor inventory.Deductor
	metrics  *metrics.SettlementMetrics
	notifier paidNotifier
	logg     *logger.Logger
	baseURL  string
}

// NewService validates and assembles the settlement service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings resolver required")
	}
	if params.Gateways == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway factory required")
	}
	if params.Deductor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory deductor required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.TransactionRunner,
		settings: params.Settings,
		gateways: params.Gateways,
		deductor: params.Deductor,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		logg:     params.Logger,
		baseURL:  strings.TrimRight(params.PublicBaseURL, "/"),
	}, nil
}

func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	ctx = s.logg.WithProvider(s.logg.WithOrderNo(ctx, input.OrderNo), input.Provider.String())

	order, err := s.loadOrder(ctx, input.OrderNo, input.QueryToken)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	resolved, err := s.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := providerEnabled(input.Provider, resolved); err != nil {
		return nil, err
	}

	gw, err := s.gateways.ForProvider(input.Provider, resolved)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:  order.ID,
		Provider: input.Provider,
		Status:   enums.PaymentStatusCreated,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment attempt")
	}

	session, err := gw.CreateSession(ctx, gateway.SessionRequest{
		OrderNo:     order.OrderNo,
		Currency:    order.Currency,
		Amount:      order.Total,
		Description: fmt.Sprintf("Order %s", order.OrderNo),
		SuccessURL:  s.redirectURL("success", order.OrderNo),
		CancelURL:   s.redirectURL("cancel", order.OrderNo),
	})
	if err != nil {
		payment.Status = enums.PaymentStatusFailed
		payment.Raw = err.Error()
		if saveErr := s.repo.UpdatePayment(ctx, payment); saveErr != nil {
			s.logg.Error(ctx, "recording failed payment attempt", saveErr)
		}
		return nil, err
	}

	payment.Status = enums.PaymentStatusPending
	payment.ProviderRef = session.ProviderRef
	payment.Raw = session.Raw
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment session")
	}

	s.metrics.IncSession(input.Provider.String())
	s.logg.Info(ctx, "payment session created")

	return &InitiateResult{
		Provider:    input.Provider,
		ProviderRef: session.ProviderRef,
		RedirectURL: session.RedirectURL,
	}, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	ctx = s.logg.WithProvider(s.logg.WithOrderNo(ctx, input.OrderNo), input.Provider.String())

	order, err := s.loadOrder(ctx, input.OrderNo, input.QueryToken)
	if err != nil {
		return nil, err
	}

	// Settled orders confirm as a no-op so buyers can refresh the return
	// page freely.
	if order.Status != enums.OrderStatusPending {
		if order.Status == enums.OrderStatusCanceled {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is canceled")
		}
		return &ConfirmResult{OrderNo: order.OrderNo, Status: order.Status}, nil
	}

	resolved, err := s.settings.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateways.ForProvider(input.Provider, resolved)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.FindOpenPayment(ctx, order.ID, input.Provider, input.ProviderRef)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no open payment attempt for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment attempt")
	}

	status, err := gw.Settle(ctx, payment.ProviderRef)
	if err != nil {
		return nil, err
	}

	if verifyErr := verifySettlement(order, status); verifyErr != nil {
		payment.Status = enums.PaymentStatusFailed
		payment.Raw = status.Raw
		if saveErr := s.repo.UpdatePayment(ctx, payment); saveErr != nil {
			s.logg.Error(ctx, "recording failed verification", saveErr)
		}
		s.metrics.IncVerifyFailure(input.Provider.String())
		s.logg.Warn(ctx, "payment verification failed")
		return nil, verifyErr
	}

	settled, warning, err := s.finalize(ctx, input.Provider, order.OrderNo, payment.ProviderRef, status.Raw)
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{OrderNo: settled.OrderNo, Status: settled.Status, Warning: warning}, nil
}

func (s *service) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	ctx = s.logg.WithProvider(ctx, enums.ProviderStripe.String())

	resolved, err := s.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	if resolved.StripeWebhookSecret == "" {
		return pkgerrors.New(pkgerrors.CodeProviderNotConfigured, "stripe webhook secret is not configured")
	}

	event, err := stripegw.VerifyEvent(payload, sigHeader, resolved.StripeWebhookSecret)
	if err != nil {
		s.metrics.IncWebhookReject()
		return pkgerrors.Wrap(pkgerrors.CodeVerificationFailed, err, "webhook signature verification failed")
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding checkout session event")
	}

	status := stripegw.StatusFromSession(&session)
	status.Raw = string(event.Data.Raw)
	if !status.Completed {
		return nil
	}

	ctx = s.logg.WithOrderNo(ctx, status.OrderNo)

	order, err := s.repo.FindOrderByNo(ctx, status.OrderNo)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown references are acknowledged; retrying will not make
			// the order appear.
			s.logg.Warn(ctx, "webhook references unknown order")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.Status != enums.OrderStatusPending {
		return nil
	}

	if verifyErr := verifySettlement(order, status); verifyErr != nil {
		s.metrics.IncVerifyFailure(enums.ProviderStripe.String())
		s.logg.Error(ctx, "webhook settlement verification failed", verifyErr)
		return nil
	}

	_, _, err = s.finalize(ctx, enums.ProviderStripe, order.OrderNo, session.ID, status.Raw)
	return err
}

// finalize settles the order in one transaction. The inventory deduction runs
// inside a savepoint so its failure rolls back the stock writes alone; the
// order still becomes paid because the money has already moved.
func (s *service) finalize(ctx context.Context, provider enums.PaymentProvider, orderNo, providerRef, raw string) (*models.Order, string, error) {
	start := time.Now()

	var (
		order      *models.Order
		warning    string
		settledNow bool
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.LockOrderByNo(ctx, orderNo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking order")
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}

		payment, err := repo.FindPaymentByRef(ctx, order.ID, provider, providerRef)
		if err != nil {
			if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment")
			}
			payment = &models.Payment{
				OrderID:     order.ID,
				Provider:    provider,
				ProviderRef: providerRef,
			}
		}
		payment.Status = enums.PaymentStatusPaid
		payment.Raw = raw
		if payment.ID == uuid.Nil {
			err = repo.CreatePayment(ctx, payment)
		} else {
			err = repo.UpdatePayment(ctx, payment)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payment")
		}

		if err := tx.SavePoint(deductSavepoint).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating savepoint")
		}
		if err := s.deductor.Deduct(ctx, tx, order); err != nil {
			typed := pkgerrors.As(err)
			if typed == nil || (typed.Code() != pkgerrors.CodeOutOfStock && typed.Code() != pkgerrors.CodeSkuInactive) {
				return err
			}
			if err := tx.RollbackTo(deductSavepoint).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rolling back deduction")
			}
			warning = string(typed.Code())
			order.InventoryDeducted = false
			s.metrics.IncDeductionFailure(strings.ToLower(warning))
			s.logg.Warn(ctx, "inventory deduction failed, order settles without stock update")
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
		}
		order.Status = enums.OrderStatusPaid
		settledNow = true
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.metrics.ObserveSettleDuration(provider.String(), time.Since(start))
	if settledNow {
		s.metrics.IncSettled(provider.String())
		s.logg.Info(ctx, "order settled")
		if s.notifier != nil {
			s.notifier.OrderPaid(ctx, order)
		}
	}

	return order, warning, nil
}

func (s *service) loadOrder(ctx context.Context, orderNo, queryToken string) (*models.Order, error) {
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
	return order, nil
}

func (s *service) redirectURL(state, orderNo string) string {
	return fmt.Sprintf("%s/pay/%s?order_no=%s", s.baseURL, state, url.QueryEscape(orderNo))
}

func providerEnabled(provider enums.PaymentProvider, resolved *settings.Resolved) error {
	switch provider {
	case enums.ProviderStripe:
		if !resolved.StripeEnabled {
			return pkgerrors.New(pkgerrors.CodeProviderDisabled, "stripe payments are disabled")
		}
	case enums.ProviderPayPal:
		if !resolved.PayPalEnabled {
			return pkgerrors.New(pkgerrors.CodeProviderDisabled, "paypal payments are disabled")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	return nil
}

// verifySettlement checks the provider's answer against the order. The
// comparison is exact on amount and currency; an empty provider echo is
// tolerated because not every provider returns every field.
func verifySettlement(order *models.Order, status *gateway.SessionStatus) error {
	if !status.Completed {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment is not completed at the provider")
	}
	if status.OrderNo != "" && status.OrderNo != order.OrderNo {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment references a different order").
			WithDetails(map[string]string{"provider_order_no": status.OrderNo})
	}
	if status.Currency != "" && status.Currency != string(order.Currency) {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment currency mismatch").
			WithDetails(map[string]string{"expected": string(order.Currency), "got": status.Currency})
	}
	if !status.Amount.Equal(order.Total) {
		return pkgerrors.New(pkgerrors.CodeVerificationFailed, "payment amount mismatch").
			WithDetails(map[string]string{"expected": order.Total.String(), "got": status.Amount.String()})
	}
	return nil
}

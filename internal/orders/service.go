package orders

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

// Service defines the admin-side order operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*pagination.Result[Summary], error)
	ListPayments(ctx context.Context, params PaymentListParams) (*pagination.Result[PaymentSummary], error)
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)
	// Advance moves a settled order one step along paid -> fulfilled ->
	// completed.
	Advance(ctx context.Context, id uuid.UUID) (*Detail, error)
	// Cancel voids an order that was never paid.
	Cancel(ctx context.Context, id uuid.UUID) (*Detail, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the admin order service.
func NewService(repo Repository, logg *logger.Logger) Service {
	return &service{repo: repo, logg: logg}
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Result[Summary], error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]string{"status": string(params.Status)})
	}

	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	summaries := make([]Summary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, newSummary(&rows[i]))
	}
	result := pagination.NewResult(summaries, total, params.Page)
	return &result, nil
}

func (s *service) ListPayments(ctx context.Context, params PaymentListParams) (*pagination.Result[PaymentSummary], error) {
	if params.Provider != "" && !params.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider").
			WithDetails(map[string]string{"provider": string(params.Provider)})
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
			WithDetails(map[string]string{"status": string(params.Status)})
	}

	rows, total, err := s.repo.ListPayments(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payments")
	}

	summaries := make([]PaymentSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, newPaymentSummary(&rows[i]))
	}
	result := pagination.NewResult(summaries, total, params.Page)
	return &result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return newDetail(order), nil
}

func (s *service) Advance(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := order.Status.Next()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status cannot advance").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	order.Status = next

	ctx = s.logg.WithOrderNo(ctx, order.OrderNo)
	s.logg.Info(ctx, "order status advanced")
	return newDetail(order), nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*Detail, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be canceled").
			WithDetails(map[string]string{"status": order.Status.String()})
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCanceled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "canceling order")
	}
	order.Status = enums.OrderStatusCanceled

	ctx = s.logg.WithOrderNo(ctx, order.OrderNo)
	s.logg.Info(ctx, "order canceled")
	return newDetail(order), nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

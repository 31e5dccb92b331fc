package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
)

// Repository covers the admin-side order reads and status writes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, params ListParams) ([]models.Order, int64, error)
	ListPayments(ctx context.Context, params PaymentListParams) ([]models.Payment, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}

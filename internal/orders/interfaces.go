package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/pkg/db/models"
)

// Repository persists orders and answers the sweeper's lifecycle queries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error)
	FindSlot(ctx context.Context, id uuid.UUID) (*models.Slot, error)
	CountActiveOnSlot(ctx context.Context, slotID uuid.UUID) (int64, error)

	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)
	CancelIfConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
	ConfirmIfPending(ctx context.Context, id uuid.UUID) (bool, error)
	CompleteIfActive(ctx context.Context, id uuid.UUID) (bool, error)

	FindExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	FindActivePastSlot(ctx context.Context, now time.Time, limit int) ([]models.Order, error)
}

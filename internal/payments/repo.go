package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/repo"
	"github.com/platevine/platevine-backend/pkg/db/models"
)

// Repository persists payment records attached to orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) error
	MarkPayoutFinished(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.DB(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.DB(ctx).Where("order_id = ?", orderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("is_refunded", true).Error
}

func (r *repository) MarkPayoutFinished(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("is_payout_finished", true).Error
}

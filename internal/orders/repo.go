package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/repo"
	"github.com/platevine/platevine-backend/pkg/db/models"
	"github.com/platevine/platevine-backend/pkg/enums"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items.Variant").
		Preload("Payment").
		Preload("Slot").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.Variant
	err := r.DB(ctx).
		Where("id IN ?", ids).
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *repository) FindSlot(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	err := r.DB(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// CountActiveOnSlot counts the orders still occupying slot capacity.
func (r *repository) CountActiveOnSlot(ctx context.Context, slotID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("slot_id = ? AND status <> ?", slotID, enums.OrderStatusCancelled).
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteIfPending removes a still-pending order row; items and payment
// cascade at the schema level. Returns false when the order moved on.
func (r *repository) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Delete(&models.Order{})
	return res.RowsAffected > 0, res.Error
}

// CancelIfConfirmed flips a confirmed order to cancelled and drops the
// checkout deadline. Returns false when the order moved on.
func (r *repository) CancelIfConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusConfirmed).
		Updates(map[string]any{
			"status":     enums.OrderStatusCancelled,
			"expires_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

// ConfirmIfPending flips a pending order to confirmed and clears the checkout
// deadline. Returns false when the order was not pending anymore, which lets
// the webhook path detect replays without locking.
func (r *repository) ConfirmIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":     enums.OrderStatusConfirmed,
			"expires_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

// CompleteIfActive completes an order only while it is confirmed or ready.
// The conditional guard makes concurrent sweeps and late cancellations safe.
func (r *repository) CompleteIfActive(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []enums.OrderStatus{
			enums.OrderStatusConfirmed,
			enums.OrderStatusReady,
		}).
		Update("status", enums.OrderStatusCompleted)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) FindExpiredIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FindActivePastSlot returns confirmed/ready orders whose pickup window has
// already ended.
func (r *repository) FindActivePastSlot(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Joins("JOIN slots ON slots.id = orders.slot_id").
		Where("orders.status IN ? AND slots.end_time < ?", []enums.OrderStatus{
			enums.OrderStatusConfirmed,
			enums.OrderStatusReady,
		}, now).
		Order("slots.end_time ASC").
		Limit(limit).
		Preload("Payment").
		Preload("Slot").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

package slots

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/repo"
	"github.com/platevine/platevine-backend/pkg/db/models"
)

// Repository persists slot templates, generated slots and the generation mark.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTemplate(ctx context.Context, template *models.SlotTemplate) (*models.SlotTemplate, error)
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.SlotTemplate, error)
	ListTemplatesByStore(ctx context.Context, storeID uuid.UUID) ([]models.SlotTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	CreateSlots(ctx context.Context, slots []models.Slot) error
	HasSlotsInRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) (bool, error)
	ListSlotsInRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.Slot, error)
	CountActiveOrdersOnSlot(ctx context.Context, slotID uuid.UUID) (int64, error)

	GetMark(ctx context.Context) (*models.SlotGenerationMark, error)
	SaveMark(ctx context.Context, through time.Time) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a slots repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateTemplate(ctx context.Context, template *models.SlotTemplate) (*models.SlotTemplate, error) {
	if err := r.DB(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

func (r *repository) FindTemplate(ctx context.Context, id uuid.UUID) (*models.SlotTemplate, error) {
	var template models.SlotTemplate
	err := r.DB(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repository) ListTemplatesByStore(ctx context.Context, storeID uuid.UUID) ([]models.SlotTemplate, error) {
	var templates []models.SlotTemplate
	err := r.DB(ctx).
		Where("store_id = ?", storeID).
		Order("day_of_week ASC").
		Order("start_time ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Where("id = ?", id).
		Delete(&models.SlotTemplate{}).Error
}

func (r *repository) CreateSlots(ctx context.Context, slots []models.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&slots).Error
}

// HasSlotsInRange reports whether the store already has any slot starting in
// [from, to). Used as the per-day idempotence check during generation.
func (r *repository) HasSlotsInRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Slot{}).
		Where("store_id = ? AND start_time >= ? AND start_time < ?", storeID, from, to).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListSlotsInRange(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	var slots []models.Slot
	err := r.DB(ctx).
		Where("store_id = ? AND start_time >= ? AND start_time < ?", storeID, from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// CountActiveOrdersOnSlot counts orders that still occupy slot capacity.
func (r *repository) CountActiveOrdersOnSlot(ctx context.Context, slotID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("slot_id = ? AND status NOT IN ?", slotID, []string{"cancelled"}).
		Count(&count).Error
	return count, err
}

func (r *repository) GetMark(ctx context.Context) (*models.SlotGenerationMark, error) {
	var mark models.SlotGenerationMark
	err := r.DB(ctx).Where("id = ?", 1).First(&mark).Error
	if err != nil {
		return nil, err
	}
	return &mark, nil
}

func (r *repository) SaveMark(ctx context.Context, through time.Time) error {
	mark := models.SlotGenerationMark{ID: 1, LastGeneratedThrough: through}
	return r.DB(ctx).Save(&mark).Error
}

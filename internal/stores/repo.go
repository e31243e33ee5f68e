package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/repo"
	"github.com/platevine/platevine-backend/pkg/db/models"
)

// Repository exposes the store reads the slot generator and order flows need.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ListLiveForGeneration(ctx context.Context) ([]models.Store, error)
	SetPublishedFirstSlots(ctx context.Context, id uuid.UUID, published bool) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a stores repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.DB(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// ListLiveForGeneration returns stores that have opened ordering and should
// receive rolling slots.
func (r *repository) ListLiveForGeneration(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	err := r.DB(ctx).
		Where("is_deleted = ? AND published_first_slots = ?", false, true).
		Order("created_at ASC").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *repository) SetPublishedFirstSlots(ctx context.Context, id uuid.UUID, published bool) error {
	return r.DB(ctx).
		Model(&models.Store{}).
		Where("id = ?", id).
		Update("published_first_slots", published).Error
}

package accounts

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/repo"
	"github.com/platevine/platevine-backend/pkg/db/models"
)

// Repository covers the account maintenance the cleanup sweeper performs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SoftDeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an accounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// SoftDeleteExpired flags accounts whose deletion grace period has elapsed.
// The schedule is consumed in the same update so a retired account carries no
// pending deletion date.
func (r *repository) SoftDeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Account{}).
		Where("is_deleted = ? AND deletion_at IS NOT NULL AND deletion_at <= ?", false, now).
		Updates(map[string]any{
			"is_deleted":  true,
			"deletion_at": nil,
		})
	return res.RowsAffected, res.Error
}

// DeleteExpiredVerifications removes verification requests that expired before
// the cutoff.
func (r *repository) DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("expires_at < ?", before).
		Delete(&models.VerificationRequest{})
	return res.RowsAffected, res.Error
}

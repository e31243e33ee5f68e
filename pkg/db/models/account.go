package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a customer account. DeletionAt marks the end of the deletion
// grace period; the sweeper soft-deletes accounts past it.
type Account struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email      string     `gorm:"column:email;not null;uniqueIndex"`
	Name       string     `gorm:"column:name;not null"`
	IsDeleted  bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletionAt *time.Time `gorm:"column:deletion_at;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

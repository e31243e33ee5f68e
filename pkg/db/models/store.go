package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store represents a vendor storefront selling pickup orders.
type Store struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string         `gorm:"column:name;not null"`
	Description         *string        `gorm:"column:description"`
	Phone               *string        `gorm:"column:phone"`
	Categories          pq.StringArray `gorm:"column:categories;type:text[]"`
	SlotMaxOrders       int            `gorm:"column:slot_max_orders;not null;default:10"`
	PublishedFirstSlots bool           `gorm:"column:published_first_slots;not null;default:false"`
	PayoutAccountID     *string        `gorm:"column:payout_account_id"`
	OwnerID             uuid.UUID      `gorm:"column:owner;type:uuid;not null"`
	IsDeleted           bool           `gorm:"column:is_deleted;not null;default:false"`
	SlotTemplates       []SlotTemplate `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE"`
	Slots               []Slot         `gorm:"foreignKey:StoreID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

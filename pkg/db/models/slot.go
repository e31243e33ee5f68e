package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a concrete dated pickup window materialized from a template.
// MaxOrders is snapshotted from the store at generation time.
type Slot struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_slots_store_start"`
	StartTime time.Time `gorm:"column:start_time;not null;uniqueIndex:ux_slots_store_start"`
	EndTime   time.Time `gorm:"column:end_time;not null"`
	MaxOrders int       `gorm:"column:max_orders;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

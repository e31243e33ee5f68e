package models

import (
	"time"

	"github.com/google/uuid"
)

// SlotTemplate is a weekly recurring pickup window rule for a store.
// DayOfWeek follows time.Weekday (0 = Sunday). StartTime is "HH:MM".
type SlotTemplate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	DayOfWeek int       `gorm:"column:day_of_week;not null"`
	StartTime string    `gorm:"column:start_time;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

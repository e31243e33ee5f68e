package models

import "time"

// SlotGenerationMark is the single-row watermark for slot generation.
// LastGeneratedThrough is the date the generator's cursor has caught up to;
// it advances in the same transaction as the day's slot inserts.
type SlotGenerationMark struct {
	ID                   int       `gorm:"column:id;primaryKey"`
	LastGeneratedThrough time.Time `gorm:"column:last_generated_through;not null"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

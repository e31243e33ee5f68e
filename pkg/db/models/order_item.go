package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots one variant line within an order. PriceCents is the
// price at order time, decoupled from the variant's current price.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID  uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	Variant    *Variant  `gorm:"foreignKey:VariantID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

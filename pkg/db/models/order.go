package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platevine/platevine-backend/pkg/enums"
)

// Order is the customer-facing pickup order aggregate. The ID doubles as the
// opaque token handed to the customer.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID   uuid.UUID         `gorm:"column:account_id;type:uuid;not null;index"`
	StoreID     uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	SlotID      *uuid.UUID        `gorm:"column:slot_id;type:uuid;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Name        string            `gorm:"column:name;not null"`
	PhoneNumber string            `gorm:"column:phone_number;not null"`
	ExpiresAt   *time.Time        `gorm:"column:expires_at;index"`
	Slot        *Slot             `gorm:"foreignKey:SlotID"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment     *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

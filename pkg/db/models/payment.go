package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platevine/platevine-backend/pkg/enums"
)

// Payment is the one-to-one record attached to a confirmed order.
type Payment struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	AmountCents           int                 `gorm:"column:amount_cents;not null"`
	Method                enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'card'"`
	StripePaymentIntentID string              `gorm:"column:stripe_payment_intent_id;not null"`
	IsRefunded            bool                `gorm:"column:is_refunded;not null;default:false"`
	IsPayoutFinished      bool                `gorm:"column:is_payout_finished;not null;default:false"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

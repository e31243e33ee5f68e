package orders

import (
	"github.com/google/uuid"

	"github.com/platevine/platevine-backend/pkg/enums"
)

// OrderLine is one variant/quantity pair in a placement request.
type OrderLine struct {
	VariantID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries everything needed to open a pending order.
type PlaceOrderInput struct {
	AccountID   uuid.UUID
	StoreID     uuid.UUID
	SlotID      *uuid.UUID
	Name        string
	PhoneNumber string
	Lines       []OrderLine
}

// ConfirmInput carries the payment facts arriving from the Stripe webhook.
type ConfirmInput struct {
	OrderID     uuid.UUID
	IntentID    string
	AmountCents int
	Method      enums.PaymentMethod
}

// OrderPlacedEvent is emitted when a pending order is opened.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID  `json:"order_id"`
	StoreID     uuid.UUID  `json:"store_id"`
	AccountID   uuid.UUID  `json:"account_id"`
	SlotID      *uuid.UUID `json:"slot_id,omitempty"`
	TotalCents  int        `json:"total_cents"`
	LineCount   int        `json:"line_count"`
}

// OrderConfirmedEvent is emitted when payment lands on a pending order.
type OrderConfirmedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	StoreID     uuid.UUID `json:"store_id"`
	IntentID    string    `json:"intent_id"`
	AmountCents int       `json:"amount_cents"`
}

// OrderReadyEvent is emitted when the vendor marks an order ready for pickup.
type OrderReadyEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	StoreID uuid.UUID `json:"store_id"`
}

// OrderCompletedEvent is emitted when an order's slot window has passed.
type OrderCompletedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	StoreID uuid.UUID `json:"store_id"`
}

// OrderCancelledEvent is emitted on user- or vendor-driven cancellation.
type OrderCancelledEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	StoreID  uuid.UUID         `json:"store_id"`
	Status   enums.OrderStatus `json:"status_before"`
	Refunded bool              `json:"refund_requested"`
}

// OrderExpiredEvent is emitted when the checkout window lapses unpaid.
type OrderExpiredEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	StoreID uuid.UUID         `json:"store_id"`
	Status  enums.OrderStatus `json:"status_before"`
}

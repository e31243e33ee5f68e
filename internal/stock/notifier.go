package stock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/platevine/platevine-backend/pkg/logger"
	"github.com/platevine/platevine-backend/pkg/redis"
)

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Notifier broadcasts stock changes so storefront sessions can refresh
// availability without polling.
type Notifier interface {
	StockChanged(ctx context.Context, variantIDs []uuid.UUID)
}

type stockChangedMessage struct {
	VariantIDs []uuid.UUID `json:"variant_ids"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type redisNotifier struct {
	pub     publisher
	logg    *logger.Logger
	channel string
}

// NewRedisNotifier builds a Notifier publishing on the shared stock channel.
func NewRedisNotifier(pub publisher, logg *logger.Logger) Notifier {
	return &redisNotifier{
		pub:     pub,
		logg:    logg,
		channel: redis.Key("stock", "changed"),
	}
}

// StockChanged is best effort. A lost broadcast only delays a storefront
// refresh, so failures are logged and swallowed.
func (n *redisNotifier) StockChanged(ctx context.Context, variantIDs []uuid.UUID) {
	if len(variantIDs) == 0 {
		return
	}
	payload, err := json.Marshal(stockChangedMessage{
		VariantIDs: variantIDs,
		OccurredAt: time.Now(),
	})
	if err != nil {
		if n.logg != nil {
			n.logg.Error(ctx, "marshal stock change broadcast", err)
		}
		return
	}
	if err := n.pub.Publish(ctx, n.channel, payload); err != nil {
		if n.logg != nil {
			n.logg.Error(ctx, "publish stock change broadcast", err)
		}
	}
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops every broadcast. Used when
// redis is not configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) StockChanged(context.Context, []uuid.UUID) {}

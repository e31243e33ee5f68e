package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/platevine/platevine-backend/api/responses"
	internalorders "github.com/platevine/platevine-backend/internal/orders"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
	"github.com/platevine/platevine-backend/pkg/logger"
)

// OrderConfirmer applies a successful payment to a pending order.
type OrderConfirmer interface {
	ConfirmFromPayment(ctx context.Context, input internalorders.ConfirmInput) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies and applies Stripe payment events. Confirmation is
// replay safe, so Stripe retries and duplicate deliveries land as no-ops.
func StripeWebhook(svc OrderConfirmer, client stripeClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify signature"))
			return
		}

		switch event.Type {
		case "payment_intent.succeeded":
			if err := handlePaymentIntentSucceeded(ctx, svc, &event); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		default:
			if logg != nil {
				logg.Info(logg.WithField(ctx, "event_type", string(event.Type)), "stripe event ignored")
			}
		}

		responses.WriteSuccess(w, nil)
	}
}

func handlePaymentIntentSucceeded(ctx context.Context, svc OrderConfirmer, event *stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}

	rawOrderID := intent.Metadata["order_id"]
	if rawOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent missing order_id metadata")
	}
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id metadata")
	}

	return svc.ConfirmFromPayment(ctx, internalorders.ConfirmInput{
		OrderID:     orderID,
		IntentID:    intent.ID,
		AmountCents: int(intent.Amount),
	})
}

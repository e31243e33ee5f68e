package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/transfer"

	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
	pkgstripe "github.com/platevine/platevine-backend/pkg/stripe"
)

// Gateway is the payment-provider surface the order lifecycle needs.
type Gateway interface {
	RefundByIntentID(ctx context.Context, intentID string) error
	CreateTransfer(ctx context.Context, destination string, amountCents int64, currency, transferGroup string) (string, error)
}

type stripeGateway struct{}

// NewStripeGateway wraps the initialized Stripe client as a Gateway.
func NewStripeGateway(api *pkgstripe.Client) Gateway {
	if api == nil {
		return nil
	}
	return &stripeGateway{}
}

func (g *stripeGateway) RefundByIntentID(ctx context.Context, intentID string) error {
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe refund")
	}
	return nil
}

func (g *stripeGateway) CreateTransfer(ctx context.Context, destination string, amountCents int64, currency, transferGroup string) (string, error) {
	if destination == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transfer destination required")
	}
	if amountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be positive")
	}
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(currency),
		Destination:   stripe.String(destination),
		TransferGroup: stripe.String(transferGroup),
	}
	params.Context = ctx
	created, err := transfer.New(params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe transfer")
	}
	return created.ID, nil
}

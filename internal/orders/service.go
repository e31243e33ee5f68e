package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/payments"
	"github.com/platevine/platevine-backend/internal/stock"
	"github.com/platevine/platevine-backend/internal/stores"
	"github.com/platevine/platevine-backend/pkg/config"
	"github.com/platevine/platevine-backend/pkg/db/models"
	"github.com/platevine/platevine-backend/pkg/enums"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
	"github.com/platevine/platevine-backend/pkg/logger"
	"github.com/platevine/platevine-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the order state machine.
type Service interface {
	Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) error
	CancelExpired(ctx context.Context, orderID uuid.UUID) error
	BulkCancel(ctx context.Context, orderIDs []uuid.UUID) error
	MarkReady(ctx context.Context, storeID, orderID uuid.UUID) error
	ConfirmFromPayment(ctx context.Context, input ConfirmInput) error
	Complete(ctx context.Context, orderID uuid.UUID) (bool, error)
	Payout(ctx context.Context, order *models.Order) error
}

type service struct {
	repo     Repository
	payments payments.Repository
	stores   stores.Repository
	tx       txRunner
	outbox   outboxPublisher
	ledger   stock.Ledger
	notifier stock.Notifier
	gateway  payments.Gateway
	logg     *logger.Logger
	cfg      config.OrdersConfig
	now      func() time.Time
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	Repo     Repository
	Payments payments.Repository
	Stores   stores.Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Ledger   stock.Ledger
	Notifier stock.Notifier
	Gateway  payments.Gateway
	Logger   *logger.Logger
	Config   config.OrdersConfig
	Now      func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("stock notifier required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		payments: params.Payments,
		stores:   params.Stores,
		tx:       params.Tx,
		outbox:   params.Outbox,
		ledger:   params.Ledger,
		notifier: params.Notifier,
		gateway:  params.Gateway,
		logg:     params.Logger,
		cfg:      params.Config,
		now:      now,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account identity missing")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.Name == "" || input.PhoneNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup name and phone number required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	if _, err := s.stores.FindByID(ctx, input.StoreID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	var created *models.Order
	variantIDs := make([]uuid.UUID, 0, len(input.Lines))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Capacity is counted inside the transaction so two concurrent
		// placements cannot both squeeze into the slot's last seat.
		if input.SlotID != nil {
			if err := s.checkSlot(ctx, repo, input.StoreID, *input.SlotID); err != nil {
				return err
			}
		}

		ids := make([]uuid.UUID, 0, len(input.Lines))
		for _, line := range input.Lines {
			ids = append(ids, line.VariantID)
		}
		variants, err := repo.FindVariants(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
		}
		byID := make(map[uuid.UUID]models.Variant, len(variants))
		for _, variant := range variants {
			byID[variant.ID] = variant
		}

		total := 0
		items := make([]models.OrderItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			variant, ok := byID[line.VariantID]
			if !ok || variant.IsDeleted {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", line.VariantID))
			}
			if !variant.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %s is not orderable", line.VariantID))
			}
			if err := s.ledger.Reserve(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return err
			}
			variantIDs = append(variantIDs, line.VariantID)
			total += variant.PriceCents * line.Quantity
			items = append(items, models.OrderItem{
				VariantID:  line.VariantID,
				Quantity:   line.Quantity,
				PriceCents: variant.PriceCents,
			})
		}

		expiresAt := s.now().Add(s.cfg.CheckoutWindow)
		order := &models.Order{
			AccountID:   input.AccountID,
			StoreID:     input.StoreID,
			SlotID:      input.SlotID,
			Status:      enums.OrderStatusPending,
			Name:        input.Name,
			PhoneNumber: input.PhoneNumber,
			ExpiresAt:   &expiresAt,
		}
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		created = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderPlacedEvent{
				OrderID:    order.ID,
				StoreID:    order.StoreID,
				AccountID:  order.AccountID,
				SlotID:     order.SlotID,
				TotalCents: total,
				LineCount:  len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.StockChanged(ctx, dedupe(variantIDs))
	return created, nil
}

func (s *service) checkSlot(ctx context.Context, repo Repository, storeID, slotID uuid.UUID) error {
	slot, err := repo.FindSlot(ctx, slotID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "slot not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot")
	}
	if slot.StoreID != storeID {
		return pkgerrors.New(pkgerrors.CodeValidation, "slot does not belong to store")
	}
	if !slot.StartTime.After(s.now()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slot has already started")
	}
	count, err := repo.CountActiveOnSlot(ctx, slotID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count slot orders")
	}
	if int(count) >= slot.MaxOrders {
		return pkgerrors.New(pkgerrors.CodeConflict, "slot is fully booked")
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Cancel tears an order down on user or vendor request. Pending orders are
// removed outright, confirmed orders are marked cancelled and refunded.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) error {
	variantIDs, err := s.cancel(ctx, orderID, false)
	if err != nil {
		return err
	}
	s.notifier.StockChanged(ctx, variantIDs)
	return nil
}

// CancelExpired is the sweeper's entry point. Same teardown as Cancel, but
// the emitted fact records that the checkout window lapsed.
func (s *service) CancelExpired(ctx context.Context, orderID uuid.UUID) error {
	variantIDs, err := s.cancel(ctx, orderID, true)
	if err != nil {
		return err
	}
	s.notifier.StockChanged(ctx, variantIDs)
	return nil
}

// BulkCancel cancels each order in its own transaction and keeps going on
// individual failures. The stock broadcast is coalesced across the batch.
func (s *service) BulkCancel(ctx context.Context, orderIDs []uuid.UUID) error {
	var errs error
	var allVariantIDs []uuid.UUID
	for _, orderID := range orderIDs {
		variantIDs, err := s.cancel(ctx, orderID, false)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", orderID, err))
			continue
		}
		allVariantIDs = append(allVariantIDs, variantIDs...)
	}
	s.notifier.StockChanged(ctx, dedupe(allVariantIDs))
	return errs
}

func (s *service) cancel(ctx context.Context, orderID uuid.UUID, expired bool) ([]uuid.UUID, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var variantIDs []uuid.UUID
	var refund *models.Payment

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.Cancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
		}

		// Status flips are conditional on the loaded status, so two
		// concurrent cancels cannot both restore stock.
		switch order.Status {
		case enums.OrderStatusPending:
			ok, err := repo.DeleteIfPending(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pending order")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed state during cancel")
			}
		case enums.OrderStatusConfirmed:
			ok, err := repo.CancelIfConfirmed(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel confirmed order")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed state during cancel")
			}
		}

		for _, item := range order.Items {
			if item.Variant == nil || item.Variant.IsDeleted {
				continue
			}
			if err := s.ledger.Release(ctx, tx, item.VariantID, item.Quantity); err != nil {
				return err
			}
			variantIDs = append(variantIDs, item.VariantID)
		}

		if order.Payment != nil && !order.Payment.IsRefunded {
			payment := *order.Payment
			refund = &payment
		}

		event := outbox.DomainEvent{
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
		}
		if expired {
			event.EventType = enums.EventOrderExpired
			event.Data = OrderExpiredEvent{
				OrderID: order.ID,
				StoreID: order.StoreID,
				Status:  order.Status,
			}
		} else {
			event.EventType = enums.EventOrderCancelled
			event.Data = OrderCancelledEvent{
				OrderID:  order.ID,
				StoreID:  order.StoreID,
				Status:   order.Status,
				Refunded: refund != nil,
			}
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	if refund != nil {
		s.refund(ctx, orderID, refund)
	}
	return dedupe(variantIDs), nil
}

// refund runs after the local transition committed. A gateway failure must
// not undo the cancellation; the payment stays unrefunded and visible for
// manual follow-up.
func (s *service) refund(ctx context.Context, orderID uuid.UUID, payment *models.Payment) {
	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, orderID.String())
	}
	if err := s.gateway.RefundByIntentID(ctx, payment.StripePaymentIntentID); err != nil {
		if s.logg != nil {
			s.logg.Error(logCtx, "refund cancelled order", err)
		}
		return
	}
	if err := s.payments.MarkRefunded(ctx, payment.ID); err != nil {
		if s.logg != nil {
			s.logg.Error(logCtx, "mark payment refunded", err)
		}
		return
	}
	if s.logg != nil {
		s.logg.Info(logCtx, "payment refunded")
	}
}

func (s *service) MarkReady(ctx context.Context, storeID, orderID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.StoreID != storeID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to store")
		}
		if order.Status == enums.OrderStatusReady {
			return nil
		}
		if order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be marked ready", order.Status))
		}

		if err := repo.Update(ctx, order.ID, map[string]any{
			"status": enums.OrderStatusReady,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderReady,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderReadyEvent{
				OrderID: order.ID,
				StoreID: order.StoreID,
			},
		})
	})
}

// ConfirmFromPayment applies a successful payment intent to a pending order.
// Webhook replays on an already-confirmed order are accepted silently.
func (s *service) ConfirmFromPayment(ctx context.Context, input ConfirmInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.IntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	method := input.Method
	if method == "" {
		method = enums.PaymentMethodCard
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		paymentRepo := s.payments.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		ok, err := repo.ConfirmIfPending(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !ok {
			if order.Status == enums.OrderStatusConfirmed && order.Payment != nil {
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be confirmed", order.Status))
		}

		payment := &models.Payment{
			OrderID:               order.ID,
			AmountCents:           input.AmountCents,
			Method:                method,
			StripePaymentIntentID: input.IntentID,
		}
		if _, err := paymentRepo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderConfirmedEvent{
				OrderID:     order.ID,
				StoreID:     order.StoreID,
				IntentID:    input.IntentID,
				AmountCents: input.AmountCents,
			},
		})
	})
}

// Complete marks an order completed once its pickup window has passed. The
// conditional update means a cancel that slipped in first wins and Complete
// reports false.
func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	completed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		ok, err := repo.CompleteIfActive(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		if !ok {
			return nil
		}
		completed = true

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderCompletedEvent{
				OrderID: order.ID,
				StoreID: order.StoreID,
			},
		})
	})
	return completed, err
}

// Payout transfers the vendor's share of a completed order. Skips quietly
// when there is nothing to pay out or the store has no payout account.
func (s *service) Payout(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.Payment == nil || order.Payment.IsPayoutFinished {
		return nil
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(s.logg.WithStoreID(ctx, order.StoreID.String()), order.ID.String())
	}

	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.PayoutAccountID == nil || *store.PayoutAccountID == "" {
		if s.logg != nil {
			s.logg.Warn(logCtx, "store has no payout account, skipping transfer")
		}
		return nil
	}

	amount := int64(order.Payment.AmountCents)
	commission := decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(s.cfg.CommissionRate)).
		Round(0)
	vendorCents := amount - commission.IntPart()

	if vendorCents > 0 {
		transferID, err := s.gateway.CreateTransfer(ctx, *store.PayoutAccountID, vendorCents,
			s.cfg.Currency, order.Payment.StripePaymentIntentID)
		if err != nil {
			return err
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(logCtx, "transfer_id", transferID), "vendor payout transferred")
		}
	}

	if err := s.payments.MarkPayoutFinished(ctx, order.Payment.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout finished")
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/platevine/platevine-backend/internal/accounts"
	"github.com/platevine/platevine-backend/internal/orders"
	"github.com/platevine/platevine-backend/pkg/config"
	"github.com/platevine/platevine-backend/pkg/logger"
)

// batchLimit caps how many rows a single sweep touches per phase so one slow
// run cannot starve the cron worker.
const batchLimit = 500

// Sweeper is the periodic janitor: it expires unpaid orders, completes orders
// whose pickup window passed, pays vendors out, and purges stale account data.
type Sweeper struct {
	orders   orders.Repository
	svc      orders.Service
	accounts accounts.Repository
	logg     *logger.Logger
	cfg      config.OrdersConfig
	now      func() time.Time
}

// SweeperParams wires the sweeper dependencies.
type SweeperParams struct {
	Orders   orders.Repository
	Service  orders.Service
	Accounts accounts.Repository
	Logger   *logger.Logger
	Config   config.OrdersConfig
	Now      func() time.Time
}

// NewSweeper builds a sweeper with the required dependencies.
func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		orders:   params.Orders,
		svc:      params.Service,
		accounts: params.Accounts,
		logg:     params.Logger,
		cfg:      params.Config,
		now:      now,
	}, nil
}

// Sweep runs all four phases. Each phase and each order is handled
// independently; failures are collected and the rest keeps going. Every write
// behind Sweep is conditionally guarded, so overlapping sweeps are safe.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()
	var errs error

	if err := s.purgeVerifications(ctx, now); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := s.expireOrders(ctx, now); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := s.completeOrders(ctx, now); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := s.retireAccounts(ctx, now); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (s *Sweeper) purgeVerifications(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.cfg.VerificationGrace)
	purged, err := s.accounts.DeleteExpiredVerifications(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge verification requests: %w", err)
	}
	if purged > 0 && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "purged", purged), "expired verification requests removed")
	}
	return nil
}

func (s *Sweeper) expireOrders(ctx context.Context, now time.Time) error {
	ids, err := s.orders.FindExpiredIDs(ctx, now, batchLimit)
	if err != nil {
		return fmt.Errorf("find expired orders: %w", err)
	}

	var errs error
	for _, id := range ids {
		if err := s.svc.CancelExpired(ctx, id); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithOrderID(ctx, id.String()), "order expired")
		}
	}
	return errs
}

func (s *Sweeper) completeOrders(ctx context.Context, now time.Time) error {
	due, err := s.orders.FindActivePastSlot(ctx, now, batchLimit)
	if err != nil {
		return fmt.Errorf("find orders past slot: %w", err)
	}

	var errs error
	for i := range due {
		order := &due[i]
		logCtx := ctx
		if s.logg != nil {
			logCtx = s.logg.WithOrderID(ctx, order.ID.String())
		}

		done, err := s.svc.Complete(ctx, order.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("complete order %s: %w", order.ID, err))
			continue
		}
		if !done {
			// A cancel won the race; nothing to pay out.
			continue
		}
		if s.logg != nil {
			s.logg.Info(logCtx, "order completed")
		}

		if err := s.svc.Payout(ctx, order); err != nil {
			// The order is already completed and leaves this query's scope, so
			// there is no automatic retry. The payment row stays open
			// (is_payout_finished = false) for manual reconciliation.
			errs = multierr.Append(errs, fmt.Errorf("payout order %s: %w", order.ID, err))
		}
	}
	return errs
}

func (s *Sweeper) retireAccounts(ctx context.Context, now time.Time) error {
	retired, err := s.accounts.SoftDeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("soft delete accounts: %w", err)
	}
	if retired > 0 && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "retired", retired), "accounts past deletion grace removed")
	}
	return nil
}

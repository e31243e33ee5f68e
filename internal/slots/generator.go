package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/stores"
	"github.com/platevine/platevine-backend/pkg/db/models"
	"github.com/platevine/platevine-backend/pkg/enums"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
	"github.com/platevine/platevine-backend/pkg/logger"
	"github.com/platevine/platevine-backend/pkg/outbox"
)

// lookahead is how many days past the cursor a generated slot day sits. A
// store therefore always has a rolling week of bookable windows.
const lookaheadDays = 6

// slotDuration is the fixed pickup window length.
const slotDuration = 30 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Generator materializes dated slots from weekly templates and advances the
// generation watermark.
type Generator struct {
	repo   Repository
	stores stores.Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	loc    *time.Location
	now    func() time.Time
}

// GeneratorParams wires the generator dependencies.
type GeneratorParams struct {
	Repo     Repository
	Stores   stores.Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

// SlotsGeneratedEvent records one store's slots being materialized for a date.
type SlotsGeneratedEvent struct {
	StoreID   uuid.UUID `json:"store_id"`
	Date      string    `json:"date"`
	SlotCount int       `json:"slot_count"`
}

// NewGenerator builds a slot generator with the required dependencies.
func NewGenerator(params GeneratorParams) (*Generator, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("slots repository required")
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
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		repo:   params.Repo,
		stores: params.Stores,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
		loc:    loc,
		now:    now,
	}, nil
}

// InitializeSlots catches the watermark up to today. Called once at worker
// start so a worker that was down for days backfills the missed windows.
func (g *Generator) InitializeSlots(ctx context.Context) error {
	from, err := g.cursor(ctx)
	if err != nil {
		return err
	}
	today := dateOf(g.now().In(g.loc))
	if !from.Before(today) {
		return nil
	}
	return g.StartSlotGeneration(ctx, from)
}

// StartSlotGeneration runs the cursor from the given date up to (but not
// including) today. Each day commits its slots and the advanced watermark in
// one transaction, so a crash mid-run resumes exactly where it stopped.
func (g *Generator) StartSlotGeneration(ctx context.Context, from time.Time) error {
	cursor := dateOf(from.In(g.loc))
	today := dateOf(g.now().In(g.loc))

	for cursor.Before(today) {
		if err := g.generateDay(ctx, cursor); err != nil {
			return err
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return nil
}

func (g *Generator) generateDay(ctx context.Context, cursor time.Time) error {
	target := cursor.AddDate(0, 0, lookaheadDays)
	dayEnd := target.AddDate(0, 0, 1)

	return g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)
		storeRepo := g.stores.WithTx(tx)

		liveStores, err := storeRepo.ListLiveForGeneration(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores for generation")
		}

		for _, store := range liveStores {
			exists, err := repo.HasSlotsInRange(ctx, store.ID, target, dayEnd)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing slots")
			}
			if exists {
				continue
			}

			templates, err := repo.ListTemplatesByStore(ctx, store.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slot templates")
			}

			slots, err := g.buildSlots(store, templates, target)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				continue
			}
			if err := repo.CreateSlots(ctx, slots); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create slots")
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventSlotsGenerated,
				AggregateType: enums.AggregateStore,
				AggregateID:   store.ID,
				Version:       1,
				Data: SlotsGeneratedEvent{
					StoreID:   store.ID,
					Date:      target.Format("2006-01-02"),
					SlotCount: len(slots),
				},
			}
			if err := g.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}

			if g.logg != nil {
				logCtx := g.logg.WithFields(ctx, map[string]any{
					"store_id": store.ID.String(),
					"date":     target.Format("2006-01-02"),
					"slots":    len(slots),
				})
				g.logg.Info(logCtx, "slots generated")
			}
		}

		if err := repo.SaveMark(ctx, cursor.AddDate(0, 0, 1)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance generation mark")
		}
		return nil
	})
}

func (g *Generator) buildSlots(store models.Store, templates []models.SlotTemplate, date time.Time) ([]models.Slot, error) {
	weekday := int(date.Weekday())
	var slots []models.Slot
	for _, template := range templates {
		if template.DayOfWeek != weekday {
			continue
		}
		start, err := StartOnDate(template.StartTime, date, g.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err,
				fmt.Sprintf("template %s has invalid start time", template.ID))
		}
		slots = append(slots, models.Slot{
			StoreID:   store.ID,
			StartTime: start,
			EndTime:   start.Add(slotDuration),
			MaxOrders: store.SlotMaxOrders,
		})
	}
	return slots, nil
}

// cursor reads the watermark, defaulting to a week ago when none exists yet.
func (g *Generator) cursor(ctx context.Context) (time.Time, error) {
	mark, err := g.repo.GetMark(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return dateOf(g.now().In(g.loc)).AddDate(0, 0, -lookaheadDays), nil
		}
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load generation mark")
	}
	return dateOf(mark.LastGeneratedThrough.In(g.loc)), nil
}

// StartOnDate combines an "HH:MM" wall-clock time with a calendar date.
func StartOnDate(hhmm string, date time.Time, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

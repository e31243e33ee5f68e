package slots

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/stores"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
)

// AvailableSlot is a bookable pickup window. SlotID is nil for windows that a
// template promises but the generator has not materialized yet.
type AvailableSlot struct {
	SlotID    *uuid.UUID `json:"slot_id,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Remaining int        `json:"remaining"`
}

// AvailabilityService answers the storefront "which windows can I book" query.
type AvailabilityService struct {
	repo   Repository
	stores stores.Repository
	loc    *time.Location
	now    func() time.Time
}

// NewAvailabilityService builds the availability read surface.
func NewAvailabilityService(repo Repository, storeRepo stores.Repository, loc *time.Location, now func() time.Time) (*AvailabilityService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "slots repository required")
	}
	if storeRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stores repository required")
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{repo: repo, stores: storeRepo, loc: loc, now: now}, nil
}

// ForDate lists the store's bookable windows on the given calendar date.
// Generated slots appear with their live remaining capacity; template windows
// without a generated slot yet appear at full capacity. Past starts are
// dropped either way.
func (s *AvailabilityService) ForDate(ctx context.Context, storeID uuid.UUID, date time.Time) ([]AvailableSlot, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	now := s.now()

	generated, err := s.repo.ListSlotsInRange(ctx, storeID, dayStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slots")
	}

	available := make([]AvailableSlot, 0, len(generated))
	taken := make(map[int64]struct{}, len(generated))
	for _, slot := range generated {
		taken[slot.StartTime.Unix()] = struct{}{}
		if !slot.StartTime.After(now) {
			continue
		}
		count, err := s.repo.CountActiveOrdersOnSlot(ctx, slot.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count slot orders")
		}
		remaining := slot.MaxOrders - int(count)
		if remaining <= 0 {
			continue
		}
		id := slot.ID
		available = append(available, AvailableSlot{
			SlotID:    &id,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Remaining: remaining,
		})
	}

	templates, err := s.repo.ListTemplatesByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slot templates")
	}
	weekday := int(dayStart.Weekday())
	for _, template := range templates {
		if template.DayOfWeek != weekday {
			continue
		}
		start, err := StartOnDate(template.StartTime, dayStart, s.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse template start time")
		}
		if _, exists := taken[start.Unix()]; exists {
			continue
		}
		if !start.After(now) {
			continue
		}
		available = append(available, AvailableSlot{
			StartTime: start,
			EndTime:   start.Add(slotDuration),
			Remaining: store.SlotMaxOrders,
		})
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].StartTime.Before(available[j].StartTime)
	})
	return available, nil
}

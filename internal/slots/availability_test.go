package slots

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platevine/platevine-backend/pkg/db/models"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
)

type countingSlotRepo struct {
	fakeSlotRepo
	ordersPerSlot map[uuid.UUID]int64
}

func (c *countingSlotRepo) CountActiveOrdersOnSlot(_ context.Context, slotID uuid.UUID) (int64, error) {
	return c.ordersPerSlot[slotID], nil
}

func TestAvailabilityMergesTemplatesAndSlots(t *testing.T) {
	store := liveStore(10)
	generated := models.Slot{
		ID:        uuid.New(),
		StoreID:   store.ID,
		StartTime: time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 5, 9, 30, 0, 0, time.UTC),
		MaxOrders: 10,
	}
	repo := &countingSlotRepo{
		fakeSlotRepo: fakeSlotRepo{
			templates: []models.SlotTemplate{
				{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 6, StartTime: "09:00"},
				{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 6, StartTime: "14:00"},
			},
			slots: []models.Slot{generated},
		},
		ordersPerSlot: map[uuid.UUID]int64{generated.ID: 4},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}

	svc, err := NewAvailabilityService(repo, storeRepo, time.UTC, func() time.Time { return testNow })
	require.NoError(t, err)

	available, err := svc.ForDate(context.Background(), store.ID, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, available, 2)

	// The generated 09:00 slot carries its live remaining capacity; the
	// 14:00 template window is not materialized yet and shows full capacity.
	assert.NotNil(t, available[0].SlotID)
	assert.Equal(t, generated.StartTime, available[0].StartTime)
	assert.Equal(t, 6, available[0].Remaining)

	assert.Nil(t, available[1].SlotID)
	assert.Equal(t, time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC), available[1].StartTime)
	assert.Equal(t, available[1].StartTime.Add(30*time.Minute), available[1].EndTime)
	assert.Equal(t, 10, available[1].Remaining)
}

func TestAvailabilityDropsFullSlots(t *testing.T) {
	store := liveStore(5)
	generated := models.Slot{
		ID:        uuid.New(),
		StoreID:   store.ID,
		StartTime: time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 5, 9, 30, 0, 0, time.UTC),
		MaxOrders: 5,
	}
	repo := &countingSlotRepo{
		fakeSlotRepo:  fakeSlotRepo{slots: []models.Slot{generated}},
		ordersPerSlot: map[uuid.UUID]int64{generated.ID: 5},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}

	svc, err := NewAvailabilityService(repo, storeRepo, time.UTC, func() time.Time { return testNow })
	require.NoError(t, err)

	available, err := svc.ForDate(context.Background(), store.ID, generated.StartTime)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestAvailabilityDropsPastWindows(t *testing.T) {
	store := liveStore(5)
	repo := &countingSlotRepo{
		fakeSlotRepo: fakeSlotRepo{
			templates: []models.SlotTemplate{
				// Monday windows before and after "now" (10:00).
				{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 1, StartTime: "08:00"},
				{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 1, StartTime: "17:00"},
			},
		},
		ordersPerSlot: map[uuid.UUID]int64{},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}

	svc, err := NewAvailabilityService(repo, storeRepo, time.UTC, func() time.Time { return testNow })
	require.NoError(t, err)

	available, err := svc.ForDate(context.Background(), store.ID, testNow)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, time.Date(2026, 8, 31, 17, 0, 0, 0, time.UTC), available[0].StartTime)
}

func TestAvailabilityUnknownStore(t *testing.T) {
	repo := &countingSlotRepo{ordersPerSlot: map[uuid.UUID]int64{}}
	storeRepo := &fakeStoreRepo{}

	svc, err := NewAvailabilityService(repo, storeRepo, time.UTC, func() time.Time { return testNow })
	require.NoError(t, err)

	_, err = svc.ForDate(context.Background(), uuid.New(), testNow)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

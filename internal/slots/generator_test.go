package slots

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/stores"
	"github.com/platevine/platevine-backend/pkg/db/models"
	"github.com/platevine/platevine-backend/pkg/outbox"
)

type fakeSlotRepo struct {
	templates []models.SlotTemplate
	slots     []models.Slot
	mark      *models.SlotGenerationMark
	saveCalls []time.Time
}

func (f *fakeSlotRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeSlotRepo) CreateTemplate(_ context.Context, t *models.SlotTemplate) (*models.SlotTemplate, error) {
	f.templates = append(f.templates, *t)
	return t, nil
}

func (f *fakeSlotRepo) FindTemplate(_ context.Context, id uuid.UUID) (*models.SlotTemplate, error) {
	for i := range f.templates {
		if f.templates[i].ID == id {
			return &f.templates[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSlotRepo) ListTemplatesByStore(_ context.Context, storeID uuid.UUID) ([]models.SlotTemplate, error) {
	var out []models.SlotTemplate
	for _, t := range f.templates {
		if t.StoreID == storeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	out := f.templates[:0]
	for _, t := range f.templates {
		if t.ID != id {
			out = append(out, t)
		}
	}
	f.templates = out
	return nil
}

func (f *fakeSlotRepo) CreateSlots(_ context.Context, slots []models.Slot) error {
	f.slots = append(f.slots, slots...)
	return nil
}

func (f *fakeSlotRepo) HasSlotsInRange(_ context.Context, storeID uuid.UUID, from, to time.Time) (bool, error) {
	for _, s := range f.slots {
		if s.StoreID == storeID && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSlotRepo) ListSlotsInRange(_ context.Context, storeID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	var out []models.Slot
	for _, s := range f.slots {
		if s.StoreID == storeID && !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) CountActiveOrdersOnSlot(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeSlotRepo) GetMark(context.Context) (*models.SlotGenerationMark, error) {
	if f.mark == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.mark, nil
}

func (f *fakeSlotRepo) SaveMark(_ context.Context, through time.Time) error {
	f.mark = &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: through}
	f.saveCalls = append(f.saveCalls, through)
	return nil
}

type fakeStoreRepo struct {
	stores []models.Store
}

func (f *fakeStoreRepo) WithTx(tx *gorm.DB) stores.Repository { return f }

func (f *fakeStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	for i := range f.stores {
		if f.stores[i].ID == id && !f.stores[i].IsDeleted {
			return &f.stores[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepo) ListLiveForGeneration(context.Context) ([]models.Store, error) {
	var out []models.Store
	for _, s := range f.stores {
		if !s.IsDeleted && s.PublishedFirstSlots {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStoreRepo) SetPublishedFirstSlots(_ context.Context, id uuid.UUID, published bool) error {
	for i := range f.stores {
		if f.stores[i].ID == id {
			f.stores[i].PublishedFirstSlots = published
		}
	}
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestGenerator(t *testing.T, repo *fakeSlotRepo, storeRepo *fakeStoreRepo, now time.Time) (*Generator, *fakeOutbox) {
	t.Helper()
	ob := &fakeOutbox{}
	gen, err := NewGenerator(GeneratorParams{
		Repo:     repo,
		Stores:   storeRepo,
		Tx:       fakeTxRunner{},
		Outbox:   ob,
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return gen, ob
}

func liveStore(maxOrders int) models.Store {
	return models.Store{
		ID:                  uuid.New(),
		Name:                "test store",
		SlotMaxOrders:       maxOrders,
		PublishedFirstSlots: true,
	}
}

// Monday 2026-08-31 in UTC.
var testNow = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

func TestGeneratorMaterializesTemplateWindows(t *testing.T) {
	store := liveStore(20)
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 1, StartTime: "09:00"},
		},
		mark: &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: testNow.AddDate(0, 0, -1)},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, ob := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))

	// Cursor was Sunday 2026-08-30, so the single generated day targets
	// Saturday 2026-09-05. The Monday template has no window there.
	assert.Empty(t, repo.slots)
	assert.Empty(t, ob.events)
	require.NotNil(t, repo.mark)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), repo.mark.LastGeneratedThrough)
}

func TestGeneratorCreatesMondaySlot(t *testing.T) {
	store := liveStore(20)
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 1, StartTime: "09:00"},
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 3, StartTime: "12:30"},
		},
		mark: &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: testNow.AddDate(0, 0, -7)},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, _ := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))

	// A 7-day backfill targets every date from 2026-08-30 through
	// 2026-09-05, which contains exactly one Monday and one Wednesday.
	require.Len(t, repo.slots, 2)

	monday := repo.slots[0]
	assert.Equal(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), monday.StartTime)
	assert.Equal(t, monday.StartTime.Add(30*time.Minute), monday.EndTime)
	assert.Equal(t, 20, monday.MaxOrders)

	wednesday := repo.slots[1]
	assert.Equal(t, time.Date(2026, 9, 2, 12, 30, 0, 0, time.UTC), wednesday.StartTime)
}

func TestGeneratorSkipsDayWithExistingSlots(t *testing.T) {
	store := liveStore(10)
	existing := models.Slot{
		ID:        uuid.New(),
		StoreID:   store.ID,
		StartTime: time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 5, 9, 30, 0, 0, time.UTC),
		MaxOrders: 10,
	}
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 6, StartTime: "11:00"},
		},
		slots: []models.Slot{existing},
		mark:  &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: testNow.AddDate(0, 0, -1)},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, ob := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))

	// Target date Saturday 2026-09-05 already has a slot; the run must not
	// add another even though a Saturday template matches.
	assert.Len(t, repo.slots, 1)
	assert.Empty(t, ob.events)
}

func TestGeneratorIdempotentRerun(t *testing.T) {
	store := liveStore(10)
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 6, StartTime: "11:00"},
		},
		mark: &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: testNow.AddDate(0, 0, -1)},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, _ := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))
	firstCount := len(repo.slots)
	require.Equal(t, 1, firstCount)

	// Mark has advanced to today; a second initialize is a no-op.
	require.NoError(t, gen.InitializeSlots(context.Background()))
	assert.Len(t, repo.slots, firstCount)
}

func TestGeneratorSkipsUnpublishedStores(t *testing.T) {
	store := liveStore(10)
	store.PublishedFirstSlots = false
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 6, StartTime: "11:00"},
		},
		mark: &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: testNow.AddDate(0, 0, -1)},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, _ := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))
	assert.Empty(t, repo.slots)
}

func TestGeneratorDefaultsCursorWithoutMark(t *testing.T) {
	store := liveStore(10)
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 1, StartTime: "09:00"},
		},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, _ := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))

	// Without a mark the cursor defaults to six days back, so six days run
	// and the mark lands on today.
	assert.Len(t, repo.saveCalls, 6)
	require.NotNil(t, repo.mark)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), repo.mark.LastGeneratedThrough)
}

func TestGeneratorEmitsSlotsGeneratedEvent(t *testing.T) {
	store := liveStore(10)
	repo := &fakeSlotRepo{
		templates: []models.SlotTemplate{
			{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 6, StartTime: "11:00"},
		},
		mark: &models.SlotGenerationMark{ID: 1, LastGeneratedThrough: testNow.AddDate(0, 0, -1)},
	}
	storeRepo := &fakeStoreRepo{stores: []models.Store{store}}
	gen, ob := newTestGenerator(t, repo, storeRepo, testNow)

	require.NoError(t, gen.InitializeSlots(context.Background()))

	require.Len(t, ob.events, 1)
	assert.Equal(t, store.ID, ob.events[0].AggregateID)
	data, ok := ob.events[0].Data.(SlotsGeneratedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, data.SlotCount)
	assert.Equal(t, "2026-09-05", data.Date)
}

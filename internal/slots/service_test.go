package slots

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platevine/platevine-backend/pkg/db/models"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
)

type publishTrackingStoreRepo struct {
	*fakeStoreRepo
	publishCalls int
}

func (f *publishTrackingStoreRepo) SetPublishedFirstSlots(ctx context.Context, id uuid.UUID, published bool) error {
	f.publishCalls++
	return f.fakeStoreRepo.SetPublishedFirstSlots(ctx, id, published)
}

func newTemplateService(t *testing.T, storeRepo *publishTrackingStoreRepo) (Service, *fakeSlotRepo) {
	t.Helper()
	repo := &fakeSlotRepo{}
	svc, err := NewService(repo, storeRepo)
	require.NoError(t, err)
	return svc, repo
}

func TestCreateTemplateOpensStoreForGeneration(t *testing.T) {
	store := models.Store{ID: uuid.New(), Name: "test store", SlotMaxOrders: 10}
	storeRepo := &publishTrackingStoreRepo{fakeStoreRepo: &fakeStoreRepo{stores: []models.Store{store}}}
	svc, repo := newTemplateService(t, storeRepo)

	created, err := svc.CreateTemplate(context.Background(), CreateTemplateInput{
		StoreID:   store.ID,
		DayOfWeek: 1,
		StartTime: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, store.ID, created.StoreID)
	require.Len(t, repo.templates, 1)

	assert.Equal(t, 1, storeRepo.publishCalls)
	assert.True(t, storeRepo.stores[0].PublishedFirstSlots,
		"first template must open the store for slot generation")
}

func TestCreateTemplateSkipsAlreadyPublishedStore(t *testing.T) {
	store := liveStore(10)
	storeRepo := &publishTrackingStoreRepo{fakeStoreRepo: &fakeStoreRepo{stores: []models.Store{store}}}
	svc, _ := newTemplateService(t, storeRepo)

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateInput{
		StoreID:   store.ID,
		DayOfWeek: 3,
		StartTime: "12:30",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, storeRepo.publishCalls)
}

func TestCreateTemplateValidatesInput(t *testing.T) {
	store := liveStore(10)
	storeRepo := &publishTrackingStoreRepo{fakeStoreRepo: &fakeStoreRepo{stores: []models.Store{store}}}
	svc, repo := newTemplateService(t, storeRepo)

	cases := []CreateTemplateInput{
		{StoreID: store.ID, DayOfWeek: 7, StartTime: "09:00"},
		{StoreID: store.ID, DayOfWeek: -1, StartTime: "09:00"},
		{StoreID: store.ID, DayOfWeek: 1, StartTime: "9am"},
		{StoreID: uuid.Nil, DayOfWeek: 1, StartTime: "09:00"},
	}
	for _, input := range cases {
		_, err := svc.CreateTemplate(context.Background(), input)
		require.Error(t, err, "input %+v", input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}
	assert.Empty(t, repo.templates)
	assert.Equal(t, 0, storeRepo.publishCalls)
}

func TestCreateTemplateUnknownStore(t *testing.T) {
	storeRepo := &publishTrackingStoreRepo{fakeStoreRepo: &fakeStoreRepo{}}
	svc, _ := newTemplateService(t, storeRepo)

	_, err := svc.CreateTemplate(context.Background(), CreateTemplateInput{
		StoreID:   uuid.New(),
		DayOfWeek: 1,
		StartTime: "09:00",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteTemplateRejectsForeignStore(t *testing.T) {
	store := liveStore(10)
	storeRepo := &publishTrackingStoreRepo{fakeStoreRepo: &fakeStoreRepo{stores: []models.Store{store}}}
	svc, repo := newTemplateService(t, storeRepo)

	template := models.SlotTemplate{ID: uuid.New(), StoreID: store.ID, DayOfWeek: 1, StartTime: "09:00"}
	repo.templates = append(repo.templates, template)

	err := svc.DeleteTemplate(context.Background(), uuid.New(), template.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Len(t, repo.templates, 1)
}

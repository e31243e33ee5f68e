package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platevine/platevine-backend/internal/stores"
	"github.com/platevine/platevine-backend/pkg/db"
	"github.com/platevine/platevine-backend/pkg/db/models"
	pkgerrors "github.com/platevine/platevine-backend/pkg/errors"
)

// Service covers vendor-facing slot template management.
type Service interface {
	CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.SlotTemplate, error)
	ListTemplates(ctx context.Context, storeID uuid.UUID) ([]models.SlotTemplate, error)
	DeleteTemplate(ctx context.Context, storeID, templateID uuid.UUID) error
}

// CreateTemplateInput carries a new weekly window definition.
type CreateTemplateInput struct {
	StoreID   uuid.UUID
	DayOfWeek int
	StartTime string
}

type service struct {
	repo   Repository
	stores stores.Repository
}

// NewService wires a slot template service with the provided repositories.
func NewService(repo Repository, storeRepo stores.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("slots repository required")
	}
	if storeRepo == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	return &service{repo: repo, stores: storeRepo}, nil
}

func (s *service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.SlotTemplate, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "day of week must be between 0 and 6")
	}
	if _, err := time.Parse("15:04", input.StartTime); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start time must be HH:MM")
	}

	store, err := s.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}

	template := &models.SlotTemplate{
		StoreID:   input.StoreID,
		DayOfWeek: input.DayOfWeek,
		StartTime: input.StartTime,
	}
	created, err := s.repo.CreateTemplate(ctx, template)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "template already exists for this day and time")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create slot template")
	}

	// The first template opens the store for rolling slot generation.
	if !store.PublishedFirstSlots {
		if err := s.stores.SetPublishedFirstSlots(ctx, input.StoreID, true); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open store for slot generation")
		}
	}
	return created, nil
}

func (s *service) ListTemplates(ctx context.Context, storeID uuid.UUID) ([]models.SlotTemplate, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	templates, err := s.repo.ListTemplatesByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slot templates")
	}
	return templates, nil
}

func (s *service) DeleteTemplate(ctx context.Context, storeID, templateID uuid.UUID) error {
	if storeID == uuid.Nil || templateID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id and template id required")
	}
	template, err := s.repo.FindTemplate(ctx, templateID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load slot template")
	}
	if template.StoreID != storeID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "template does not belong to store")
	}
	if err := s.repo.DeleteTemplate(ctx, templateID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete slot template")
	}
	return nil
}

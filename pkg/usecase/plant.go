package usecase

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
)

// PlantUseCase manages the plant collection itself
type PlantUseCase struct {
	plants   interfaces.PlantRepository
	engine   interfaces.AnalysisEngine
	validate *validator.Validate
}

func NewPlantUseCase(plants interfaces.PlantRepository, engine interfaces.AnalysisEngine) *PlantUseCase {
	return &PlantUseCase{
		plants:   plants,
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreatePlant registers a new plant with an empty memory and no entries
func (uc *PlantUseCase) CreatePlant(ctx context.Context, input model.PlantInput) (*model.Plant, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, goerr.Wrap(model.ErrInvalidInput, "invalid plant input", goerr.V("reason", err.Error()))
	}

	plant := &model.Plant{
		ID:                model.NewPlantID(),
		Name:              input.Name,
		Species:           input.Species,
		Location:          input.Location,
		SunExposure:       input.SunExposure,
		WateringFrequency: input.WateringFrequency,
		SoilType:          input.SoilType,
		CreatedAt:         time.Now().UTC(),
		Entries:           []model.Entry{},
	}

	if err := uc.plants.Upsert(ctx, plant); err != nil {
		return nil, goerr.Wrap(err, "failed to save plant", goerr.V(model.PlantIDKey, plant.ID))
	}

	logging.From(ctx).Info("plant created", "plant_id", plant.ID, "species", plant.Species)
	return plant, nil
}

func (uc *PlantUseCase) ListPlants(ctx context.Context) ([]*model.Plant, error) {
	plants, err := uc.plants.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list plants")
	}
	return plants, nil
}

func (uc *PlantUseCase) GetPlant(ctx context.Context, id model.PlantID) (*model.Plant, error) {
	plant, err := uc.plants.Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get plant", goerr.V(model.PlantIDKey, id))
	}
	return plant, nil
}

// DeletePlant removes a plant and its history. Deleting an unknown plant succeeds.
func (uc *PlantUseCase) DeletePlant(ctx context.Context, id model.PlantID) error {
	if err := uc.plants.Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete plant", goerr.V(model.PlantIDKey, id))
	}
	logging.From(ctx).Info("plant deleted", "plant_id", id)
	return nil
}

// IdentifyPlant suggests species and care settings from a photo
func (uc *PlantUseCase) IdentifyPlant(ctx context.Context, img model.Image) (*model.Identification, error) {
	if uc.engine == nil {
		return nil, goerr.Wrap(model.ErrEngine, "analysis engine is not configured")
	}
	if len(img.Data) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidInput, "image is required")
	}

	id, err := uc.engine.Identify(ctx, img)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to identify plant")
	}
	return id, nil
}

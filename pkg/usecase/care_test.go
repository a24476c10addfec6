package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/repository/memory"
	"github.com/secmon-lab/plantops/pkg/repository/store"
	"github.com/secmon-lab/plantops/pkg/usecase"
)

func TestCareUseCase_QuickAudit(t *testing.T) {
	t.Run("returns audit without touching store", func(t *testing.T) {
		ctx := context.Background()
		blob := memory.New()
		engine := &mockAnalysisEngine{
			quickAuditFn: func(ctx context.Context, img model.Image) (*model.QuickAuditResult, error) {
				return &model.QuickAuditResult{
					Species:         "Ficus lyrata",
					HealthStatus:    "Stressed",
					UrgentCare:      []string{"Move away from draft"},
					ConfidenceScore: 0.9,
				}, nil
			},
		}
		uc := usecase.New(store.NewPlantStore(blob), usecase.WithAnalysisEngine(engine))

		result, err := uc.Care.QuickAudit(ctx, testImage)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Species).Equal("Ficus lyrata")

		_, err = blob.Get(ctx, store.CollectionKey)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("empty image is invalid", func(t *testing.T) {
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithAnalysisEngine(&mockAnalysisEngine{}))
		_, err := uc.Care.QuickAudit(context.Background(), model.Image{})
		gt.Error(t, err).Is(model.ErrInvalidInput)
	})
}

func TestCareUseCase_Tip(t *testing.T) {
	t.Run("caches per species until ttl expires", func(t *testing.T) {
		ctx := context.Background()
		var calls atomic.Int32
		engine := &mockAnalysisEngine{
			quickTipFn: func(ctx context.Context, species string) (string, error) {
				calls.Add(1)
				return "Tip for " + species, nil
			},
		}
		uc := usecase.New(store.NewPlantStore(memory.New()),
			usecase.WithAnalysisEngine(engine),
			usecase.WithTipTTL(time.Hour),
		)
		now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		usecase.SetCareClock(uc.Care, func() time.Time { return now })

		tip, err := uc.Care.Tip(ctx, "Aloe vera")
		gt.NoError(t, err).Required()
		gt.Value(t, tip).Equal("Tip for Aloe vera")

		_, err = uc.Care.Tip(ctx, " aloe VERA ")
		gt.NoError(t, err).Required()
		gt.Value(t, calls.Load()).Equal(int32(1))

		now = now.Add(2 * time.Hour)
		_, err = uc.Care.Tip(ctx, "Aloe vera")
		gt.NoError(t, err).Required()
		gt.Value(t, calls.Load()).Equal(int32(2))
	})

	t.Run("blank species is invalid", func(t *testing.T) {
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithAnalysisEngine(&mockAnalysisEngine{}))
		_, err := uc.Care.Tip(context.Background(), "  ")
		gt.Error(t, err).Is(model.ErrInvalidInput)
	})
}

func TestCareUseCase_RefreshTips(t *testing.T) {
	t.Run("fetches each distinct species once", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		for _, species := range []string{"Aloe vera", "aloe vera", "Ficus lyrata", ""} {
			p := fernPlant()
			p.Species = species
			gt.NoError(t, plants.Upsert(ctx, p)).Required()
		}

		var calls atomic.Int32
		engine := &mockAnalysisEngine{
			quickTipFn: func(ctx context.Context, species string) (string, error) {
				calls.Add(1)
				return "tip", nil
			},
		}
		uc := usecase.New(plants, usecase.WithAnalysisEngine(engine))

		gt.NoError(t, uc.Care.RefreshTips(ctx)).Required()
		gt.Value(t, calls.Load()).Equal(int32(2))

		// served from cache
		_, err := uc.Care.Tip(ctx, "Ficus lyrata")
		gt.NoError(t, err).Required()
		gt.Value(t, calls.Load()).Equal(int32(2))
	})

	t.Run("one failure does not stop other species", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		for _, species := range []string{"Aloe vera", "Ficus lyrata"} {
			p := fernPlant()
			p.Species = species
			gt.NoError(t, plants.Upsert(ctx, p)).Required()
		}

		var calls atomic.Int32
		engine := &mockAnalysisEngine{
			quickTipFn: func(ctx context.Context, species string) (string, error) {
				calls.Add(1)
				if species == "Aloe vera" {
					return "", errors.New("rate limited")
				}
				return "tip", nil
			},
		}
		uc := usecase.New(plants, usecase.WithAnalysisEngine(engine))

		gt.Value(t, uc.Care.RefreshTips(ctx)).NotNil()
		gt.Value(t, calls.Load()).Equal(int32(2))
	})
}

func TestDistinctSpecies(t *testing.T) {
	plants := []*model.Plant{
		{Species: "Ficus lyrata"},
		{Species: " aloe vera"},
		{Species: "Aloe Vera"},
		{Species: ""},
	}
	gt.Value(t, usecase.DistinctSpecies(plants)).Equal([]string{"Ficus lyrata", "aloe vera"})
}

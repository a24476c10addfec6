package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/async"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
)

// AlertPolicy decides when a committed entry raises a health alert.
// Zero values disable the corresponding rule.
type AlertPolicy struct {
	// Threshold alerts when the new score is strictly below it
	Threshold int
	// DropDelta alerts when the score fell by at least this much since the previous entry
	DropDelta int
}

func (p AlertPolicy) triggered(score int, previous *int) bool {
	if p.Threshold > 0 && score < p.Threshold {
		return true
	}
	if p.DropDelta > 0 && previous != nil && *previous-score >= p.DropDelta {
		return true
	}
	return false
}

// AnalysisUseCase runs observation analyses and commits their results
type AnalysisUseCase struct {
	plants    interfaces.PlantRepository
	images    interfaces.ImageRepository
	engine    interfaces.AnalysisEngine
	notifier  interfaces.Notifier
	assembler *ContextAssembler
	compactor MemoryCompactor
	alert     AlertPolicy
	metrics   *metrics.Collector
	locks     plantLocks
	now       func() time.Time
}

func NewAnalysisUseCase(plants interfaces.PlantRepository, engine interfaces.AnalysisEngine, assembler *ContextAssembler, compactor MemoryCompactor) *AnalysisUseCase {
	if compactor == nil {
		compactor = ReplaceCompactor{}
	}
	return &AnalysisUseCase{
		plants:    plants,
		engine:    engine,
		assembler: assembler,
		compactor: compactor,
		now:       time.Now,
	}
}

// SubmitObservation analyzes a new photo and notes for a plant and, only if the engine
// succeeds, appends the resulting Entry and replaces the plant's thought signature in
// one commit. Any failure before the commit leaves the store untouched.
// Submissions for the same plant are serialized; different plants run independently.
func (uc *AnalysisUseCase) SubmitObservation(ctx context.Context, plantID model.PlantID, img model.Image, userNotes string) (*model.Entry, error) {
	logger := logging.From(ctx).With("plant_id", plantID)

	if uc.engine == nil {
		return nil, goerr.Wrap(model.ErrEngine, "analysis engine is not configured")
	}
	if len(img.Data) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidInput, "observation image is required", goerr.V(model.PlantIDKey, plantID))
	}

	unlock := uc.locks.lock(plantID)
	defer unlock()

	plant, err := uc.plants.Get(ctx, plantID)
	if err != nil {
		uc.metrics.ObserveSubmission("not_found")
		return nil, goerr.Wrap(err, "failed to look up plant", goerr.V(model.PlantIDKey, plantID))
	}

	actx, err := uc.assembler.BuildAnalysisContext(plant, plant.Entries)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build analysis context", goerr.V(model.PlantIDKey, plantID))
	}

	observedAt := uc.now()
	result, err := uc.engine.Analyze(ctx, model.Observation{
		Image:     img,
		UserNotes: userNotes,
		Context:   *actx,
		Timestamp: observedAt,
	})
	if err != nil {
		uc.metrics.ObserveSubmission(submissionOutcome(err))
		return nil, goerr.Wrap(err, "observation analysis failed", goerr.V(model.PlantIDKey, plantID))
	}
	if result.HealthScore < 0 || result.HealthScore > 100 {
		uc.metrics.ObserveSubmission("malformed")
		return nil, goerr.Wrap(model.ErrMalformedResponse, "health score out of range",
			goerr.V(model.PlantIDKey, plantID),
			goerr.V("health_score", result.HealthScore),
		)
	}

	// The engine answered: the caller going away must not lose the result
	commitCtx := context.WithoutCancel(ctx)

	var ref model.ImageRef
	if uc.images != nil {
		ref, err = uc.images.Put(commitCtx, img)
		if err != nil {
			uc.metrics.ObserveSubmission("store_error")
			return nil, goerr.Wrap(err, "failed to store observation image", goerr.V(model.PlantIDKey, plantID))
		}
	}

	var (
		entry         model.Entry
		previousScore *int
	)
	updated, err := uc.plants.Update(commitCtx, plantID, func(p *model.Plant) error {
		ts := uc.now()
		if last := p.LatestEntry(); last != nil {
			score := last.HealthScore
			previousScore = &score
			// keep entries non-decreasing in time even if the clock stepped back
			if ts.Before(last.Timestamp) {
				ts = last.Timestamp
			}
		}

		entry = model.Entry{
			ID:          model.NewEntryID(),
			Timestamp:   ts,
			ImageRef:    ref,
			UserNotes:   userNotes,
			HealthScore: result.HealthScore,
			Analysis:    *result,
		}

		p.ThoughtSignature = uc.compactor.Compact(p.ThoughtSignature, result.UpdatedThoughtSignature)
		p.Entries = append(p.Entries, entry)
		return nil
	})
	if err != nil {
		uc.metrics.ObserveSubmission("store_error")
		return nil, goerr.Wrap(err, "failed to commit observation", goerr.V(model.PlantIDKey, plantID))
	}

	uc.metrics.ObserveSubmission("committed")
	uc.metrics.ObserveHealthScore(entry.HealthScore)
	logger.Info("observation committed",
		"entry_id", entry.ID,
		"health_score", entry.HealthScore,
		"entries", len(updated.Entries),
	)

	uc.maybeAlert(commitCtx, updated, entry, previousScore)

	return &entry, nil
}

func (uc *AnalysisUseCase) maybeAlert(ctx context.Context, plant *model.Plant, entry model.Entry, previous *int) {
	if uc.notifier == nil || !uc.alert.triggered(entry.HealthScore, previous) {
		return
	}

	alert := model.HealthAlert{
		PlantID:       plant.ID,
		PlantName:     plant.Name,
		Species:       plant.Species,
		Score:         entry.HealthScore,
		PreviousScore: previous,
		Summary:       entry.Analysis.CareSummary,
	}
	async.Dispatch(ctx, "health_alert", func(ctx context.Context) error {
		if err := uc.notifier.NotifyHealthAlert(ctx, alert); err != nil {
			return goerr.Wrap(err, "failed to send health alert", goerr.V(model.PlantIDKey, plant.ID))
		}
		return nil
	})
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, model.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, model.ErrEngine):
		return "engine_error"
	default:
		return "error"
	}
}

// plantLocks is a keyed mutex. Entries are dropped once no goroutine holds or waits on them.
type plantLocks struct {
	mu    sync.Mutex
	locks map[model.PlantID]*plantLock
}

type plantLock struct {
	mu   sync.Mutex
	refs int
}

func (l *plantLocks) lock(id model.PlantID) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[model.PlantID]*plantLock)
	}
	pl, ok := l.locks[id]
	if !ok {
		pl = &plantLock{}
		l.locks[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

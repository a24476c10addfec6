package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTipTTL         = 6 * time.Hour
	tipRefreshConcurrency = 3
)

type cachedTip struct {
	text      string
	fetchedAt time.Time
}

// CareUseCase serves stateless engine features: quick audits and per-species care tips.
// Tips are cached per species so dashboards do not wait on the engine.
type CareUseCase struct {
	plants interfaces.PlantRepository
	engine interfaces.AnalysisEngine
	ttl    time.Duration
	now    func() time.Time

	mu   sync.RWMutex
	tips map[string]cachedTip
}

func NewCareUseCase(plants interfaces.PlantRepository, engine interfaces.AnalysisEngine, ttl time.Duration) *CareUseCase {
	if ttl <= 0 {
		ttl = DefaultTipTTL
	}
	return &CareUseCase{
		plants: plants,
		engine: engine,
		ttl:    ttl,
		now:    time.Now,
		tips:   make(map[string]cachedTip),
	}
}

// Enabled reports whether an analysis engine backs the care features
func (uc *CareUseCase) Enabled() bool {
	return uc.engine != nil
}

// QuickAudit runs a rapid, stateless health audit of a photo. Nothing is stored.
func (uc *CareUseCase) QuickAudit(ctx context.Context, img model.Image) (*model.QuickAuditResult, error) {
	if uc.engine == nil {
		return nil, goerr.Wrap(model.ErrEngine, "analysis engine is not configured")
	}
	if len(img.Data) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidInput, "image is required")
	}

	result, err := uc.engine.QuickAudit(ctx, img)
	if err != nil {
		return nil, goerr.Wrap(err, "quick audit failed")
	}
	return result, nil
}

// Tip returns a short care tip for species, from cache when fresh
func (uc *CareUseCase) Tip(ctx context.Context, species string) (string, error) {
	key := speciesKey(species)
	if key == "" {
		return "", goerr.Wrap(model.ErrInvalidInput, "species is required")
	}

	uc.mu.RLock()
	cached, ok := uc.tips[key]
	uc.mu.RUnlock()
	if ok && uc.now().Sub(cached.fetchedAt) < uc.ttl {
		return cached.text, nil
	}

	return uc.fetchTip(ctx, species)
}

func (uc *CareUseCase) fetchTip(ctx context.Context, species string) (string, error) {
	if uc.engine == nil {
		return "", goerr.Wrap(model.ErrEngine, "analysis engine is not configured")
	}

	tip, err := uc.engine.QuickTip(ctx, species)
	if err != nil {
		return "", goerr.Wrap(err, "failed to fetch care tip", goerr.V("species", species))
	}

	uc.mu.Lock()
	uc.tips[speciesKey(species)] = cachedTip{text: tip, fetchedAt: uc.now()}
	uc.mu.Unlock()

	return tip, nil
}

// RefreshTips refetches the tip of every distinct species in the garden.
// One species failing does not stop the others; the first error is returned.
func (uc *CareUseCase) RefreshTips(ctx context.Context) error {
	plants, err := uc.plants.List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list plants")
	}

	species := distinctSpecies(plants)
	if len(species) == 0 {
		return nil
	}

	var eg errgroup.Group
	eg.SetLimit(tipRefreshConcurrency)
	for _, s := range species {
		eg.Go(func() error {
			if _, err := uc.fetchTip(ctx, s); err != nil {
				logging.From(ctx).Warn("care tip refresh failed", "species", s, "error", err)
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return goerr.Wrap(err, "care tip refresh incomplete", goerr.V("species_count", len(species)))
	}

	logging.From(ctx).Info("care tips refreshed", "species_count", len(species))
	return nil
}

func speciesKey(species string) string {
	return strings.ToLower(strings.TrimSpace(species))
}

func distinctSpecies(plants []*model.Plant) []string {
	seen := make(map[string]string)
	for _, p := range plants {
		key := speciesKey(p.Species)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = strings.TrimSpace(p.Species)
		}
	}

	out := make([]string, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
)

// CollectionKey is the single blob key holding the whole plant collection
const CollectionKey = "plantops_data_v1"

// PlantStore keeps the entire collection as one JSON array under CollectionKey.
// Every write is a read-modify-write of the whole collection under mu, so a
// write either lands completely or not at all.
type PlantStore struct {
	blob    interfaces.BlobStore
	key     string
	metrics *metrics.Collector
	mu      sync.Mutex
}

var _ interfaces.PlantRepository = &PlantStore{}

type PlantStoreOption func(*PlantStore)

// WithKey overrides CollectionKey
func WithKey(key string) PlantStoreOption {
	return func(s *PlantStore) {
		s.key = key
	}
}

func WithMetrics(m *metrics.Collector) PlantStoreOption {
	return func(s *PlantStore) {
		s.metrics = m
	}
}

func NewPlantStore(blob interfaces.BlobStore, opts ...PlantStoreOption) *PlantStore {
	s := &PlantStore{
		blob: blob,
		key:  CollectionKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load reads the collection. A missing key is an empty garden and an unparsable
// payload degrades to an empty garden with a warning. A medium that cannot be
// read returns an error wrapping ErrStore, so writes never land on top of it.
func (s *PlantStore) load(ctx context.Context) ([]*model.Plant, error) {
	data, err := s.blob.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		s.metrics.ObserveStoreReadError()
		return nil, goerr.Wrap(errors.Join(model.ErrStore, err), "failed to read plant collection", goerr.V(model.KeyKey, s.key))
	}

	var plants []*model.Plant
	if err := json.Unmarshal(data, &plants); err != nil {
		logging.From(ctx).Warn("failed to parse plant collection, using empty collection",
			"key", s.key,
			"bytes", len(data),
			"error", err,
		)
		s.metrics.ObserveStoreReadError()
		return nil, nil
	}

	// drop null elements so later code can rely on non-nil plants
	return slices.DeleteFunc(plants, func(p *model.Plant) bool { return p == nil }), nil
}

// loadForRead is load for List and Get: an unreadable medium reads as an empty garden
func (s *PlantStore) loadForRead(ctx context.Context) []*model.Plant {
	plants, err := s.load(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to read plant collection, using empty collection",
			"key", s.key,
			"error", err,
		)
		return nil
	}
	return plants
}

func (s *PlantStore) save(ctx context.Context, plants []*model.Plant) error {
	if plants == nil {
		plants = []*model.Plant{}
	}
	data, err := json.Marshal(plants)
	if err != nil {
		return goerr.Wrap(errors.Join(model.ErrStore, err), "failed to encode plant collection")
	}
	if err := s.blob.Put(ctx, s.key, data); err != nil {
		return goerr.Wrap(errors.Join(model.ErrStore, err), "failed to write plant collection", goerr.V(model.KeyKey, s.key))
	}
	return nil
}

func (s *PlantStore) List(ctx context.Context) ([]*model.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants := s.loadForRead(ctx)
	result := make([]*model.Plant, len(plants))
	for i, p := range plants {
		result[i] = p.Clone()
	}
	return result, nil
}

func (s *PlantStore) Get(ctx context.Context, id model.PlantID) (*model.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.loadForRead(ctx) {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "plant not found", goerr.V(model.PlantIDKey, id))
}

func (s *PlantStore) Upsert(ctx context.Context, plant *model.Plant) error {
	if plant == nil || plant.ID == "" {
		return goerr.Wrap(model.ErrInvalidInput, "plant ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.save(ctx, upsert(plants, plant.Clone()))
}

func (s *PlantStore) Delete(ctx context.Context, id model.PlantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := s.load(ctx)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(slices.Clone(plants), func(p *model.Plant) bool { return p.ID == id })
	if len(remaining) == len(plants) {
		return nil
	}
	return s.save(ctx, remaining)
}

func (s *PlantStore) Update(ctx context.Context, id model.PlantID, fn func(p *model.Plant) error) (*model.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(plants, func(p *model.Plant) bool { return p.ID == id })
	if idx < 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "plant not found", goerr.V(model.PlantIDKey, id))
	}

	updated := plants[idx].Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	if updated.ID != id {
		return nil, goerr.Wrap(model.ErrInvalidInput, "plant ID must not change",
			goerr.V(model.PlantIDKey, id),
			goerr.V("new_id", updated.ID),
		)
	}

	if err := s.save(ctx, upsert(plants, updated)); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// upsert replaces the element with equal ID in place, else appends
func upsert(plants []*model.Plant, plant *model.Plant) []*model.Plant {
	if idx := slices.IndexFunc(plants, func(p *model.Plant) bool { return p.ID == plant.ID }); idx >= 0 {
		plants[idx] = plant
		return plants
	}
	return append(plants, plant)
}

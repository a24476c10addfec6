package model

import (
	"time"

	"github.com/google/uuid"
)

// PlantID identifies a Plant. New IDs are UUIDv7 so their leading bits carry the creation instant.
type PlantID string

// NewPlantID generates a new time-ordered PlantID
func NewPlantID() PlantID {
	return PlantID(uuid.Must(uuid.NewV7()).String())
}

// EntryID identifies an Entry within its Plant
type EntryID string

// NewEntryID generates a new time-ordered EntryID
func NewEntryID() EntryID {
	return EntryID(uuid.Must(uuid.NewV7()).String())
}

// Plant is a tracked plant and its observation history.
// ThoughtSignature holds only the memory produced by the latest analysis; it is overwritten, never appended.
type Plant struct {
	ID                PlantID   `json:"id"`
	Name              string    `json:"name"`
	Species           string    `json:"species"`
	Location          string    `json:"location"`
	SunExposure       string    `json:"sunExposure"`
	WateringFrequency string    `json:"wateringFrequency"`
	SoilType          string    `json:"soilType"`
	CreatedAt         time.Time `json:"createdAt"`
	ThoughtSignature  string    `json:"thoughtSignature"`
	Entries           []Entry   `json:"entries"`
}

// Entry is one committed observation. It is immutable once appended to a Plant.
type Entry struct {
	ID          EntryID        `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	ImageRef    ImageRef       `json:"imageRef"`
	UserNotes   string         `json:"userNotes"`
	HealthScore int            `json:"healthScore"`
	Analysis    AnalysisResult `json:"analysis"`
}

// LatestEntry returns the most recent entry, or nil if the plant has none.
func (p *Plant) LatestEntry() *Entry {
	if len(p.Entries) == 0 {
		return nil
	}
	return &p.Entries[len(p.Entries)-1]
}

// Clone returns a deep copy so callers cannot mutate stored state through shared slices.
func (p *Plant) Clone() *Plant {
	cloned := *p
	if p.Entries != nil {
		cloned.Entries = make([]Entry, len(p.Entries))
		for i, e := range p.Entries {
			cloned.Entries[i] = e.clone()
		}
	}
	return &cloned
}

func (e Entry) clone() Entry {
	e.Analysis.OptimizationTips = cloneSlice(e.Analysis.OptimizationTips)
	e.Analysis.Sources = cloneSlice(e.Analysis.Sources)
	return e
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// PlantInput is the user-supplied part of a new Plant
type PlantInput struct {
	Name              string `json:"name" validate:"required,max=100"`
	Species           string `json:"species" validate:"required,max=200"`
	Location          string `json:"location" validate:"max=200"`
	SunExposure       string `json:"sunExposure" validate:"max=100"`
	WateringFrequency string `json:"wateringFrequency" validate:"max=100"`
	SoilType          string `json:"soilType" validate:"max=100"`
}

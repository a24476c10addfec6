package model

import "time"

// HistoryFact is the rendered form of one Entry inside an engine context
type HistoryFact struct {
	Date        string
	HealthScore int
	Notes       string
}

// AnalysisContext is the bounded context for a single observation analysis.
// History holds at most AnalysisWindow facts, oldest first.
type AnalysisContext struct {
	PlantName         string
	Species           string
	Location          string
	SunExposure       string
	WateringFrequency string
	Memory            string
	History           []HistoryFact
	SystemPrompt      string
}

// GardenLine summarizes one plant for the garden-wide chat context
type GardenLine struct {
	Name     string
	Species  string
	Location string
	// LatestScore is "unavailable" when the plant has no entries
	LatestScore string
}

// ChatContext scopes a chat session. Focus is nil for the whole-garden scope.
type ChatContext struct {
	Garden       []GardenLine
	Focus        *ChatFocus
	SystemPrompt string
}

// ChatFocus carries the full history of the plant a session is focused on
type ChatFocus struct {
	PlantID PlantID
	Name    string
	Species string
	History []HistoryFact
}

// Observation is the input of one analysis round trip
type Observation struct {
	Image     Image
	UserNotes string
	Context   AnalysisContext
	Timestamp time.Time
}

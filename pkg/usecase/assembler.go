package usecase

import (
	"bytes"
	_ "embed"
	"slices"
	"strconv"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

// AnalysisWindow is the number of most recent entries an analysis sees
const AnalysisWindow = 3

const (
	historyDateLayout = "2006-01-02"
	scoreUnavailable  = "unavailable"
)

//go:embed prompt/analysis_system.md
var analysisSystemPromptTmpl string

var analysisSystemPrompt = template.Must(template.New("analysis_system").Parse(analysisSystemPromptTmpl))

//go:embed prompt/chat_system.md
var chatSystemPromptTmpl string

var chatSystemPrompt = template.Must(template.New("chat_system").Parse(chatSystemPromptTmpl))

// ContextAssembler builds the bounded, deterministic context payloads handed to the engine.
// It holds no state; equal inputs always render equal prompts.
type ContextAssembler struct {
	window int
}

func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{window: AnalysisWindow}
}

// BuildAnalysisContext renders the plant profile, its memory signature and the last
// AnalysisWindow entries of prior, oldest first.
func (a *ContextAssembler) BuildAnalysisContext(plant *model.Plant, prior []model.Entry) (*model.AnalysisContext, error) {
	if plant == nil {
		return nil, goerr.Wrap(model.ErrInvalidInput, "plant is required")
	}

	entries := chronological(prior)
	if len(entries) > a.window {
		entries = entries[len(entries)-a.window:]
	}

	actx := &model.AnalysisContext{
		PlantName:         plant.Name,
		Species:           plant.Species,
		Location:          plant.Location,
		SunExposure:       plant.SunExposure,
		WateringFrequency: plant.WateringFrequency,
		Memory:            plant.ThoughtSignature,
		History:           historyFacts(entries),
	}

	var buf bytes.Buffer
	if err := analysisSystemPrompt.Execute(&buf, actx); err != nil {
		return nil, goerr.Wrap(err, "failed to render analysis context", goerr.V(model.PlantIDKey, plant.ID))
	}
	actx.SystemPrompt = buf.String()

	return actx, nil
}

// BuildChatContext renders one summary line per plant and, when focus is set, the focus
// plant's full history. A nil focus scopes the chat to the whole garden.
func (a *ContextAssembler) BuildChatContext(focus *model.Plant, all []*model.Plant) (*model.ChatContext, error) {
	cctx := &model.ChatContext{
		Garden: make([]model.GardenLine, 0, len(all)),
	}

	for _, p := range all {
		if p == nil {
			continue
		}
		score := scoreUnavailable
		if latest := latestByTime(p.Entries); latest != nil {
			score = strconv.Itoa(latest.HealthScore)
		}
		cctx.Garden = append(cctx.Garden, model.GardenLine{
			Name:        p.Name,
			Species:     p.Species,
			Location:    p.Location,
			LatestScore: score,
		})
	}

	if focus != nil {
		cctx.Focus = &model.ChatFocus{
			PlantID: focus.ID,
			Name:    focus.Name,
			Species: focus.Species,
			History: historyFacts(chronological(focus.Entries)),
		}
	}

	var buf bytes.Buffer
	if err := chatSystemPrompt.Execute(&buf, cctx); err != nil {
		return nil, goerr.Wrap(err, "failed to render chat context")
	}
	cctx.SystemPrompt = buf.String()

	return cctx, nil
}

// chronological returns a copy of entries in ascending timestamp order; ties keep insertion order
func chronological(entries []model.Entry) []model.Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b model.Entry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

func latestByTime(entries []model.Entry) *model.Entry {
	if len(entries) == 0 {
		return nil
	}
	sorted := chronological(entries)
	return &sorted[len(sorted)-1]
}

func historyFacts(entries []model.Entry) []model.HistoryFact {
	facts := make([]model.HistoryFact, len(entries))
	for i, e := range entries {
		facts[i] = model.HistoryFact{
			Date:        e.Timestamp.UTC().Format(historyDateLayout),
			HealthScore: e.HealthScore,
			Notes:       e.UserNotes,
		}
	}
	return facts
}

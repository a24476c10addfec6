package usecase_test

import (
	"context"
	"iter"
	"sync"

	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

// mockAnalysisEngine is a hand-written AnalysisEngine for testing
type mockAnalysisEngine struct {
	analyzeFn    func(ctx context.Context, obs model.Observation) (*model.AnalysisResult, error)
	quickAuditFn func(ctx context.Context, img model.Image) (*model.QuickAuditResult, error)
	identifyFn   func(ctx context.Context, img model.Image) (*model.Identification, error)
	quickTipFn   func(ctx context.Context, species string) (string, error)

	mu           sync.Mutex
	observations []model.Observation
}

func (m *mockAnalysisEngine) Analyze(ctx context.Context, obs model.Observation) (*model.AnalysisResult, error) {
	m.mu.Lock()
	m.observations = append(m.observations, obs)
	m.mu.Unlock()

	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, obs)
	}
	return &model.AnalysisResult{
		Observation:             "Fronds are green",
		HealthScore:             80,
		UpdatedThoughtSignature: "healthy",
		CareSummary:             "Keep misting",
	}, nil
}

func (m *mockAnalysisEngine) QuickAudit(ctx context.Context, img model.Image) (*model.QuickAuditResult, error) {
	if m.quickAuditFn != nil {
		return m.quickAuditFn(ctx, img)
	}
	return &model.QuickAuditResult{Species: "Unknown", ConfidenceScore: 0.5}, nil
}

func (m *mockAnalysisEngine) Identify(ctx context.Context, img model.Image) (*model.Identification, error) {
	if m.identifyFn != nil {
		return m.identifyFn(ctx, img)
	}
	return &model.Identification{Species: "Monstera deliciosa"}, nil
}

func (m *mockAnalysisEngine) QuickTip(ctx context.Context, species string) (string, error) {
	if m.quickTipFn != nil {
		return m.quickTipFn(ctx, species)
	}
	return "Water when the top inch of soil is dry.", nil
}

func (m *mockAnalysisEngine) Observations() []model.Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Observation, len(m.observations))
	copy(out, m.observations)
	return out
}

// mockChatEngine records system prompts of every started conversation
type mockChatEngine struct {
	startFn func(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockChatEngine) StartChat(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, systemPrompt)
	m.mu.Unlock()

	if m.startFn != nil {
		return m.startFn(ctx, systemPrompt)
	}
	return &mockConversation{fragments: []string{"Hello", " there"}}, nil
}

func (m *mockChatEngine) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// mockConversation replays fragments and then optionally fails
type mockConversation struct {
	fragments []string
	err       error

	mu    sync.Mutex
	texts []string
}

func (c *mockConversation) SendStream(ctx context.Context, text string) iter.Seq2[string, error] {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()

	return func(yield func(string, error) bool) {
		for _, f := range c.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if c.err != nil {
			yield("", c.err)
		}
	}
}

// mockNotifier delivers alerts on a channel
type mockNotifier struct {
	alerts chan model.HealthAlert
	err    error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{alerts: make(chan model.HealthAlert, 8)}
}

func (n *mockNotifier) NotifyHealthAlert(ctx context.Context, alert model.HealthAlert) error {
	n.alerts <- alert
	return n.err
}

// mockSpeechEngine is a hand-written SpeechEngine for testing
type mockSpeechEngine struct {
	transcribeFn func(ctx context.Context, audio []byte, mimeType string) (string, error)
	speakFn      func(ctx context.Context, text string) ([]byte, error)
}

func (m *mockSpeechEngine) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if m.transcribeFn != nil {
		return m.transcribeFn(ctx, audio, mimeType)
	}
	return "transcribed", nil
}

func (m *mockSpeechEngine) Speak(ctx context.Context, text string) ([]byte, error) {
	if m.speakFn != nil {
		return m.speakFn(ctx, text)
	}
	return []byte("RIFF"), nil
}

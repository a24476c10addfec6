package http_test

import (
	"context"
	"iter"

	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

type mockAnalysisEngine struct {
	analyzeFn    func(ctx context.Context, obs model.Observation) (*model.AnalysisResult, error)
	quickAuditFn func(ctx context.Context, img model.Image) (*model.QuickAuditResult, error)
	identifyFn   func(ctx context.Context, img model.Image) (*model.Identification, error)
	quickTipFn   func(ctx context.Context, species string) (string, error)
}

func (m *mockAnalysisEngine) Analyze(ctx context.Context, obs model.Observation) (*model.AnalysisResult, error) {
	return m.analyzeFn(ctx, obs)
}

func (m *mockAnalysisEngine) QuickAudit(ctx context.Context, img model.Image) (*model.QuickAuditResult, error) {
	return m.quickAuditFn(ctx, img)
}

func (m *mockAnalysisEngine) Identify(ctx context.Context, img model.Image) (*model.Identification, error) {
	return m.identifyFn(ctx, img)
}

func (m *mockAnalysisEngine) QuickTip(ctx context.Context, species string) (string, error) {
	return m.quickTipFn(ctx, species)
}

type mockChatEngine struct {
	fragments []string
	err       error
}

func (m *mockChatEngine) StartChat(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
	return &mockConversation{fragments: m.fragments, err: m.err}, nil
}

type mockConversation struct {
	fragments []string
	err       error
}

func (c *mockConversation) SendStream(ctx context.Context, text string) iter.Seq2[string, error] {
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

type mockSpeechEngine struct {
	transcribeFn func(ctx context.Context, audio []byte, mimeType string) (string, error)
	speakFn      func(ctx context.Context, text string) ([]byte, error)
}

func (m *mockSpeechEngine) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return m.transcribeFn(ctx, audio, mimeType)
}

func (m *mockSpeechEngine) Speak(ctx context.Context, text string) ([]byte, error) {
	return m.speakFn(ctx, text)
}

package interfaces

import (
	"context"
	"iter"

	"github.com/secmon-lab/plantops/pkg/domain/model"
)

// AnalysisEngine is the external reasoning engine used for structured, single-shot requests.
// Transport failures wrap model.ErrEngine; invalid payloads wrap model.ErrMalformedResponse.
type AnalysisEngine interface {
	Analyze(ctx context.Context, obs model.Observation) (*model.AnalysisResult, error)
	QuickAudit(ctx context.Context, img model.Image) (*model.QuickAuditResult, error)
	Identify(ctx context.Context, img model.Image) (*model.Identification, error)
	QuickTip(ctx context.Context, species string) (string, error)
}

// ChatEngine opens conversations scoped by a system context
type ChatEngine interface {
	StartChat(ctx context.Context, systemPrompt string) (ChatConversation, error)
}

// ChatConversation is one open conversation with the engine. The engine keeps the turn history.
type ChatConversation interface {
	// SendStream yields reply fragments in arrival order. A non-nil error ends the stream.
	SendStream(ctx context.Context, text string) iter.Seq2[string, error]
}

// SpeechEngine converts between speech and text
type SpeechEngine interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Speak(ctx context.Context, text string) ([]byte, error)
}

// Notifier delivers out-of-band alerts
type Notifier interface {
	NotifyHealthAlert(ctx context.Context, alert model.HealthAlert) error
}

package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

// SpeechUseCase turns spoken notes into text and reads summaries aloud
type SpeechUseCase struct {
	engine interfaces.SpeechEngine
}

func NewSpeechUseCase(engine interfaces.SpeechEngine) *SpeechUseCase {
	return &SpeechUseCase{engine: engine}
}

// Transcribe converts recorded audio into note text
func (uc *SpeechUseCase) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if uc.engine == nil {
		return "", goerr.Wrap(model.ErrEngine, "speech engine is not configured")
	}
	if len(audio) == 0 {
		return "", goerr.Wrap(model.ErrInvalidInput, "audio is required")
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	text, err := uc.engine.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", goerr.Wrap(err, "failed to transcribe audio", goerr.V("mime_type", mimeType))
	}
	return strings.TrimSpace(text), nil
}

// Speak synthesizes text into audio
func (uc *SpeechUseCase) Speak(ctx context.Context, text string) ([]byte, error) {
	if uc.engine == nil {
		return nil, goerr.Wrap(model.ErrEngine, "speech engine is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(model.ErrInvalidInput, "text is required")
	}

	audio, err := uc.engine.Speak(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize speech")
	}
	return audio, nil
}

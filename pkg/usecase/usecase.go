package usecase

import (
	"time"

	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
)

type UseCases struct {
	plants         interfaces.PlantRepository
	images         interfaces.ImageRepository
	analysisEngine interfaces.AnalysisEngine
	chatEngine     interfaces.ChatEngine
	speechEngine   interfaces.SpeechEngine
	notifier       interfaces.Notifier
	compactor      MemoryCompactor
	alert          AlertPolicy
	tipTTL         time.Duration
	metrics        *metrics.Collector

	Plant    *PlantUseCase
	Analysis *AnalysisUseCase
	Chat     *ChatUseCase
	Care     *CareUseCase
	Speech   *SpeechUseCase
}

type Option func(*UseCases)

func WithImages(images interfaces.ImageRepository) Option {
	return func(uc *UseCases) {
		uc.images = images
	}
}

func WithAnalysisEngine(engine interfaces.AnalysisEngine) Option {
	return func(uc *UseCases) {
		uc.analysisEngine = engine
	}
}

func WithChatEngine(engine interfaces.ChatEngine) Option {
	return func(uc *UseCases) {
		uc.chatEngine = engine
	}
}

func WithSpeechEngine(engine interfaces.SpeechEngine) Option {
	return func(uc *UseCases) {
		uc.speechEngine = engine
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithCompactor(c MemoryCompactor) Option {
	return func(uc *UseCases) {
		uc.compactor = c
	}
}

func WithAlertPolicy(p AlertPolicy) Option {
	return func(uc *UseCases) {
		uc.alert = p
	}
}

func WithTipTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.tipTTL = ttl
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

func New(plants interfaces.PlantRepository, opts ...Option) *UseCases {
	uc := &UseCases{
		plants:    plants,
		compactor: ReplaceCompactor{},
	}

	for _, opt := range opts {
		opt(uc)
	}

	assembler := NewContextAssembler()

	uc.Plant = NewPlantUseCase(plants, uc.analysisEngine)

	uc.Analysis = NewAnalysisUseCase(plants, uc.analysisEngine, assembler, uc.compactor)
	uc.Analysis.images = uc.images
	uc.Analysis.notifier = uc.notifier
	uc.Analysis.alert = uc.alert
	uc.Analysis.metrics = uc.metrics

	uc.Chat = NewChatUseCase(plants, uc.chatEngine, assembler)
	uc.Chat.metrics = uc.metrics

	uc.Care = NewCareUseCase(plants, uc.analysisEngine, uc.tipTTL)
	uc.Speech = NewSpeechUseCase(uc.speechEngine)

	return uc
}

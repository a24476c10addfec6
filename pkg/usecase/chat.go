package usecase

import (
	"context"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
)

// ChatUseCase owns the single active chat session and rebuilds it whenever the focus changes
type ChatUseCase struct {
	plants    interfaces.PlantRepository
	engine    interfaces.ChatEngine
	assembler *ContextAssembler
	metrics   *metrics.Collector

	mu      sync.Mutex
	current *ChatSession
}

func NewChatUseCase(plants interfaces.PlantRepository, engine interfaces.ChatEngine, assembler *ContextAssembler) *ChatUseCase {
	return &ChatUseCase{
		plants:    plants,
		engine:    engine,
		assembler: assembler,
	}
}

// Focus scopes the conversation to plantID, or to the whole garden when plantID is empty.
// A different scope discards the current session and opens a new one; the same scope
// keeps it. An unknown plantID returns ErrNotFound and leaves the current session as is.
func (uc *ChatUseCase) Focus(ctx context.Context, plantID model.PlantID) (*ChatSession, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.current != nil && uc.current.focus == plantID {
		return uc.current, nil
	}

	plants, err := uc.plants.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list plants for chat context")
	}

	var focus *model.Plant
	if plantID != "" {
		for _, p := range plants {
			if p.ID == plantID {
				focus = p
				break
			}
		}
		if focus == nil {
			return nil, goerr.Wrap(model.ErrNotFound, "focus plant not found", goerr.V(model.PlantIDKey, plantID))
		}
	}

	cctx, err := uc.assembler.BuildChatContext(focus, plants)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build chat context", goerr.V(model.PlantIDKey, plantID))
	}

	if uc.current != nil {
		uc.current.close()
	}
	uc.current = newChatSession(plantID, cctx.SystemPrompt, uc.engine, uc.metrics)
	uc.metrics.ObserveChatSession()

	logging.From(ctx).Info("chat session opened",
		"session_id", uc.current.id,
		"focus", plantID,
		"plants", len(plants),
	)
	return uc.current, nil
}

// Current returns the active session, opening a garden-wide one if none exists yet
func (uc *ChatUseCase) Current(ctx context.Context) (*ChatSession, error) {
	uc.mu.Lock()
	current := uc.current
	uc.mu.Unlock()

	if current != nil {
		return current, nil
	}
	return uc.Focus(ctx, "")
}

// ChatSession is one conversation bound to a focus scope. It is discarded, never reused,
// when the focus changes. The engine conversation is opened on the first Send.
type ChatSession struct {
	id           string
	focus        model.PlantID
	systemPrompt string
	engine       interfaces.ChatEngine
	metrics      *metrics.Collector
	closed       atomic.Bool

	// turn serializes Send streams so replies never interleave
	turn sync.Mutex

	mu       sync.Mutex
	conv     interfaces.ChatConversation
	messages []model.ChatMessage
}

func newChatSession(focus model.PlantID, systemPrompt string, engine interfaces.ChatEngine, m *metrics.Collector) *ChatSession {
	return &ChatSession{
		id:           uuid.NewString(),
		focus:        focus,
		systemPrompt: systemPrompt,
		engine:       engine,
		metrics:      m,
		messages: []model.ChatMessage{
			{Role: model.ChatRoleModel, Text: model.ChatGreeting},
		},
	}
}

func (s *ChatSession) ID() string           { return s.id }
func (s *ChatSession) Focus() model.PlantID { return s.focus }
func (s *ChatSession) SystemPrompt() string { return s.systemPrompt }
func (s *ChatSession) Closed() bool         { return s.closed.Load() }
func (s *ChatSession) close()               { s.closed.Store(true) }

func (s *ChatSession) append(m model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Messages returns a snapshot of the conversation so far
func (s *ChatSession) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send records text as a user message and returns the reply as a lazy stream of fragments.
// Nothing is sent to the engine until the sequence is ranged, and it can be ranged only once.
// When the stream ends the full reply is recorded as one model message. Engine failures and
// sends on a discarded session yield a single fallback notice instead of an error. A reply cut
// off mid-stream is kept as its own model message ahead of the notice.
// A consumer that stops early leaves no model message behind.
func (s *ChatSession) Send(ctx context.Context, text string) iter.Seq[string] {
	s.append(model.ChatMessage{Role: model.ChatRoleUser, Text: text})

	var used atomic.Bool
	return func(yield func(string) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}

		s.turn.Lock()
		defer s.turn.Unlock()

		logger := logging.From(ctx).With("session_id", s.id)

		if s.Closed() {
			logger.Warn("send on discarded chat session")
			s.fallback(yield)
			return
		}

		conv, err := s.conversation(ctx)
		if err != nil {
			logger.Error("failed to open chat conversation", "error", err)
			s.fallback(yield)
			return
		}

		var reply strings.Builder
		for fragment, err := range conv.SendStream(ctx, text) {
			if err != nil {
				logger.Error("chat stream failed", "error", err, "received", reply.Len())
				if reply.Len() > 0 {
					s.append(model.ChatMessage{Role: model.ChatRoleModel, Text: reply.String()})
				}
				s.fallback(yield)
				return
			}
			reply.WriteString(fragment)
			if !yield(fragment) {
				return
			}
		}

		s.append(model.ChatMessage{Role: model.ChatRoleModel, Text: reply.String()})
	}
}

func (s *ChatSession) fallback(yield func(string) bool) {
	s.metrics.ObserveChatFallback()
	s.append(model.ChatMessage{Role: model.ChatRoleModel, Text: model.ChatFallbackNotice})
	yield(model.ChatFallbackNotice)
}

func (s *ChatSession) conversation(ctx context.Context) (interfaces.ChatConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conv != nil {
		return s.conv, nil
	}
	if s.engine == nil {
		return nil, goerr.Wrap(model.ErrEngine, "chat engine is not configured")
	}

	conv, err := s.engine.StartChat(ctx, s.systemPrompt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start chat", goerr.V("session_id", s.id))
	}
	s.conv = conv
	return conv, nil
}

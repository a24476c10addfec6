package usecase_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/repository/memory"
	"github.com/secmon-lab/plantops/pkg/repository/store"
	"github.com/secmon-lab/plantops/pkg/usecase"
	"go.uber.org/goleak"
)

func collect(seq func(func(string) bool)) []string {
	var out []string
	for s := range seq {
		out = append(out, s)
	}
	return out
}

func TestChatUseCase_Focus(t *testing.T) {
	t.Run("switching focus discards previous session", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		a := seedPlant(t, plants, "Fern", 40, 60)
		b := seedPlant(t, plants, "Cactus")
		engine := &mockChatEngine{}
		uc := usecase.New(plants, usecase.WithChatEngine(engine))

		sessA, err := uc.Chat.Focus(ctx, a.ID)
		gt.NoError(t, err).Required()
		collect(sessA.Send(ctx, "how is the fern?"))

		sessB, err := uc.Chat.Focus(ctx, b.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, sessB.ID()).NotEqual(sessA.ID())
		gt.Bool(t, sessA.Closed()).True()
		gt.Bool(t, sessB.Closed()).False()

		collect(sessB.Send(ctx, "and the cactus?"))

		prompts := engine.Prompts()
		gt.Array(t, prompts).Length(2)
		gt.String(t, prompts[0]).Contains("Current focus: Fern")
		gt.String(t, prompts[1]).Contains("Current focus: Cactus")
		gt.Bool(t, strings.Contains(prompts[1], "Health: 40%")).False()
	})

	t.Run("same focus keeps session", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		a := seedPlant(t, plants, "Fern")
		uc := usecase.New(plants, usecase.WithChatEngine(&mockChatEngine{}))

		first, err := uc.Chat.Focus(ctx, a.ID)
		gt.NoError(t, err).Required()
		second, err := uc.Chat.Focus(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID()).Equal(first.ID())
	})

	t.Run("garden scope and plant scope are different identities", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		a := seedPlant(t, plants, "Fern")
		uc := usecase.New(plants, usecase.WithChatEngine(&mockChatEngine{}))

		garden, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()
		focused, err := uc.Chat.Focus(ctx, a.ID)
		gt.NoError(t, err).Required()
		back, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		gt.Value(t, focused.ID()).NotEqual(garden.ID())
		gt.Value(t, back.ID()).NotEqual(garden.ID())
		gt.Value(t, back.ID()).NotEqual(focused.ID())
		gt.Value(t, back.Focus()).Equal(model.PlantID(""))
	})

	t.Run("unknown plant keeps current session", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		a := seedPlant(t, plants, "Fern")
		uc := usecase.New(plants, usecase.WithChatEngine(&mockChatEngine{}))

		current, err := uc.Chat.Focus(ctx, a.ID)
		gt.NoError(t, err).Required()

		_, err = uc.Chat.Focus(ctx, model.NewPlantID())
		gt.Error(t, err).Is(model.ErrNotFound)

		got, err := uc.Chat.Current(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID()).Equal(current.ID())
		gt.Bool(t, current.Closed()).False()
	})

	t.Run("current opens garden session lazily", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		seedPlant(t, plants, "Fern")
		uc := usecase.New(plants, usecase.WithChatEngine(&mockChatEngine{}))

		sess, err := uc.Chat.Current(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, sess.Focus()).Equal(model.PlantID(""))
		gt.String(t, sess.SystemPrompt()).Contains("- Fern (Nephrolepis exaltata)")
	})
}

func TestChatSession_Send(t *testing.T) {
	t.Run("streams fragments and records full reply", func(t *testing.T) {
		ignore := goleak.IgnoreCurrent()
		defer goleak.VerifyNone(t, ignore)

		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		conv := &mockConversation{fragments: []string{"Water ", "twice ", "a week."}}
		engine := &mockChatEngine{
			startFn: func(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
				return conv, nil
			},
		}
		uc := usecase.New(plants, usecase.WithChatEngine(engine))

		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		fragments := collect(sess.Send(ctx, "how often?"))
		gt.Value(t, fragments).Equal([]string{"Water ", "twice ", "a week."})

		msgs := sess.Messages()
		gt.Array(t, msgs).Length(3)
		gt.Value(t, msgs[0]).Equal(model.ChatMessage{Role: model.ChatRoleModel, Text: model.ChatGreeting})
		gt.Value(t, msgs[1]).Equal(model.ChatMessage{Role: model.ChatRoleUser, Text: "how often?"})
		gt.Value(t, msgs[2]).Equal(model.ChatMessage{Role: model.ChatRoleModel, Text: "Water twice a week."})
	})

	t.Run("nothing is sent until ranged", func(t *testing.T) {
		ctx := context.Background()
		engine := &mockChatEngine{}
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(engine))

		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		seq := sess.Send(ctx, "hi")
		gt.Array(t, engine.Prompts()).Length(0)

		collect(seq)
		gt.Array(t, engine.Prompts()).Length(1)
	})

	t.Run("sequence is single use", func(t *testing.T) {
		ctx := context.Background()
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(&mockChatEngine{}))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		seq := sess.Send(ctx, "hi")
		gt.Array(t, collect(seq)).Length(2)
		gt.Array(t, collect(seq)).Length(0)
		gt.Array(t, sess.Messages()).Length(3)
	})

	t.Run("mid-stream failure yields fallback notice", func(t *testing.T) {
		ignore := goleak.IgnoreCurrent()
		defer goleak.VerifyNone(t, ignore)

		ctx := context.Background()
		conv := &mockConversation{fragments: []string{"Partial"}, err: errors.New("connection reset")}
		engine := &mockChatEngine{
			startFn: func(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
				return conv, nil
			},
		}
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(engine))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		fragments := collect(sess.Send(ctx, "hi"))
		gt.Value(t, fragments).Equal([]string{"Partial", model.ChatFallbackNotice})

		gt.Value(t, sess.Messages()).Equal([]model.ChatMessage{
			{Role: model.ChatRoleModel, Text: model.ChatGreeting},
			{Role: model.ChatRoleUser, Text: "hi"},
			{Role: model.ChatRoleModel, Text: "Partial"},
			{Role: model.ChatRoleModel, Text: model.ChatFallbackNotice},
		})
	})

	t.Run("start failure yields fallback notice", func(t *testing.T) {
		ctx := context.Background()
		engine := &mockChatEngine{
			startFn: func(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(engine))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		gt.Value(t, collect(sess.Send(ctx, "hi"))).Equal([]string{model.ChatFallbackNotice})
		gt.Array(t, sess.Messages()).Length(3)
	})

	t.Run("missing chat engine yields fallback notice", func(t *testing.T) {
		ctx := context.Background()
		uc := usecase.New(store.NewPlantStore(memory.New()))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		gt.Value(t, collect(sess.Send(ctx, "hi"))).Equal([]string{model.ChatFallbackNotice})
	})

	t.Run("discarded session yields fallback notice", func(t *testing.T) {
		ctx := context.Background()
		plants := store.NewPlantStore(memory.New())
		a := seedPlant(t, plants, "Fern")
		engine := &mockChatEngine{}
		uc := usecase.New(plants, usecase.WithChatEngine(engine))

		old, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()
		seq := old.Send(ctx, "hi")

		_, err = uc.Chat.Focus(ctx, a.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, collect(seq)).Equal([]string{model.ChatFallbackNotice})
		gt.Array(t, engine.Prompts()).Length(0)
	})

	t.Run("early stop records no reply", func(t *testing.T) {
		ctx := context.Background()
		conv := &mockConversation{fragments: []string{"a", "b", "c"}}
		engine := &mockChatEngine{
			startFn: func(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
				return conv, nil
			},
		}
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(engine))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		for range sess.Send(ctx, "hi") {
			break
		}
		msgs := sess.Messages()
		gt.Array(t, msgs).Length(2)
		gt.Value(t, msgs[1].Role).Equal(model.ChatRoleUser)
	})

	t.Run("conversation is opened once per session", func(t *testing.T) {
		ctx := context.Background()
		engine := &mockChatEngine{}
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(engine))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		collect(sess.Send(ctx, "one"))
		collect(sess.Send(ctx, "two"))
		gt.Array(t, engine.Prompts()).Length(1)
		gt.Array(t, sess.Messages()).Length(5)
	})

	t.Run("concurrent sends do not interleave replies", func(t *testing.T) {
		ctx := context.Background()
		engine := &mockChatEngine{
			startFn: func(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
				return &mockConversation{fragments: []string{"x", "y", "z"}}, nil
			},
		}
		uc := usecase.New(store.NewPlantStore(memory.New()), usecase.WithChatEngine(engine))
		sess, err := uc.Chat.Focus(ctx, "")
		gt.NoError(t, err).Required()

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			seq := sess.Send(ctx, "q")
			wg.Add(1)
			go func() {
				defer wg.Done()
				collect(seq)
			}()
		}
		wg.Wait()

		replies := slices.DeleteFunc(sess.Messages()[1:], func(m model.ChatMessage) bool {
			return m.Role != model.ChatRoleModel
		})
		gt.Array(t, replies).Length(4)
		for _, r := range replies {
			gt.Value(t, r.Text).Equal("xyz")
		}
	})
}

package gemini

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"google.golang.org/genai"
)

// StartChat opens a grounded conversation. History is kept by the genai chat.
func (c *Client) StartChat(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Tools:             groundingTools(),
	}
	chat, err := c.genai.Chats.Create(ctx, c.fastModel, cfg, nil)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrEngine, err), "failed to create chat", goerr.V("model", c.fastModel))
	}
	return &conversation{client: c, chat: chat}, nil
}

type conversation struct {
	client *Client
	chat   *genai.Chat
}

func (x *conversation) SendStream(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		started := time.Now()
		var streamErr error
		defer func() {
			x.client.metrics.ObserveEngineCall("chat", streamErr, time.Since(started))
		}()

		for resp, err := range x.chat.SendMessageStream(ctx, *genai.NewPartFromText(text)) {
			if err != nil {
				streamErr = goerr.Wrap(errors.Join(model.ErrEngine, err), "chat stream failed")
				yield("", streamErr)
				return
			}
			fragment := resp.Text()
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// Package llm adapts gollem LLM clients to the chat engine interface.
package llm

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
)

type ChatEngine struct {
	client  gollem.LLMClient
	metrics *metrics.Collector
}

var _ interfaces.ChatEngine = &ChatEngine{}

type Option func(*ChatEngine)

func WithMetrics(m *metrics.Collector) Option {
	return func(e *ChatEngine) {
		e.metrics = m
	}
}

// New wraps client. A nil client is rejected.
func New(client gollem.LLMClient, opts ...Option) (*ChatEngine, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}
	e := &ChatEngine{client: client}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *ChatEngine) StartChat(ctx context.Context, systemPrompt string) (interfaces.ChatConversation, error) {
	session, err := e.client.NewSession(ctx, gollem.WithSessionSystemPrompt(systemPrompt))
	if err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrEngine, err), "failed to create LLM session")
	}
	return &conversation{session: session, metrics: e.metrics}, nil
}

type conversation struct {
	session gollem.Session
	metrics *metrics.Collector
}

func (x *conversation) SendStream(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		started := time.Now()
		var streamErr error
		defer func() {
			x.metrics.ObserveEngineCall("chat", streamErr, time.Since(started))
		}()

		ctx, cancel := context.WithCancel(ctx)
		stream, err := x.session.Stream(ctx, []gollem.Input{gollem.Text(text)})
		if err != nil {
			cancel()
			streamErr = goerr.Wrap(errors.Join(model.ErrEngine, err), "failed to start LLM stream")
			yield("", streamErr)
			return
		}
		defer func() {
			// unblock the producer and wait for it to close the channel
			cancel()
			for range stream {
			}
		}()

		for resp := range stream {
			if resp == nil {
				continue
			}
			if resp.Error != nil {
				streamErr = goerr.Wrap(errors.Join(model.ErrEngine, resp.Error), "LLM stream failed")
				yield("", streamErr)
				return
			}
			fragment := strings.Join(resp.Texts, "")
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

package gemini

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

const (
	DefaultAnalysisModel  = "gemini-3-pro-preview"
	DefaultFastModel      = "gemini-3-flash-preview"
	DefaultSpeechModel    = "gemini-2.5-flash-preview-tts"
	DefaultVoice          = "Kore"
	DefaultThinkingBudget = 16384
)

// Client implements the analysis, chat and speech engines on the Gemini API
type Client struct {
	genai          *genai.Client
	analysisModel  string
	fastModel      string
	speechModel    string
	voice          string
	thinkingBudget int32
	breaker        *gobreaker.CircuitBreaker
	metrics        *metrics.Collector
}

var (
	_ interfaces.AnalysisEngine = &Client{}
	_ interfaces.ChatEngine     = &Client{}
	_ interfaces.SpeechEngine   = &Client{}
)

type Option func(*Client)

// WithAnalysisModel sets the model used for full five-level analyses
func WithAnalysisModel(name string) Option {
	return func(c *Client) {
		c.analysisModel = name
	}
}

// WithFastModel sets the model used for audits, identification, tips, transcription and chat
func WithFastModel(name string) Option {
	return func(c *Client) {
		c.fastModel = name
	}
}

func WithSpeechModel(name string) Option {
	return func(c *Client) {
		c.speechModel = name
	}
}

func WithVoice(name string) Option {
	return func(c *Client) {
		c.voice = name
	}
}

func WithThinkingBudget(budget int32) Option {
	return func(c *Client) {
		c.thinkingBudget = budget
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Gemini engine. cfg selects the Gemini API (API key) or Vertex AI (project and location).
func New(ctx context.Context, cfg *genai.ClientConfig, opts ...Option) (*Client, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.V("backend", cfg.Backend))
	}
	return newClient(client, opts...), nil
}

func newClient(client *genai.Client, opts ...Option) *Client {
	c := &Client{
		genai:          client,
		analysisModel:  DefaultAnalysisModel,
		fastModel:      DefaultFastModel,
		speechModel:    DefaultSpeechModel,
		voice:          DefaultVoice,
		thinkingBudget: DefaultThinkingBudget,
		breaker:        newBreaker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// callers giving up say nothing about the engine's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Default().Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// generate calls the engine through the circuit breaker. Every failure wraps model.ErrEngine.
func (c *Client) generate(ctx context.Context, op, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	started := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.genai.Models.GenerateContent(ctx, modelName, contents, cfg)
	})
	c.metrics.ObserveEngineCall(op, err, time.Since(started))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, goerr.Wrap(model.ErrEngine, "engine temporarily unavailable",
				goerr.V("operation", op),
				goerr.V("breaker", err.Error()),
			)
		}
		return nil, goerr.Wrap(errors.Join(model.ErrEngine, err), "engine request failed",
			goerr.V("operation", op),
			goerr.V("model", modelName),
		)
	}

	resp, ok := result.(*genai.GenerateContentResponse)
	if !ok || resp == nil {
		return nil, goerr.Wrap(model.ErrMalformedResponse, "empty engine response", goerr.V("operation", op))
	}
	return resp, nil
}

func userContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func groundingTools() []*genai.Tool {
	return []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
}

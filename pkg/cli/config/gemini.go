package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	gollemgemini "github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/service/gemini"
	"github.com/secmon-lab/plantops/pkg/service/llm"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const (
	ChatEngineGenAI  = "genai"
	ChatEngineGollem = "gollem"
)

// Gemini holds configuration for the Gemini engines
type Gemini struct {
	apiKey     string
	projectID  string
	location   string
	chatEngine string
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (Gemini Developer API)",
			Category:    "Gemini",
			Sources:     cli.EnvVars("PLANTOPS_GEMINI_API_KEY"),
			Destination: &g.apiKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Category:    "Gemini",
			Sources:     cli.EnvVars("PLANTOPS_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "global",
			Category:    "Gemini",
			Sources:     cli.EnvVars("PLANTOPS_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "chat-engine",
			Usage:       "Chat engine implementation [genai|gollem]",
			Value:       ChatEngineGenAI,
			Category:    "Gemini",
			Sources:     cli.EnvVars("PLANTOPS_CHAT_ENGINE"),
			Destination: &g.chatEngine,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("api_key.len", len(g.apiKey)),
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.String("chat_engine", g.chatEngine),
	}
}

// IsConfigured reports whether any Gemini credentials were given
func (g *Gemini) IsConfigured() bool {
	return g.apiKey != "" || g.projectID != ""
}

func (g *Gemini) clientConfig() *genai.ClientConfig {
	if g.apiKey != "" {
		return &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	return &genai.ClientConfig{
		Project:  g.projectID,
		Location: g.location,
		Backend:  genai.BackendVertexAI,
	}
}

// Engines bundles the engine implementations selected by the configuration
type Engines struct {
	Analysis interfaces.AnalysisEngine
	Chat     interfaces.ChatEngine
	Speech   interfaces.SpeechEngine
}

// Configure creates the engines from the configured flags.
// Returns empty Engines if no credentials are configured (engine features will be disabled).
func (g *Gemini) Configure(ctx context.Context, app *AppConfig, m *metrics.Collector) (*Engines, error) {
	if !g.IsConfigured() {
		logging.Default().Warn("Gemini is not configured, analysis and chat features are disabled")
		return &Engines{}, nil
	}

	opts := append(app.GeminiOptions(), gemini.WithMetrics(m))
	client, err := gemini.New(ctx, g.clientConfig(), opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}
	engines := &Engines{
		Analysis: client,
		Chat:     client,
		Speech:   client,
	}

	switch g.chatEngine {
	case "", ChatEngineGenAI:
	case ChatEngineGollem:
		llmClient, err := g.configureLLM(ctx, app)
		if err != nil {
			return nil, err
		}
		chat, err := llm.New(llmClient, llm.WithMetrics(m))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create chat engine")
		}
		engines.Chat = chat
	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid chat engine", goerr.V(FieldKey, "chat-engine"), goerr.V("value", g.chatEngine))
	}

	logging.Default().Info("Gemini engines configured", "chat_engine", g.chatEngine)
	return engines, nil
}

// configureLLM creates the gollem client. gollem talks to Vertex AI only, so a project is required.
func (g *Gemini) configureLLM(ctx context.Context, app *AppConfig) (gollem.LLMClient, error) {
	if g.projectID == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "gemini-project is required for the gollem chat engine", goerr.V(FieldKey, "gemini-project"))
	}

	client, err := gollemgemini.New(ctx, g.projectID, g.location, gollemgemini.WithModel(app.Engine.FastModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gollem Gemini client")
	}
	return client, nil
}

package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/plantops/pkg/service/gemini"
	"github.com/secmon-lab/plantops/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// AppConfig is the optional TOML configuration file
type AppConfig struct {
	Engine EngineConfig `toml:"engine"`
	Memory MemoryConfig `toml:"memory"`
	Alert  AlertConfig  `toml:"alert"`
	Tips   TipsConfig   `toml:"tips"`
}

// EngineConfig selects models and generation settings
type EngineConfig struct {
	AnalysisModel  string `toml:"analysis_model"`
	FastModel      string `toml:"fast_model"`
	SpeechModel    string `toml:"speech_model"`
	Voice          string `toml:"voice"`
	ThinkingBudget int32  `toml:"thinking_budget"`
}

// MemoryConfig controls how the per-plant thought signature is compacted.
// MaxRunes 0 keeps the engine's signature as is.
type MemoryConfig struct {
	MaxRunes int `toml:"max_runes"`
}

// AlertConfig drives health alerts. Zero disables the respective rule.
type AlertConfig struct {
	Threshold int `toml:"threshold"`
	DropDelta int `toml:"drop_delta"`
}

type TipsConfig struct {
	TTL             Duration `toml:"ttl"`
	RefreshInterval Duration `toml:"refresh_interval"`
}

// Duration decodes TOML strings such as "6h" or "30m"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(err, "invalid duration", goerr.V("value", string(text)))
	}
	d.Duration = v
	return nil
}

// DefaultAppConfig returns the settings used when no file is given
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Engine: EngineConfig{
			AnalysisModel:  gemini.DefaultAnalysisModel,
			FastModel:      gemini.DefaultFastModel,
			SpeechModel:    gemini.DefaultSpeechModel,
			Voice:          gemini.DefaultVoice,
			ThinkingBudget: gemini.DefaultThinkingBudget,
		},
		Alert: AlertConfig{
			Threshold: 50,
			DropDelta: 20,
		},
		Tips: TipsConfig{
			TTL:             Duration{usecase.DefaultTipTTL},
			RefreshInterval: Duration{time.Hour},
		},
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Engine.AnalysisModel == "" || a.Engine.FastModel == "" || a.Engine.SpeechModel == "" {
		return goerr.Wrap(ErrInvalidConfig, "model names must not be empty", goerr.V(FieldKey, "engine"))
	}
	if a.Engine.ThinkingBudget < 0 {
		return goerr.Wrap(ErrInvalidConfig, "thinking budget must not be negative",
			goerr.V(FieldKey, "engine.thinking_budget"), goerr.V("value", a.Engine.ThinkingBudget))
	}
	if a.Memory.MaxRunes < 0 {
		return goerr.Wrap(ErrInvalidConfig, "max runes must not be negative",
			goerr.V(FieldKey, "memory.max_runes"), goerr.V("value", a.Memory.MaxRunes))
	}
	if a.Alert.Threshold < 0 || a.Alert.Threshold > 100 {
		return goerr.Wrap(ErrInvalidConfig, "alert threshold must be between 0 and 100",
			goerr.V(FieldKey, "alert.threshold"), goerr.V("value", a.Alert.Threshold))
	}
	if a.Alert.DropDelta < 0 || a.Alert.DropDelta > 100 {
		return goerr.Wrap(ErrInvalidConfig, "alert drop delta must be between 0 and 100",
			goerr.V(FieldKey, "alert.drop_delta"), goerr.V("value", a.Alert.DropDelta))
	}
	if a.Tips.TTL.Duration <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "tip ttl must be positive", goerr.V(FieldKey, "tips.ttl"))
	}
	if a.Tips.RefreshInterval.Duration < time.Minute {
		return goerr.Wrap(ErrInvalidConfig, "tip refresh interval must be at least one minute",
			goerr.V(FieldKey, "tips.refresh_interval"), goerr.V("value", a.Tips.RefreshInterval.String()))
	}
	return nil
}

// Compactor builds the memory compaction policy
func (a *AppConfig) Compactor() usecase.MemoryCompactor {
	if a.Memory.MaxRunes > 0 {
		return usecase.TruncatingCompactor{Base: usecase.ReplaceCompactor{}, MaxRunes: a.Memory.MaxRunes}
	}
	return usecase.ReplaceCompactor{}
}

func (a *AppConfig) AlertPolicy() usecase.AlertPolicy {
	return usecase.AlertPolicy{Threshold: a.Alert.Threshold, DropDelta: a.Alert.DropDelta}
}

// GeminiOptions applies the engine section to the Gemini client
func (a *AppConfig) GeminiOptions() []gemini.Option {
	return []gemini.Option{
		gemini.WithAnalysisModel(a.Engine.AnalysisModel),
		gemini.WithFastModel(a.Engine.FastModel),
		gemini.WithSpeechModel(a.Engine.SpeechModel),
		gemini.WithVoice(a.Engine.Voice),
		gemini.WithThinkingBudget(a.Engine.ThinkingBudget),
	}
}

// LoadAppConfiguration loads the configuration from a TOML file over the defaults
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultAppConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return config, nil
}

// App holds the --config flag
type App struct {
	path string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Sources:     cli.EnvVars("PLANTOPS_CONFIG"),
			Destination: &x.path,
		},
	}
}

func (x App) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Configure loads the configuration file, or returns the defaults when no path is set
func (x *App) Configure() (*AppConfig, error) {
	if x.path == "" {
		return DefaultAppConfig(), nil
	}
	return LoadAppConfiguration(x.path)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/plantops/pkg/cli/config"
	"github.com/secmon-lab/plantops/pkg/usecase"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plantops.toml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
[engine]
fast_model = "gemini-flash-lite"
thinking_budget = 2048

[memory]
max_runes = 400

[alert]
threshold = 40

[tips]
ttl = "2h"
refresh_interval = "30m"
`)
		cfg, err := config.LoadAppConfiguration(path)
		gt.NoError(t, err).Required()

		gt.Value(t, cfg.Engine.FastModel).Equal("gemini-flash-lite")
		gt.Value(t, cfg.Engine.AnalysisModel).Equal("gemini-3-pro-preview")
		gt.Value(t, cfg.Engine.ThinkingBudget).Equal(int32(2048))
		gt.Value(t, cfg.Alert.Threshold).Equal(40)
		gt.Value(t, cfg.Alert.DropDelta).Equal(20)
		gt.Value(t, cfg.Tips.TTL.Duration).Equal(2 * time.Hour)
		gt.Value(t, cfg.Tips.RefreshInterval.Duration).Equal(30 * time.Minute)
		gt.Value(t, cfg.Compactor()).Equal(usecase.MemoryCompactor(
			usecase.TruncatingCompactor{Base: usecase.ReplaceCompactor{}, MaxRunes: 400},
		))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "absent.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})

	t.Run("invalid TOML", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(writeConfig(t, "[engine\n"))
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("invalid duration", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(writeConfig(t, "[tips]\nttl = \"soon\"\n"))
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	testCases := []struct {
		name string
		body string
	}{
		{name: "threshold above 100", body: "[alert]\nthreshold = 140\n"},
		{name: "negative drop delta", body: "[alert]\ndrop_delta = -1\n"},
		{name: "empty model", body: "[engine]\nanalysis_model = \"\"\n"},
		{name: "negative max runes", body: "[memory]\nmax_runes = -5\n"},
		{name: "refresh too often", body: "[tips]\nrefresh_interval = \"5s\"\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadAppConfiguration(writeConfig(t, tc.body))
			gt.Error(t, err).Is(config.ErrInvalidConfig)
		})
	}
}

func TestAppDefaults(t *testing.T) {
	cfg, err := config.NewAppForTest("").Configure()
	gt.NoError(t, err).Required()
	gt.NoError(t, cfg.Validate())
	gt.Value(t, cfg.Compactor()).Equal(usecase.MemoryCompactor(usecase.ReplaceCompactor{}))
	gt.Value(t, cfg.AlertPolicy()).Equal(usecase.AlertPolicy{Threshold: 50, DropDelta: 20})
	gt.Array(t, cfg.GeminiOptions()).Length(5)
}

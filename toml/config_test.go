package toml_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), toml.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when the file is missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := toml.Load(filepath.Join(t.TempDir(), "missing.toml"))

		require.NoError(t, err)
		assert.Equal(t, "daily", cfg.Pipeline.Pattern)
		assert.True(t, cfg.Pipeline.Keyword)
		assert.False(t, cfg.Pipeline.AI)
		assert.Equal(t, 60*time.Second, cfg.Timeout())
		assert.Equal(t, chronologue.DefaultMaxRetries, cfg.AI.MaxRetries)
	})

	t.Run("decodes tables over the defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
[pipeline]
anchor = "2024-03-01 08:00"
pattern = "twoBeatDay"
ai = true
threshold = "high"
subplot = "Main Plot"
act = 2
location = "UTC"

[ai]
provider = "anthropic"
model = "claude-sonnet-4-5"
timeout_seconds = 30

[output]
result = "out/result.jsonl"
`)

		cfg, err := toml.Load(path)

		require.NoError(t, err)
		assert.Equal(t, "2024-03-01 08:00", cfg.Pipeline.Anchor)
		assert.Equal(t, "twoBeatDay", cfg.Pipeline.Pattern)
		assert.True(t, cfg.Pipeline.Keyword, "default kept")
		assert.True(t, cfg.Pipeline.AI)
		assert.Equal(t, "anthropic", cfg.AI.Provider)
		assert.Equal(t, 30*time.Second, cfg.Timeout())
		assert.Equal(t, "out/result.jsonl", cfg.Output.Result)
		assert.Equal(t, ".chronologue/history.jsonl", cfg.Output.History)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "[pipeline]\npatern = \"daily\"\n")

		_, err := toml.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline.patern")
	})

	t.Run("returns error for invalid TOML", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "[pipeline\n")

		_, err := toml.Load(path)

		assert.Error(t, err)
	})
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("reads the key for the selected provider", func(t *testing.T) {
		t.Parallel()

		cfg := toml.Default()
		cfg.ApplyEnv(env(map[string]string{
			"CHRONOLOGUE_PROVIDER": "anthropic",
			"CHRONOLOGUE_MODEL":    "claude-opus",
			"GEMINI_API_KEY":       "g-key",
			"ANTHROPIC_API_KEY":    "a-key",
		}))

		assert.Equal(t, "anthropic", cfg.AI.Provider)
		assert.Equal(t, "claude-opus", cfg.AI.Model)
		assert.Equal(t, "a-key", cfg.AI.APIKey)
	})

	t.Run("keeps a key from the file", func(t *testing.T) {
		t.Parallel()

		cfg := toml.Default()
		cfg.AI.APIKey = "file-key"
		cfg.ApplyEnv(env(map[string]string{"GEMINI_API_KEY": "g-key"}))

		assert.Equal(t, "file-key", cfg.AI.APIKey)
	})

	t.Run("leaves values alone when unset", func(t *testing.T) {
		t.Parallel()

		cfg := toml.Default()
		cfg.ApplyEnv(env(nil))

		assert.Equal(t, toml.Default(), cfg)
	})
}

func TestConfig_PipelineConfig(t *testing.T) {
	t.Parallel()

	t.Run("converts the pipeline table", func(t *testing.T) {
		t.Parallel()

		cfg := toml.Default()
		cfg.Pipeline.Anchor = "2024-03-01 08:00"
		cfg.Pipeline.Location = "UTC"
		cfg.Pipeline.Pattern = "fourBeatDay"
		cfg.Pipeline.Threshold = "medium"
		cfg.Pipeline.Subplot = "Romance"
		cfg.Pipeline.Act = 3
		cfg.Pipeline.ExcerptLength = 500

		got, err := cfg.PipelineConfig()

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), got.Anchor)
		assert.Equal(t, chronologue.PatternFourBeatDay, got.Preset)
		assert.Equal(t, chronologue.ConfidenceMed, got.Threshold)
		assert.Equal(t, chronologue.Scope{Subplot: "Romance", Act: 3}, got.Scope)
		assert.Equal(t, 500, got.KeywordExcerpt)
		assert.True(t, got.Keyword)
		assert.Empty(t, got.Validate())
	})

	t.Run("leaves the anchor zero when unset", func(t *testing.T) {
		t.Parallel()

		got, err := toml.Default().PipelineConfig()

		require.NoError(t, err)
		assert.True(t, got.Anchor.IsZero())
	})

	tests := []struct {
		name   string
		mutate func(*toml.Config)
		want   string
	}{
		{"bad anchor", func(c *toml.Config) { c.Pipeline.Anchor = "someday" }, "pipeline.anchor"},
		{"bad threshold", func(c *toml.Config) { c.Pipeline.Threshold = "certain" }, "pipeline.threshold"},
		{"bad location", func(c *toml.Config) { c.Pipeline.Location = "Mars/Olympus" }, "pipeline.location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := toml.Default()
			tt.mutate(cfg)

			_, err := cfg.PipelineConfig()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/m", "out", "r.jsonl"), toml.Resolve("/m", "out/r.jsonl"))
	assert.Equal(t, "/abs/r.jsonl", toml.Resolve("/m", "/abs/r.jsonl"))
	assert.Equal(t, "", toml.Resolve("/m", ""))
}

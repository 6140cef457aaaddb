// Package toml loads chronologue configuration from a TOML file.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/chronologue"
)

// DefaultFile is the config file looked up in the manuscript directory.
const DefaultFile = "chronologue.toml"

// Inference providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config is the decoded configuration file.
type Config struct {
	Pipeline Pipeline `toml:"pipeline"`
	AI       AI       `toml:"ai"`
	Output   Output   `toml:"output"`
}

// Pipeline holds the [pipeline] table.
type Pipeline struct {
	Anchor          string `toml:"anchor"`
	AnchorIndex     int    `toml:"anchor_index"`
	Pattern         string `toml:"pattern"`
	Keyword         bool   `toml:"keyword"`
	AI              bool   `toml:"ai"`
	Threshold       string `toml:"threshold"`
	InferDuration   bool   `toml:"infer_duration"`
	Subplot         string `toml:"subplot"`
	Act             int    `toml:"act"`
	ExcerptLength   int    `toml:"excerpt_length"`
	AIExcerptLength int    `toml:"ai_excerpt_length"`
	IncludeSynopsis bool   `toml:"include_synopsis"`
	KeepExisting    bool   `toml:"keep_existing"`
	Location        string `toml:"location"` // IANA zone; local time when empty
	Class           string `toml:"class"`    // Frontmatter Class of scene files
}

// AI holds the [ai] table.
type AI struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
	CacheDir       string `toml:"cache_dir"`
	NoCache        bool   `toml:"no_cache"`
	APIKey         string `toml:"api_key"`
}

// Output holds the [output] table. Relative paths resolve against the
// manuscript directory.
type Output struct {
	Result  string `toml:"result"`
	History string `toml:"history"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Pipeline: Pipeline{
			Pattern:   string(chronologue.PatternDaily),
			Keyword:   true,
			Threshold: string(chronologue.ConfidenceMed),
			Class:     "Scene",
		},
		AI: AI{
			Provider:       ProviderGemini,
			TimeoutSeconds: 60,
			MaxRetries:     chronologue.DefaultMaxRetries,
		},
		Output: Output{
			Result:  ".chronologue/result.jsonl",
			History: ".chronologue/history.jsonl",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file yields the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("parse config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables. The API key
// variable read depends on the provider.
func (c *Config) ApplyEnv(getenv func(string) string) {
	envOverride(getenv, &c.AI.Provider, "CHRONOLOGUE_PROVIDER")
	envOverride(getenv, &c.AI.Model, "CHRONOLOGUE_MODEL")
	envOverride(getenv, &c.AI.CacheDir, "CHRONOLOGUE_CACHE_DIR")
	if c.AI.APIKey == "" {
		switch c.AI.Provider {
		case ProviderGemini:
			envOverride(getenv, &c.AI.APIKey, "GEMINI_API_KEY")
		case ProviderAnthropic:
			envOverride(getenv, &c.AI.APIKey, "ANTHROPIC_API_KEY")
		}
	}
}

func envOverride(getenv func(string) string, field *string, key string) {
	if v := getenv(key); v != "" {
		*field = v
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// Resolve returns p relative to dir unless it is absolute.
func Resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Location returns the configured time zone, or time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Pipeline.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Pipeline.Location)
	if err != nil {
		return nil, fmt.Errorf("pipeline.location: %w", err)
	}
	return loc, nil
}

// PipelineConfig converts the [pipeline] table into a run config. Values
// are parsed in the configured location.
func (c *Config) PipelineConfig() (chronologue.PipelineConfig, error) {
	p := c.Pipeline
	loc, err := c.Location()
	if err != nil {
		return chronologue.PipelineConfig{}, err
	}

	cfg := chronologue.PipelineConfig{
		AnchorIndex:     p.AnchorIndex,
		Preset:          chronologue.PatternPreset(p.Pattern),
		Keyword:         p.Keyword,
		AI:              p.AI,
		InferDuration:   p.InferDuration,
		Scope:           chronologue.Scope{Subplot: p.Subplot, Act: p.Act},
		KeywordExcerpt:  p.ExcerptLength,
		AIExcerpt:       p.AIExcerptLength,
		IncludeSynopsis: p.IncludeSynopsis,
		KeepExisting:    p.KeepExisting,
	}

	if p.Anchor != "" {
		anchor, ok := chronologue.DefaultWhenParser{Location: loc}.Parse(p.Anchor)
		if !ok {
			return chronologue.PipelineConfig{}, fmt.Errorf("pipeline.anchor: cannot parse %q", p.Anchor)
		}
		cfg.Anchor = anchor
	}
	if p.Threshold != "" {
		conf, err := chronologue.ParseConfidence(p.Threshold)
		if err != nil {
			return chronologue.PipelineConfig{}, fmt.Errorf("pipeline.threshold: %w: %q", err, p.Threshold)
		}
		cfg.Threshold = conf
	}
	return cfg, nil
}

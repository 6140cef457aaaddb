package chronologue_test

import (
	"context"
	"testing"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	config := func() chronologue.PipelineConfig {
		return chronologue.PipelineConfig{
			Anchor: date(2024, 1, 1, 8, 0),
			Preset: chronologue.PatternTwoBeatDay,
		}
	}

	t.Run("pattern only", func(t *testing.T) {
		t.Parallel()

		var phases []chronologue.Phase
		p := &chronologue.Pipeline{OnPhase: func(ph chronologue.Phase) { phases = append(phases, ph) }}

		result, err := p.Run(context.Background(), titled("a", "b", "c", "d"), config())

		require.NoError(t, err)
		assert.NotEmpty(t, result.RunID)
		assert.Equal(t, 4, result.TotalScenes)
		assert.Equal(t, 4, result.Level1Applied)
		assert.Equal(t, 4, result.ScenesChanged)
		assert.Zero(t, result.Level2Refined)
		assert.False(t, result.Cancelled)
		assert.Equal(t, []chronologue.Phase{chronologue.PhasePattern, chronologue.PhaseDone}, phases)
	})

	t.Run("all levels in order", func(t *testing.T) {
		t.Parallel()

		var phases []chronologue.Phase
		cfg := config()
		cfg.Keyword = true
		cfg.AI = true
		p := &chronologue.Pipeline{
			Text: textByTitle(map[string]string{
				"b": "Three days later, the letter arrived.",
			}),
			Backend: respond(`{"whenSuggestion":"that night","confidence":"high","evidence":["the moon"],"rationale":"Night scene."}`),
			OnPhase: func(ph chronologue.Phase) { phases = append(phases, ph) },
		}

		result, err := p.Run(context.Background(), titled("a", "b", "c"), cfg)

		require.NoError(t, err)
		assert.Equal(t, []chronologue.Phase{
			chronologue.PhasePattern, chronologue.PhaseKeyword, chronologue.PhaseAI, chronologue.PhaseDone,
		}, phases)
		assert.Equal(t, 1, result.Level2Refined)
		// Scenes a and c are still pattern-sourced after Level 2.
		assert.Equal(t, 2, result.Level3Refined)
		assert.Equal(t, chronologue.SourceKeyword, result.Entries[1].Source)
		assert.Equal(t, date(2024, 1, 4, 8, 0), result.Entries[1].ProposedWhen)
		assert.Equal(t, date(2024, 1, 4, 22, 0), result.Entries[2].ProposedWhen)
	})

	t.Run("scope filters scenes before level one", func(t *testing.T) {
		t.Parallel()

		input := []chronologue.Scene{
			{Title: "a", Subplots: []string{"main"}, Act: 1},
			{Title: "b", Subplots: []string{"side"}, Act: 1},
			{Title: "c", Subplots: []string{"main", "side"}, Act: 2},
		}
		cfg := config()
		cfg.Scope = chronologue.Scope{Subplot: "main"}

		result, err := (&chronologue.Pipeline{}).Run(context.Background(), input, cfg)

		require.NoError(t, err)
		require.Len(t, result.Entries, 2)
		assert.Equal(t, "a", result.Entries[0].Scene.Title)
		assert.Equal(t, "c", result.Entries[1].Scene.Title)

		cfg.Scope = chronologue.Scope{Act: 2}
		result, err = (&chronologue.Pipeline{}).Run(context.Background(), input, cfg)
		require.NoError(t, err)
		require.Len(t, result.Entries, 1)
	})

	t.Run("empty scope is an error", func(t *testing.T) {
		t.Parallel()

		cfg := config()
		cfg.Scope = chronologue.Scope{Subplot: "missing"}

		_, err := (&chronologue.Pipeline{}).Run(context.Background(), titled("a"), cfg)
		assert.ErrorIs(t, err, chronologue.ErrNoScenes)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := (&chronologue.Pipeline{}).Run(context.Background(), titled("a"), chronologue.PipelineConfig{Preset: "hourly"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anchor")

		cfg := config()
		cfg.AI = true
		_, err = (&chronologue.Pipeline{}).Run(context.Background(), titled("a"), cfg)
		assert.ErrorContains(t, err, "without an inference backend")
	})

	t.Run("cancellation returns the partial result", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cfg := config()
		cfg.Keyword = true
		cfg.AI = true
		backend := &mock.InferenceBackend{
			InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				t.Fatal("backend must not be called after cancellation")
				return nil, nil
			},
		}
		p := &chronologue.Pipeline{
			Text:    textByTitle(nil),
			Backend: backend,
			OnPhase: func(ph chronologue.Phase) {
				if ph == chronologue.PhaseKeyword {
					cancel()
				}
			},
		}

		result, err := p.Run(ctx, titled("a", "b"), cfg)

		require.ErrorIs(t, err, chronologue.ErrCancelled)
		require.NotNil(t, result)
		assert.True(t, result.Cancelled)
		assert.Len(t, result.Entries, 2)
		assert.Equal(t, 2, result.Level1Applied)
	})

	t.Run("ai progress is forwarded", func(t *testing.T) {
		t.Parallel()

		var progress []chronologue.AIProgress
		cfg := config()
		cfg.AI = true
		p := &chronologue.Pipeline{
			Text:         textByTitle(nil),
			Backend:      respond(`{"whenSuggestion":"?","confidence":"low","evidence":[],"rationale":""}`),
			OnAIProgress: func(pr chronologue.AIProgress) { progress = append(progress, pr) },
		}

		result, err := p.Run(context.Background(), titled("a", "b"), cfg)

		require.NoError(t, err)
		assert.Len(t, progress, 2)
		assert.Equal(t, 2, result.ScenesNeedingReview)
	})
}

func TestResult_Summarize(t *testing.T) {
	t.Parallel()

	entries := entriesAt(date(2024, 1, 1, 8, 0), date(2024, 1, 2, 8, 0), date(2024, 1, 1, 9, 0))
	chronologue.DetectIssues(entries)
	r := &chronologue.Result{Entries: entries}

	r.Summarize()

	assert.Equal(t, 3, r.TotalScenes)
	assert.Equal(t, 3, r.ScenesChanged)
	assert.Equal(t, 1, r.ScenesWithBackwardTime)
	assert.Equal(t, 1, r.ScenesNeedingReview)
}

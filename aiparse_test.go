package chronologue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(content string) *mock.InferenceBackend {
	return &mock.InferenceBackend{
		InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
			return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: content}, nil
		},
	}
}

// aiEntries returns a settled first scene followed by a pattern-only scene.
func aiEntries() []chronologue.Entry {
	entries := entriesAt(date(2024, 3, 1, 9, 30), date(2024, 3, 1, 19, 0))
	entries[0].Source = chronologue.SourceOriginal
	entries[0].Scene.Title = "Arrival"
	entries[1].Scene.Title = "Departure"
	chronologue.DetectIssues(entries)
	return entries
}

func TestParseWithAI(t *testing.T) {
	t.Parallel()

	t.Run("high confidence relative suggestion is applied", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		backend := respond(`{"whenSuggestion":"two weeks later","confidence":"high","evidence":["a fortnight on"],"rationale":"The narrator says a fortnight passed."}`)

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{})

		require.NoError(t, err)
		assert.Equal(t, 1, refined)
		assert.Equal(t, chronologue.SourceAI, entries[1].Source)
		assert.Equal(t, chronologue.ConfidenceHigh, entries[1].Confidence)
		assert.Equal(t, date(2024, 3, 15, 9, 30), entries[1].ProposedWhen)
		assert.False(t, entries[1].NeedsReview)
		assert.Equal(t, []string{"a fortnight on"}, entries[1].AIEvidence)
	})

	t.Run("low confidence suggestion requests review", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		backend := respond(`{"whenSuggestion":"two weeks later","confidence":"low","evidence":["later"],"rationale":"Weak signal."}`)

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{Threshold: chronologue.ConfidenceMed})

		require.NoError(t, err)
		assert.Zero(t, refined)
		assert.True(t, entries[1].NeedsReview)
		assert.Equal(t, chronologue.SourcePattern, entries[1].Source)
		assert.Equal(t, date(2024, 3, 1, 19, 0), entries[1].ProposedWhen)
		assert.Equal(t, "Weak signal.", entries[1].AIRationale)
		assert.Equal(t, []string{"later"}, entries[1].AIEvidence)
	})

	t.Run("literal suggestion is parsed first", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		backend := respond("```json\n{\"whenSuggestion\":\"2024-04-02 21:15\",\"confidence\":\"med\",\"evidence\":[],\"rationale\":\"Dated letter.\"}\n```")

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{
			Parser: chronologue.DefaultWhenParser{Location: time.UTC},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, refined)
		assert.Equal(t, date(2024, 4, 2, 21, 15), entries[1].ProposedWhen)
	})

	t.Run("uninterpretable suggestion keeps the audit trail", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		backend := respond(`{"whenSuggestion":"around the solstice","confidence":"high","evidence":["longest night"],"rationale":"Seasonal hint only."}`)

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{})

		require.NoError(t, err)
		assert.Zero(t, refined)
		assert.True(t, entries[1].NeedsReview)
		assert.Equal(t, "Seasonal hint only.", entries[1].AIRationale)
		assert.Equal(t, date(2024, 3, 1, 19, 0), entries[1].ProposedWhen)
	})

	t.Run("backend errors skip the scene", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		entries[0].Source = chronologue.SourcePattern
		calls := 0
		backend := &mock.InferenceBackend{
			InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				calls++
				if calls == 1 {
					return nil, errors.New("connection reset")
				}
				return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: `{"whenSuggestion":"the next morning","confidence":"high","evidence":[],"rationale":"Dawn."}`}, nil
			},
		}

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, refined)
		assert.Equal(t, chronologue.SourcePattern, entries[0].Source)
		assert.Equal(t, date(2024, 3, 2, 8, 0), entries[1].ProposedWhen)
	})

	t.Run("malformed and failed responses are skipped", func(t *testing.T) {
		t.Parallel()

		for _, resp := range []*chronologue.InferenceResponse{
			{Status: chronologue.StatusSuccess, Content: "not json"},
			{Status: chronologue.StatusFailure},
			{Status: chronologue.StatusSuccess, Content: `{"whenSuggestion":"tomorrow","confidence":"certain","evidence":[],"rationale":""}`},
		} {
			entries := aiEntries()
			backend := &mock.InferenceBackend{
				InferFn: func(context.Context, chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
					return resp, nil
				},
			}

			refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{})

			require.NoError(t, err)
			assert.Zero(t, refined)
			assert.Equal(t, chronologue.SourcePattern, entries[1].Source)
		}
	})

	t.Run("schema violations are skipped", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		validator := &mock.ResponseValidator{
			ValidateFn: func(*chronologue.Schema, []byte) error { return errors.New("missing rationale") },
		}

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil),
			respond(`{"whenSuggestion":"tomorrow","confidence":"high"}`),
			chronologue.AIOptions{Validator: validator})

		require.NoError(t, err)
		assert.Zero(t, refined)
	})

	t.Run("rejected responses keep the audit trail", func(t *testing.T) {
		t.Parallel()

		rejecting := &mock.ResponseValidator{
			ValidateFn: func(*chronologue.Schema, []byte) error { return errors.New("confidence: not in enum") },
		}
		for name, opts := range map[string]chronologue.AIOptions{
			"unknown confidence": {},
			"validator rejects":  {Validator: rejecting},
		} {
			entries := aiEntries()
			backend := respond(`{"whenSuggestion":"two weeks later","confidence":"certain","evidence":["a fortnight on"],"rationale":"fortnight"}`)

			refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, opts)

			require.NoError(t, err, name)
			assert.Zero(t, refined, name)
			assert.Equal(t, "fortnight", entries[1].AIRationale, name)
			assert.Equal(t, []string{"a fortnight on"}, entries[1].AIEvidence, name)
			assert.Equal(t, chronologue.SourcePattern, entries[1].Source, name)
			assert.Equal(t, date(2024, 3, 1, 19, 0), entries[1].ProposedWhen, name)
			assert.True(t, entries[1].NeedsReview, name)
		}
	})

	t.Run("only unresolved entries are candidates", func(t *testing.T) {
		t.Parallel()

		entries := entriesAt(date(2024, 1, 1, 8, 0), date(2024, 1, 2, 8, 0), date(2024, 1, 3, 8, 0), date(2024, 1, 2, 9, 0))
		entries[0].Source = chronologue.SourceKeyword
		entries[1].Source = chronologue.SourceKeyword
		entries[2].Source = chronologue.SourceKeyword
		entries[3].Source = chronologue.SourceKeyword
		chronologue.DetectIssues(entries)

		var prompts []string
		backend := &mock.InferenceBackend{
			InferFn: func(_ context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				prompts = append(prompts, req.Prompt)
				assert.Equal(t, chronologue.AIFeature, req.Feature)
				assert.Contains(t, req.Capabilities, "json")
				require.NotNil(t, req.Schema)
				return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: `{"whenSuggestion":"moments later","confidence":"high","evidence":[],"rationale":"Continuous action."}`}, nil
			},
		}

		refined, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{})

		require.NoError(t, err)
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "2024-01-03 08:00")
		assert.Equal(t, 1, refined)
		assert.Equal(t, date(2024, 1, 3, 8, 5), entries[3].ProposedWhen)
		assert.False(t, entries[3].HasBackwardTime)
	})

	t.Run("duration is recorded when requested", func(t *testing.T) {
		t.Parallel()

		entries := aiEntries()
		var schema *chronologue.Schema
		backend := &mock.InferenceBackend{
			InferFn: func(_ context.Context, req chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				schema = req.Schema
				return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: `{"whenSuggestion":"that evening","confidence":"high","evidence":[],"rationale":"Dinner.","durationSuggestion":"2 hours"}`}, nil
			},
		}

		_, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil), backend, chronologue.AIOptions{InferDuration: true})

		require.NoError(t, err)
		assert.Contains(t, schema.Properties, "durationSuggestion")
		assert.Equal(t, "2 hours", entries[1].ProposedDuration)
		assert.Equal(t, date(2024, 3, 1, 19, 0), entries[1].ProposedWhen)
	})

	t.Run("progress is reported per candidate", func(t *testing.T) {
		t.Parallel()

		entries := entriesAt(date(2024, 1, 1, 8, 0), date(2024, 1, 2, 8, 0), date(2024, 1, 3, 8, 0))
		var progress []chronologue.AIProgress

		_, err := chronologue.ParseWithAI(context.Background(), entries, textByTitle(nil),
			respond(`{"whenSuggestion":"unknown","confidence":"low","evidence":[],"rationale":""}`),
			chronologue.AIOptions{Progress: func(p chronologue.AIProgress) { progress = append(progress, p) }})

		require.NoError(t, err)
		require.Len(t, progress, 3)
		assert.Equal(t, 3, progress[2].Done)
		assert.Equal(t, 3, progress[2].Total)
	})

	t.Run("cancellation is observed between candidates", func(t *testing.T) {
		t.Parallel()

		entries := entriesAt(date(2024, 1, 1, 8, 0), date(2024, 1, 2, 8, 0), date(2024, 1, 3, 8, 0))
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		backend := &mock.InferenceBackend{
			InferFn: func(ctx context.Context, _ chronologue.InferenceRequest) (*chronologue.InferenceResponse, error) {
				calls++
				cancel()
				// The in-flight call is not interrupted.
				assert.NoError(t, ctx.Err())
				return &chronologue.InferenceResponse{Status: chronologue.StatusSuccess, Content: `{"whenSuggestion":"2024-01-01 09:00","confidence":"high","evidence":[],"rationale":""}`}, nil
			},
		}

		refined, err := chronologue.ParseWithAI(ctx, entries, textByTitle(nil), backend, chronologue.AIOptions{
			Parser: chronologue.DefaultWhenParser{Location: time.UTC},
		})

		require.ErrorIs(t, err, chronologue.ErrCancelled)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, refined)
		assert.Equal(t, date(2024, 1, 1, 9, 0), entries[0].ProposedWhen)
	})
}

func TestInterpretSuggestion(t *testing.T) {
	t.Parallel()

	ref := date(2024, 3, 1, 9, 30)
	parser := chronologue.DefaultWhenParser{Location: time.UTC}

	tests := []struct {
		suggestion string
		want       time.Time
	}{
		{"2024-03-10 12:00", date(2024, 3, 10, 12, 0)},
		{"The next morning", date(2024, 3, 2, 8, 0)},
		{"the following evening", date(2024, 3, 2, 19, 0)},
		{"the next day", date(2024, 3, 2, 9, 30)},
		{"that same evening", date(2024, 3, 1, 19, 0)},
		{"later that night", date(2024, 3, 1, 22, 0)},
		{"tonight", date(2024, 3, 1, 22, 0)},
		{"three days later", date(2024, 3, 4, 9, 30)},
		{"two weeks later", date(2024, 3, 15, 9, 30)},
		{"a month later", date(2024, 4, 1, 9, 30)},
		{"45 minutes later", date(2024, 3, 1, 10, 15)},
		{"moments later", date(2024, 3, 1, 9, 35)},
		{"immediately after", date(2024, 3, 1, 9, 35)},
		{"meanwhile", ref},
	}

	for _, tt := range tests {
		t.Run(tt.suggestion, func(t *testing.T) {
			t.Parallel()

			got, ok := chronologue.InterpretSuggestion(tt.suggestion, ref, parser)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown phrases fail", func(t *testing.T) {
		t.Parallel()

		_, ok := chronologue.InterpretSuggestion("sometime in spring", ref, parser)
		assert.False(t, ok)
		_, ok = chronologue.InterpretSuggestion("", ref, parser)
		assert.False(t, ok)
	})
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, chronologue.StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, chronologue.StripCodeFence("  {\"a\":1} "))
}

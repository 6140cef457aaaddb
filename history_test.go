package chronologue_test

import (
	"testing"
	"time"

	"github.com/fwojciec/chronologue"
	"github.com/stretchr/testify/assert"
)

func TestResult_Summary(t *testing.T) {
	t.Parallel()

	r := &chronologue.Result{
		RunID:               "run-1",
		TotalScenes:         4,
		ScenesChanged:       3,
		ScenesNeedingReview: 1,
		Level1Applied:       4,
		Level2Refined:       2,
		Cancelled:           true,
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got := r.Summary(chronologue.PipelineConfig{Preset: chronologue.PatternWeekly, Keyword: true}, at)

	assert.Equal(t, chronologue.RunSummary{
		RunID:               "run-1",
		At:                  at,
		Preset:              chronologue.PatternWeekly,
		Keyword:             true,
		TotalScenes:         4,
		ScenesChanged:       3,
		ScenesNeedingReview: 1,
		Level1Applied:       4,
		Level2Refined:       2,
		Cancelled:           true,
	}, got)
}

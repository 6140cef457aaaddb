package chronologue

import "time"

// RunSummary is one line of the run history: what a pipeline run did,
// without its entries.
type RunSummary struct {
	RunID    string        `json:"run_id"`
	At       time.Time     `json:"at"`
	Root     string        `json:"root,omitempty"`
	Preset   PatternPreset `json:"preset"`
	Keyword  bool          `json:"keyword"`
	AI       bool          `json:"ai"`
	Provider string        `json:"provider,omitempty"`

	TotalScenes            int  `json:"total_scenes"`
	ScenesChanged          int  `json:"scenes_changed"`
	ScenesNeedingReview    int  `json:"scenes_needing_review"`
	ScenesWithBackwardTime int  `json:"scenes_with_backward_time"`
	ScenesWithLargeGaps    int  `json:"scenes_with_large_gaps"`
	Level1Applied          int  `json:"level1_applied"`
	Level2Refined          int  `json:"level2_refined"`
	Level3Refined          int  `json:"level3_refined"`
	Cancelled              bool `json:"cancelled,omitempty"`
}

// Summary returns the run summary of the result for the given config.
func (r *Result) Summary(cfg PipelineConfig, at time.Time) RunSummary {
	return RunSummary{
		RunID:                  r.RunID,
		At:                     at,
		Preset:                 cfg.Preset,
		Keyword:                cfg.Keyword,
		AI:                     cfg.AI,
		TotalScenes:            r.TotalScenes,
		ScenesChanged:          r.ScenesChanged,
		ScenesNeedingReview:    r.ScenesNeedingReview,
		ScenesWithBackwardTime: r.ScenesWithBackwardTime,
		ScenesWithLargeGaps:    r.ScenesWithLargeGaps,
		Level1Applied:          r.Level1Applied,
		Level2Refined:          r.Level2Refined,
		Level3Refined:          r.Level3Refined,
		Cancelled:              r.Cancelled,
	}
}

// RunHistory is an append-only log of run summaries.
type RunHistory interface {
	Append(path string, summary RunSummary) error
	Load(path string) ([]RunSummary, error)
}

package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var _ chronologue.ResultStore = (*Store)(nil)

// resultKind marks the header line of a result file.
const resultKind = "chronologue.result"

// header is the first line of a result file: the run counters.
type header struct {
	Kind  string `json:"kind"`
	RunID string `json:"run_id"`

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

// Store persists a pipeline result as a header line followed by one line
// per entry.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Load reads a result file. Returns nil if the file doesn't exist.
func (s *Store) Load(path string) (*chronologue.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var result *chronologue.Result
	err = readLines(f, func(line []byte) error {
		if result == nil {
			var h header
			if err := json.Unmarshal(line, &h); err != nil {
				return err
			}
			if h.Kind != resultKind {
				return fmt.Errorf("not a result file (kind %q)", h.Kind)
			}
			result = &chronologue.Result{
				RunID:                  h.RunID,
				TotalScenes:            h.TotalScenes,
				ScenesChanged:          h.ScenesChanged,
				ScenesNeedingReview:    h.ScenesNeedingReview,
				ScenesWithBackwardTime: h.ScenesWithBackwardTime,
				ScenesWithLargeGaps:    h.ScenesWithLargeGaps,
				Level1Applied:          h.Level1Applied,
				Level2Refined:          h.Level2Refined,
				Level3Refined:          h.Level3Refined,
				Cancelled:              h.Cancelled,
			}
			return nil
		}

		var e chronologue.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		result.Entries = append(result.Entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// Save writes a result file, creating parent directories if needed.
func (s *Store) Save(path string, result *chronologue.Result) error {
	if result == nil {
		return errors.New("jsonl: nil result")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	h := header{
		Kind:                   resultKind,
		RunID:                  result.RunID,
		TotalScenes:            result.TotalScenes,
		ScenesChanged:          result.ScenesChanged,
		ScenesNeedingReview:    result.ScenesNeedingReview,
		ScenesWithBackwardTime: result.ScenesWithBackwardTime,
		ScenesWithLargeGaps:    result.ScenesWithLargeGaps,
		Level1Applied:          result.Level1Applied,
		Level2Refined:          result.Level2Refined,
		Level3Refined:          result.Level3Refined,
		Cancelled:              result.Cancelled,
	}
	if err := writeLine(w, h); err != nil {
		return err
	}
	for _, e := range result.Entries {
		if err := writeLine(w, e); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

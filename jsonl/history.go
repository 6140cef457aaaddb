package jsonl

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/fwojciec/chronologue"
)

// Compile-time interface verification.
var _ chronologue.RunHistory = (*History)(nil)

// History appends run summaries to a JSONL log.
type History struct{}

// NewHistory creates a new History.
func NewHistory() *History {
	return &History{}
}

// Append adds a summary to the log, creating parent directories if needed.
func (h *History) Append(path string, summary chronologue.RunSummary) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeLine(f, summary); err != nil {
		return err
	}
	return f.Close()
}

// Load returns every summary in the log, oldest first. Returns empty slice
// if the log doesn't exist.
func (h *History) Load(path string) ([]chronologue.RunSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var summaries []chronologue.RunSummary
	err = readLines(f, func(line []byte) error {
		var s chronologue.RunSummary
		if err := json.Unmarshal(line, &s); err != nil {
			return err
		}
		summaries = append(summaries, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

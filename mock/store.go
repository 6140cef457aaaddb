package mock

import "github.com/fwojciec/chronologue"

// Compile-time interface verification.
var (
	_ chronologue.ResultStore = (*ResultStore)(nil)
	_ chronologue.Clipboard   = (*Clipboard)(nil)
)

// ResultStore is a mock implementation of chronologue.ResultStore.
type ResultStore struct {
	LoadFn func(path string) (*chronologue.Result, error)
	SaveFn func(path string, result *chronologue.Result) error
}

func (s *ResultStore) Load(path string) (*chronologue.Result, error) {
	return s.LoadFn(path)
}

func (s *ResultStore) Save(path string, result *chronologue.Result) error {
	return s.SaveFn(path, result)
}

// Clipboard is a mock implementation of chronologue.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}

var _ chronologue.RunHistory = (*RunHistory)(nil)

// RunHistory is a mock implementation of chronologue.RunHistory.
type RunHistory struct {
	AppendFn func(path string, summary chronologue.RunSummary) error
	LoadFn   func(path string) ([]chronologue.RunSummary, error)
}

func (h *RunHistory) Append(path string, summary chronologue.RunSummary) error {
	return h.AppendFn(path, summary)
}

func (h *RunHistory) Load(path string) ([]chronologue.RunSummary, error) {
	return h.LoadFn(path)
}

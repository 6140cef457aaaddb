// Package bubbletea provides the interactive review screen for repair
// sessions using the Bubble Tea framework.
package bubbletea

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/chronologue"
)

// Reviewer runs the review screen over a pipeline result.
type Reviewer struct {
	Theme     chronologue.Theme
	Committer chronologue.Committer
	Clipboard chronologue.Clipboard
}

// NewReviewer creates a new Reviewer.
func NewReviewer(theme chronologue.Theme, committer chronologue.Committer, clipboard chronologue.Clipboard) *Reviewer {
	return &Reviewer{Theme: theme, Committer: committer, Clipboard: clipboard}
}

// Review displays the result and blocks until the user exits. It returns
// the session as the user left it.
func (r *Reviewer) Review(ctx context.Context, result *chronologue.Result) (chronologue.Session, error) {
	var opts []ReviewModelOption
	if r.Theme != nil {
		opts = append(opts, WithTheme(r.Theme))
	}
	if r.Committer != nil {
		opts = append(opts, WithCommitter(r.Committer))
	}
	if r.Clipboard != nil {
		opts = append(opts, WithClipboard(r.Clipboard))
	}

	m := NewReviewModel(chronologue.NewSession(result), opts...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return m.Session(), err
	}
	rm, ok := final.(ReviewModel)
	if !ok {
		return m.Session(), fmt.Errorf("unexpected model type %T", final)
	}
	return rm.Session(), nil
}

package bubbletea

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chronologue"
)

// detailHeight is the number of lines reserved for the scene detail pane.
const detailHeight = 5

// commitDoneMsg reports the outcome of a commit started from the review
// screen.
type commitDoneMsg struct {
	count int
	err   error
}

// ReviewModel is the Bubble Tea model for reviewing and editing a repair
// session. All edits go through chronologue.Session; the model only keeps
// the cursor, batch marks and screen state.
type ReviewModel struct {
	session chronologue.Session
	cursor  int
	marked  map[int]bool

	committer chronologue.Committer
	clipboard chronologue.Clipboard

	// UI state
	viewport    viewport.Model
	help        help.Model
	keymap      KeyMap
	styles      chronologue.Styles
	renderer    *lipgloss.Renderer
	width       int
	height      int
	ready       bool
	status      string
	confirmQuit bool
}

// ReviewModelOption configures a ReviewModel.
type ReviewModelOption func(*reviewModelConfig)

type reviewModelConfig struct {
	renderer  *lipgloss.Renderer
	theme     chronologue.Theme
	committer chronologue.Committer
	clipboard chronologue.Clipboard
}

// WithRenderer sets a custom lipgloss renderer for the model.
func WithRenderer(r *lipgloss.Renderer) ReviewModelOption {
	return func(cfg *reviewModelConfig) {
		cfg.renderer = r
	}
}

// WithTheme sets the theme for the model.
func WithTheme(t chronologue.Theme) ReviewModelOption {
	return func(cfg *reviewModelConfig) {
		cfg.theme = t
	}
}

// WithCommitter enables committing edits from the review screen.
func WithCommitter(c chronologue.Committer) ReviewModelOption {
	return func(cfg *reviewModelConfig) {
		cfg.committer = c
	}
}

// WithClipboard enables copying When values.
func WithClipboard(c chronologue.Clipboard) ReviewModelOption {
	return func(cfg *reviewModelConfig) {
		cfg.clipboard = c
	}
}

// NewReviewModel creates a ReviewModel over the given session.
func NewReviewModel(session chronologue.Session, opts ...ReviewModelOption) ReviewModel {
	cfg := &reviewModelConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var styles chronologue.Styles
	if cfg.theme != nil {
		styles = cfg.theme.Styles()
	}

	return ReviewModel{
		session:   session,
		marked:    make(map[int]bool),
		committer: cfg.committer,
		clipboard: cfg.clipboard,
		help:      help.New(),
		keymap:    DefaultKeyMap(),
		styles:    styles,
		renderer:  cfg.renderer,
	}
}

// Session returns the current session.
func (m ReviewModel) Session() chronologue.Session {
	return m.session
}

// Cursor returns the index of the selected scene.
func (m ReviewModel) Cursor() int {
	return m.cursor
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		listHeight := m.listHeight()
		if !m.ready {
			m.viewport = viewport.New(msg.Width, listHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = listHeight
		}
		m.refresh()
		return m, nil

	case commitDoneMsg:
		if msg.err != nil {
			m.status = "commit failed: " + msg.err.Error()
			return m, nil
		}
		m.session = m.session.MarkSaved()
		m.status = fmt.Sprintf("committed %d scene(s)", msg.count)
		m.refresh()
		return m, nil
	}

	return m, nil
}

func (m ReviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A second quit confirms leaving with unsaved edits.
	if key.Matches(msg, m.keymap.Quit) {
		if m.session.HasUnsavedChanges() && m.committer != nil && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "unsaved changes: press q again to quit, w to commit"
			return m, nil
		}
		return m, tea.Quit
	}
	m.confirmQuit = false
	m.status = ""

	switch {
	case key.Matches(msg, m.keymap.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keymap.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keymap.HalfPageUp):
		m.moveCursor(-max(1, m.viewport.Height/2))
	case key.Matches(msg, m.keymap.HalfPageDown):
		m.moveCursor(max(1, m.viewport.Height/2))
	case key.Matches(msg, m.keymap.GotoTop):
		m.moveCursor(-m.session.Len())
	case key.Matches(msg, m.keymap.GotoBottom):
		m.moveCursor(m.session.Len())
	case key.Matches(msg, m.keymap.NextIssue):
		m.jumpToIssue(1)
	case key.Matches(msg, m.keymap.PrevIssue):
		m.jumpToIssue(-1)

	case key.Matches(msg, m.keymap.NextDay):
		m.shiftDays(1)
	case key.Matches(msg, m.keymap.PrevDay):
		m.shiftDays(-1)
	case key.Matches(msg, m.keymap.Morning):
		m.setBucket(chronologue.Morning)
	case key.Matches(msg, m.keymap.Afternoon):
		m.setBucket(chronologue.Afternoon)
	case key.Matches(msg, m.keymap.Evening):
		m.setBucket(chronologue.Evening)
	case key.Matches(msg, m.keymap.Night):
		m.setBucket(chronologue.Night)

	case key.Matches(msg, m.keymap.Mark):
		if m.session.Len() > 0 {
			if m.marked[m.cursor] {
				delete(m.marked, m.cursor)
			} else {
				m.marked[m.cursor] = true
			}
			m.moveCursor(1)
		}
	case key.Matches(msg, m.keymap.ClearMark):
		m.marked = make(map[int]bool)
	case key.Matches(msg, m.keymap.Ripple):
		m.session = m.session.SetRipple(!m.session.RippleEnabled())
	case key.Matches(msg, m.keymap.Undo):
		if !m.session.CanUndo() {
			m.status = "nothing to undo"
		}
		m.session = m.session.Undo()
	case key.Matches(msg, m.keymap.Redo):
		if !m.session.CanRedo() {
			m.status = "nothing to redo"
		}
		m.session = m.session.Redo()

	case key.Matches(msg, m.keymap.Copy):
		m.copyWhen()
	case key.Matches(msg, m.keymap.Commit):
		return m, m.commit()
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		if m.ready {
			m.viewport.Height = m.listHeight()
		}
	}

	m.refresh()
	return m, nil
}

// listHeight is the screen height left for the scene list.
func (m ReviewModel) listHeight() int {
	// Header, detail pane, status bar, help.
	helpHeight := lipgloss.Height(m.help.View(m.keymap))
	h := m.height - 1 - detailHeight - 1 - helpHeight
	return max(h, 1)
}

func (m *ReviewModel) moveCursor(delta int) {
	n := m.session.Len()
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
}

// flagged reports whether an entry carries any review flag.
func flagged(e chronologue.Entry) bool {
	return e.NeedsReview || e.HasBackwardTime || e.HasLargeGap
}

// jumpToIssue moves to the next flagged entry in direction dir, wrapping
// around.
func (m *ReviewModel) jumpToIssue(dir int) {
	n := m.session.Len()
	for i := 1; i <= n; i++ {
		idx := ((m.cursor+dir*i)%n + n) % n
		if e, _ := m.session.Entry(idx); flagged(e) {
			m.cursor = idx
			return
		}
	}
	m.status = "no flagged scenes"
}

// targets returns the marked indices in order, or nil when nothing is
// marked.
func (m ReviewModel) targets() []int {
	if len(m.marked) == 0 {
		return nil
	}
	out := make([]int, 0, len(m.marked))
	for i := range m.marked {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func (m *ReviewModel) shiftDays(days int) {
	if marked := m.targets(); marked != nil {
		m.session = m.session.ShiftMultipleDays(marked, days)
		return
	}
	m.session = m.session.ShiftSceneDays(m.cursor, days)
}

func (m *ReviewModel) setBucket(b chronologue.TimeBucket) {
	if marked := m.targets(); marked != nil {
		m.session = m.session.SetMultipleTimeBucket(marked, b)
		return
	}
	m.session = m.session.SetSceneTimeBucket(m.cursor, b)
}

func (m *ReviewModel) copyWhen() {
	if m.clipboard == nil {
		m.status = "clipboard unavailable"
		return
	}

	indices := m.targets()
	if indices == nil {
		indices = []int{m.cursor}
	}
	var lines []string
	for _, i := range indices {
		if e, ok := m.session.Entry(i); ok {
			lines = append(lines, e.Scene.Title+"\t"+chronologue.FormatWhen(e.EffectiveWhen()))
		}
	}
	if len(lines) == 0 {
		return
	}
	if len(lines) == 1 {
		// A single value is copied bare so it can be pasted into frontmatter.
		_, lines[0], _ = strings.Cut(lines[0], "\t")
	}

	if err := m.clipboard.Copy(strings.Join(lines, "\n")); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied %d value(s)", len(lines))
}

// commit returns a command that writes changed entries through the
// committer.
func (m *ReviewModel) commit() tea.Cmd {
	if m.committer == nil {
		m.status = "commit unavailable"
		return nil
	}
	changed := m.session.ChangedEntries()
	if len(changed) == 0 {
		m.status = "nothing to commit"
		return nil
	}
	m.status = "committing..."
	committer := m.committer
	return func() tea.Msg {
		err := committer.Commit(context.Background(), changed)
		return commitDoneMsg{count: len(changed), err: err}
	}
}

// refresh re-renders the list and keeps the cursor visible.
func (m *ReviewModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderList())
	switch {
	case m.cursor < m.viewport.YOffset:
		m.viewport.SetYOffset(m.cursor)
	case m.cursor >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.session.Len() == 0 {
		return "No scenes to review\n" + m.help.View(m.keymap)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderDetail(),
		m.renderStatusBar(),
		m.help.View(m.keymap),
	)
}

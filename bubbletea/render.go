package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/chronologue"
)

// Column widths of the scene list. The title takes what is left.
const (
	gutterWidth   = 2
	indexWidth    = 4
	whenWidth     = 20 // "Mon 2006-01-02 15:04"
	originalWidth = 16
	sourceWidth   = 8
	confWidth     = 4
	flagsWidth    = 15
	minTitleWidth = 10
)

const listWhenLayout = "Mon 2006-01-02 15:04"

func (m ReviewModel) titleWidth() int {
	fixed := gutterWidth + indexWidth + whenWidth + originalWidth + sourceWidth + confWidth + flagsWidth + 7
	return max(minTitleWidth, m.width-fixed)
}

func (m ReviewModel) renderHeader() string {
	line := fmt.Sprintf("%-*s%*s %-*s %-*s %-*s %-*s %-*s %s",
		gutterWidth, "",
		indexWidth, "#",
		m.titleWidth(), "Scene",
		whenWidth, "When",
		originalWidth, "Was",
		sourceWidth, "Source",
		confWidth, "Conf",
		"Flags")
	return styleFromColorPair(m.styles.Header, m.renderer).Bold(true).Render(line)
}

func (m ReviewModel) renderList() string {
	entries := m.session.Entries()
	rows := make([]string, len(entries))
	for i, e := range entries {
		rows[i] = m.renderRow(i, e)
	}
	return strings.Join(rows, "\n")
}

func (m ReviewModel) renderRow(i int, e chronologue.Entry) string {
	gutter := "  "
	switch {
	case i == m.cursor && m.marked[i]:
		gutter = ">*"
	case i == m.cursor:
		gutter = "> "
	case m.marked[i]:
		gutter = " *"
	}

	original := "-"
	if e.HasOriginal() {
		original = chronologue.FormatWhen(e.OriginalWhen)
	} else if e.OriginalWhenRaw != "" {
		original = truncate(e.OriginalWhenRaw, originalWidth)
	}

	line := fmt.Sprintf("%s%*d %-*s %-*s %-*s %-*s %-*s ",
		gutter,
		indexWidth, i+1,
		m.titleWidth(), truncate(e.Scene.Title, m.titleWidth()),
		whenWidth, e.EffectiveWhen().Format(listWhenLayout),
		originalWidth, original,
		sourceWidth, string(e.Source),
		confWidth, string(e.Confidence))

	var style lipgloss.Style
	switch {
	case i == m.cursor:
		style = styleFromColorPair(m.styles.Selected, m.renderer)
	case m.marked[i]:
		style = styleFromColorPair(m.styles.Marked, m.renderer)
	case e.Source == chronologue.SourceManual:
		style = styleFromColorPair(m.styles.Manual, m.renderer)
	case e.IsChanged:
		style = styleFromColorPair(m.styles.Changed, m.renderer)
	default:
		style = styleFromColorPair(m.styles.Unchanged, m.renderer)
	}
	return style.Render(line) + m.renderFlags(e)
}

func (m ReviewModel) renderFlags(e chronologue.Entry) string {
	var flags []string
	if e.HasBackwardTime {
		flags = append(flags, styleFromColorPair(m.styles.Backward, m.renderer).Render("back"))
	}
	if e.HasLargeGap {
		flags = append(flags, styleFromColorPair(m.styles.LargeGap, m.renderer).Render("gap"))
	}
	if e.NeedsReview && !e.HasBackwardTime {
		flags = append(flags, styleFromColorPair(m.styles.NeedsReview, m.renderer).Render("review"))
	}
	return strings.Join(flags, " ")
}

// renderDetail renders the selected scene's evidence in a fixed number of
// lines.
func (m ReviewModel) renderDetail() string {
	var lines []string
	if e, ok := m.session.Entry(m.cursor); ok {
		lines = append(lines, e.Scene.Title+"  "+e.Scene.Path)
		if len(e.Cues) > 0 {
			cues := make([]string, len(e.Cues))
			for i, c := range e.Cues {
				cues[i] = fmt.Sprintf("%s %q", c.Category, c.Match)
			}
			lines = append(lines, "cues: "+strings.Join(cues, ", "))
		}
		if e.AIRationale != "" {
			lines = append(lines, "ai: "+e.AIRationale)
		}
		if len(e.AIEvidence) > 0 {
			lines = append(lines, "evidence: "+strings.Join(e.AIEvidence, " | "))
		}
		if d := e.EffectiveDuration(); d != "" {
			lines = append(lines, "duration: "+d)
		}
	}
	for len(lines) < detailHeight {
		lines = append(lines, "")
	}
	lines = lines[:detailHeight]

	muted := styleFromColorPair(m.styles.Muted, m.renderer)
	for i := range lines {
		lines[i] = truncate(lines[i], max(m.width, minTitleWidth))
		if i == 0 {
			lines[i] = styleFromColorPair(chronologue.ColorPair{}, m.renderer).Bold(true).Render(lines[i])
		} else {
			lines[i] = muted.Render(lines[i])
		}
	}
	return strings.Join(lines, "\n")
}

func (m ReviewModel) renderStatusBar() string {
	parts := []string{
		fmt.Sprintf("scene %d/%d", m.cursor+1, m.session.Len()),
	}
	if m.session.RippleEnabled() {
		parts = append(parts, "ripple on")
	} else {
		parts = append(parts, "ripple off")
	}
	if n := len(m.marked); n > 0 {
		parts = append(parts, fmt.Sprintf("%d marked", n))
	}
	parts = append(parts, fmt.Sprintf("%d changed", len(m.session.ChangedEntries())))
	if m.session.HasUnsavedChanges() {
		parts = append(parts, "unsaved")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return styleFromColorPair(m.styles.Muted, m.renderer).Render(strings.Join(parts, " │ "))
}

// truncate shortens s to n runes, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// styleFromColorPair creates a lipgloss style from a ColorPair.
// If renderer is nil, the default lipgloss renderer is used.
func styleFromColorPair(cp chronologue.ColorPair, renderer *lipgloss.Renderer) lipgloss.Style {
	var style lipgloss.Style
	if renderer != nil {
		style = renderer.NewStyle()
	} else {
		style = lipgloss.NewStyle()
	}
	if cp.Foreground != "" {
		style = style.Foreground(lipgloss.Color(cp.Foreground))
	}
	if cp.Background != "" {
		style = style.Background(lipgloss.Color(cp.Background))
	}
	return style
}

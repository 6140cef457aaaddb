package chronologue

// ColorPair represents a foreground and background color combination.
// Colors should be hex strings in "#RRGGBB" format (e.g., "#ff0000" for red).
// Empty strings are valid and indicate no color override (use terminal default).
type ColorPair struct {
	Foreground string
	Background string
}

// Styles contains color pairs for all visual elements of the review screen.
type Styles struct {
	Unchanged   ColorPair // Rows whose value equals the original
	Changed     ColorPair // Rows with a new value
	Manual      ColorPair // Rows edited in this session
	Backward    ColorPair // Backward-time marker
	LargeGap    ColorPair // Large-gap marker
	NeedsReview ColorPair // Needs-review marker
	Selected    ColorPair // Cursor row
	Marked      ColorPair // Rows marked for a batch edit
	Header      ColorPair // Column header and title bar
	Muted       ColorPair // Secondary text (source, confidence, help)
}

// Theme provides styles for the review screen.
// Different implementations can provide light/dark variants.
type Theme interface {
	Styles() Styles
}

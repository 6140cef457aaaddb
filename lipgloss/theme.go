// Package lipgloss provides theme implementations using the Lipgloss styling library.
package lipgloss

import "github.com/fwojciec/chronologue"

// Compile-time interface verification.
var _ chronologue.Theme = (*Theme)(nil)

// Theme implements chronologue.Theme with Lipgloss-compatible colors.
type Theme struct {
	styles chronologue.Styles
}

// Styles returns the color styles for this theme.
func (t *Theme) Styles() chronologue.Styles {
	return t.styles
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// DarkTheme returns a theme optimized for dark terminal backgrounds
// (Catppuccin Mocha).
func DarkTheme() *Theme {
	return &Theme{
		styles: chronologue.Styles{
			Unchanged:   chronologue.ColorPair{Foreground: "#6c7086"}, // Muted gray
			Changed:     chronologue.ColorPair{Foreground: "#cdd6f4"},
			Manual:      chronologue.ColorPair{Foreground: "#89b4fa"}, // Blue
			Backward:    chronologue.ColorPair{Foreground: "#f38ba8"}, // Red
			LargeGap:    chronologue.ColorPair{Foreground: "#f9e2af"}, // Yellow
			NeedsReview: chronologue.ColorPair{Foreground: "#fab387"}, // Peach
			Selected: chronologue.ColorPair{
				Foreground: "#cdd6f4",
				Background: "#313244", // Dark surface
			},
			Marked: chronologue.ColorPair{
				Foreground: "#1e1e2e", // Dark text on bright background
				Background: "#a6e3a1", // Green
			},
			Header: chronologue.ColorPair{
				Foreground: "#f9e2af",
				Background: "#313244",
			},
			Muted: chronologue.ColorPair{Foreground: "#9399b2"},
		},
	}
}

// LightTheme returns a theme optimized for light terminal backgrounds
// (Catppuccin Latte).
func LightTheme() *Theme {
	return &Theme{
		styles: chronologue.Styles{
			Unchanged:   chronologue.ColorPair{Foreground: "#9ca0b0"},
			Changed:     chronologue.ColorPair{Foreground: "#4c4f69"},
			Manual:      chronologue.ColorPair{Foreground: "#1e66f5"},
			Backward:    chronologue.ColorPair{Foreground: "#d20f39"},
			LargeGap:    chronologue.ColorPair{Foreground: "#df8e1d"},
			NeedsReview: chronologue.ColorPair{Foreground: "#fe640b"},
			Selected: chronologue.ColorPair{
				Foreground: "#4c4f69",
				Background: "#e6e9ef", // Light surface
			},
			Marked: chronologue.ColorPair{
				Foreground: "#ffffff", // White text on dark background
				Background: "#40a02b",
			},
			Header: chronologue.ColorPair{
				Foreground: "#df8e1d",
				Background: "#e6e9ef",
			},
			Muted: chronologue.ColorPair{Foreground: "#6c6f85"},
		},
	}
}

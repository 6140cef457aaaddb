package chronologue

import (
	"fmt"
	"strings"
	"time"
)

// PromptInput is everything the AI tier tells the model about one scene.
type PromptInput struct {
	Title         string
	Excerpt       string
	PreviousTitle string
	PreviousWhen  time.Time // Zero for the first scene
	CurrentWhen   time.Time
	InferDuration bool
}

// PromptFormatter renders prompt input as structured text for LLM prompts.
type PromptFormatter interface {
	Format(input PromptInput) string
}

// DefaultFormatter implements PromptFormatter with the standard format.
type DefaultFormatter struct{}

// Format renders the prompt input as structured text.
func (f *DefaultFormatter) Format(input PromptInput) string {
	var sb strings.Builder

	sb.WriteString("<context>\n")
	if input.PreviousWhen.IsZero() {
		sb.WriteString("Previous scene: none (this is the first scene)\n")
	} else {
		title := input.PreviousTitle
		if title == "" {
			title = "untitled"
		}
		sb.WriteString(fmt.Sprintf("Previous scene: %s\n", title))
		sb.WriteString(fmt.Sprintf("Previous scene When: %s (%s)\n",
			FormatWhen(input.PreviousWhen), input.PreviousWhen.Weekday()))
	}
	sb.WriteString(fmt.Sprintf("Current proposal for this scene: %s (%s)\n",
		FormatWhen(input.CurrentWhen), input.CurrentWhen.Weekday()))
	sb.WriteString("</context>\n\n")

	sb.WriteString("<scene>\n")
	if input.Title != "" {
		sb.WriteString(fmt.Sprintf("Title: %s\n\n", input.Title))
	}
	sb.WriteString(strings.TrimSpace(input.Excerpt))
	sb.WriteString("\n</scene>")

	if input.InferDuration {
		sb.WriteString("\n\nAlso estimate how long the scene lasts (durationSuggestion), e.g. \"2 hours\".")
	}
	return sb.String()
}

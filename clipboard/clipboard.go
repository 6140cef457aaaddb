// Package clipboard provides clipboard operations via platform-specific commands.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fwojciec/chronologue"
)

// ErrNoCommand is returned when no clipboard command is installed.
var ErrNoCommand = errors.New("clipboard: no copy command available")

// Ensure Command implements the Clipboard interface.
var _ chronologue.Clipboard = (*Command)(nil)

// Command implements Clipboard by piping content to an external program.
type Command struct {
	Name string
	Args []string
}

// candidates lists copy commands per platform, most preferred first.
func candidates(goos string) []Command {
	switch goos {
	case "darwin":
		return []Command{{Name: "pbcopy"}}
	case "windows":
		return []Command{{Name: "clip"}}
	default:
		return []Command{
			{Name: "wl-copy"},
			{Name: "xclip", Args: []string{"-selection", "clipboard"}},
			{Name: "xsel", Args: []string{"--clipboard", "--input"}},
		}
	}
}

// Detect returns the first copy command available on this system.
func Detect() (*Command, error) {
	for _, c := range candidates(runtime.GOOS) {
		if _, err := exec.LookPath(c.Name); err == nil {
			return &c, nil
		}
	}
	return nil, ErrNoCommand
}

// Copy writes content to the system clipboard.
func (c *Command) Copy(content string) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(content)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard: %s: %w", c.Name, err)
	}
	return nil
}

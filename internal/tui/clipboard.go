package tui

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// copyText copies text to the system clipboard using command, or an
// auto-detected tool when command is empty.
func copyText(text, command string) error {
	if command == "" {
		command = detectClipboardCommand(exec.LookPath)
	}
	if command == "" {
		return errors.New("no clipboard command available")
	}

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("invalid clipboard command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, parts[0], parts[1:]...)
	c.Stdin = strings.NewReader(text)

	return c.Run()
}

// detectClipboardCommand returns the first available clipboard tool.
// Wayland is preferred over X11.
func detectClipboardCommand(lookPath func(string) (string, error)) string {
	candidates := []struct {
		bin string
		cmd string
	}{
		{"wl-copy", "wl-copy"},
		{"xclip", "xclip -selection clipboard"},
		{"xsel", "xsel --clipboard --input"},
		{"pbcopy", "pbcopy"},
	}
	for _, c := range candidates {
		if _, err := lookPath(c.bin); err == nil {
			return c.cmd
		}
	}
	return ""
}

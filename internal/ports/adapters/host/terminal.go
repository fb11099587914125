// Package host implements the user-facing dialogs on a terminal, a headless
// variant for scripts and CI, and the platform file-manager launcher.
package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/forPelevin/asciify/internal/types"
)

// SourceExtensions is shown as a hint; decodability is checked on open.
var SourceExtensions = []string{"mp4", "avi", "mov", "mkv", "wmv", "flv", "webm"}

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
	okStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 1)
	errStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Padding(0, 1)
)

// Terminal asks on in and prints to out.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) PickSource(ctx context.Context) (string, error) {
	fmt.Fprintf(t.out, "%s %s\n", promptStyle.Render("Video file:"),
		hintStyle.Render("("+strings.Join(SourceExtensions, " ")+", or any file ffmpeg can read)"))
	fmt.Fprint(t.out, "> ")
	line, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	path := strings.Trim(strings.TrimSpace(line), `"'`)
	if path == "" {
		return "", types.ErrNoSelection
	}
	return path, nil
}

func (t *Terminal) ConfirmOpenFolder(ctx context.Context, a types.Artifact) (bool, error) {
	summary := fmt.Sprintf("Done: %d frames\n%s", a.Frames, a.Path)
	fmt.Fprintln(t.out, okStyle.Render(summary))
	fmt.Fprintf(t.out, "%s ", promptStyle.Render("Open output folder? [y/N]"))
	line, err := t.readLine(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNoSelection) {
			return false, nil
		}
		return false, err
	}
	return parseYes(line), nil
}

func (t *Terminal) ShowError(_ context.Context, err error) {
	fmt.Fprintln(t.out, errStyle.Render("Conversion failed\n"+err.Error()))
}

// readLine returns ErrNoSelection on EOF and honours ctx while blocked.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && strings.TrimSpace(r.line) != "" {
				return r.line, nil
			}
			if errors.Is(r.err, io.EOF) {
				return "", types.ErrNoSelection
			}
			return "", fmt.Errorf("read input: %w", r.err)
		}
		return r.line, nil
	}
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

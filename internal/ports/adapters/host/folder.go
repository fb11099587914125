package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/forPelevin/asciify/internal/types"
)

// FolderOpener launches the platform file manager.
type FolderOpener struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
}

func NewFolderOpener() *FolderOpener {
	return &FolderOpener{goos: runtime.GOOS, run: runCommand}
}

// Command returns the launcher for goos.
func Command(goos, dir string) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{dir}
	case "darwin":
		return "open", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

func (o *FolderOpener) OpenFolder(ctx context.Context, dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrFolderOpen, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", types.ErrFolderOpen, dir)
	}
	name, args := Command(o.goos, dir)
	err = o.run(ctx, name, args...)
	// explorer exits 1 even when the window opened
	var ee *exec.ExitError
	if o.goos == "windows" && errors.As(err, &ee) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrFolderOpen, name, err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return fmt.Errorf("%w\n%s", err, string(out))
		}
		return err
	}
	return nil
}

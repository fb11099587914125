// Package artifact persists rendered frames: a self-playing batch script or
// an encoded video, written next to the source file.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/asciify/internal/types"
)

const dirSuffix = "_ascii"

// BaseName is the source file name without directory and extension.
func BaseName(source string) string {
	return strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
}

// Layout returns "<root>/<base>_ascii" and "<base>_ascii<ext>" inside it. An
// empty root means the directory of the source.
func Layout(source, root string, kind types.OutputKind) (dir, file string) {
	name := BaseName(source) + dirSuffix
	if root == "" {
		root = filepath.Dir(source)
	}
	dir = filepath.Join(root, name)
	return dir, filepath.Join(dir, name+kind.Ext())
}

// Prepare creates (or reuses) the output directory.
func Prepare(source, root string, kind types.OutputKind) (dir, file string, err error) {
	dir, file = Layout(source, root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("%w: create output dir: %w", types.ErrWriteFailure, err)
	}
	return dir, file, nil
}

//go:build integration

package itest

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "", errors.New("could not locate go.mod")
}

// makeFixture renders a lavfi test pattern of the given length into path.
func makeFixture(t *testing.T, path string, size string, fps, seconds int) {
	t.Helper()
	src := fmt.Sprintf("testsrc=size=%s:rate=%d:duration=%d", size, fps, seconds)
	args := []string{"-y", "-v", "error", "-f", "lavfi", "-i", src}
	if strings.HasSuffix(path, ".mp4") {
		args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p")
	}
	args = append(args, path)
	if b, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}

type videoStats struct {
	frames int
	width  int
	height int
}

// probeVideo decodes the whole stream to count frames.
func probeVideo(path string) (videoStats, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-count_frames",
		"-select_streams", "v:0",
		"-show_entries", "stream=nb_read_frames,width,height",
		"-of", "csv=p=0",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return videoStats{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	fields := strings.Split(strings.TrimSpace(string(b)), ",")
	if len(fields) != 3 {
		return videoStats{}, fmt.Errorf("unexpected ffprobe output %q", string(b))
	}
	var st videoStats
	for i, dst := range []*int{&st.width, &st.height, &st.frames} {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return videoStats{}, fmt.Errorf("parse %q: %w", fields[i], err)
		}
		*dst = v
	}
	return st, nil
}

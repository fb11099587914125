package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/types"
)

func validConfig() Config {
	return Config{
		Output:       types.OutputVideo,
		Width:        120,
		Height:       60,
		MaxFrames:    300,
		FPS:          30,
		RasterWidth:  1920,
		RasterHeight: 1080,
		CellWidth:    6,
		CellHeight:   12,
		FontSize:     8,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "script ignores raster", mutate: func(c *Config) {
			c.Output = types.OutputScript
			c.RasterWidth = 0
		}},
		{name: "mode", mutate: func(c *Config) { c.Output = "gif" }, wantErr: "unknown output mode"},
		{name: "width", mutate: func(c *Config) { c.Width = 0 }, wantErr: "grid size"},
		{name: "frames", mutate: func(c *Config) { c.MaxFrames = -1 }, wantErr: "max frames"},
		{name: "fps", mutate: func(c *Config) { c.FPS = 0 }, wantErr: "fps"},
		{name: "workers", mutate: func(c *Config) { c.Workers = -2 }, wantErr: "workers"},
		{name: "raster", mutate: func(c *Config) { c.RasterHeight = 0 }, wantErr: "raster size"},
		{name: "cell", mutate: func(c *Config) { c.CellWidth = 0 }, wantErr: "cell size"},
		{name: "font", mutate: func(c *Config) { c.FontSize = 0 }, wantErr: "font size"},
		{name: "fit", mutate: func(c *Config) { c.Width = 400 }, wantErr: "does not fit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

type stubSource struct{ left int }

func (s *stubSource) Info() types.SourceInfo {
	return types.SourceInfo{TotalFrames: 4, FPS: 30, Width: 4, Height: 2}
}

func (s *stubSource) Next(context.Context) (image.Image, error) {
	if s.left == 0 {
		return nil, io.EOF
	}
	s.left--
	return image.NewRGBA(image.Rect(0, 0, 4, 2)), nil
}

func (s *stubSource) Skip(context.Context) error {
	if s.left == 0 {
		return io.EOF
	}
	s.left--
	return nil
}

func (s *stubSource) Close() error { return nil }

type stubOpener struct {
	frames int
	err    error
	paths  []string
}

func (o *stubOpener) Open(_ context.Context, path string) (ports.VideoSource, error) {
	o.paths = append(o.paths, path)
	if o.err != nil {
		return nil, o.err
	}
	return &stubSource{left: o.frames}, nil
}

type recordingUI struct {
	pick      string
	pickErr   error
	open      bool
	confirmed []types.Artifact
	shown     []error
}

func (u *recordingUI) PickSource(context.Context) (string, error) { return u.pick, u.pickErr }

func (u *recordingUI) ConfirmOpenFolder(_ context.Context, a types.Artifact) (bool, error) {
	u.confirmed = append(u.confirmed, a)
	return u.open, nil
}

func (u *recordingUI) ShowError(_ context.Context, err error) { u.shown = append(u.shown, err) }

type recordingFolder struct {
	dirs []string
	err  error
}

func (f *recordingFolder) OpenFolder(_ context.Context, dir string) error {
	f.dirs = append(f.dirs, dir)
	return f.err
}

func scriptConfig(source string) Config {
	return Config{
		Source:    source,
		Output:    types.OutputScript,
		Width:     4,
		Height:    2,
		MaxFrames: 10,
		FPS:       10,
		Color:     true,
	}
}

func TestRun_PicksSourceAndOpensFolder(t *testing.T) {
	tmp := t.TempDir()
	ui := &recordingUI{pick: filepath.Join(tmp, "picked.mp4"), open: true}
	folder := &recordingFolder{err: errors.New("no file manager")}
	opener := &stubOpener{frames: 4}

	cfg := scriptConfig("")
	cfg.UI, cfg.Folder, cfg.Opener = ui, folder, opener

	art, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(opener.paths) != 1 || opener.paths[0] != ui.pick {
		t.Fatalf("opened %v, want %s", opener.paths, ui.pick)
	}
	wantDir := filepath.Join(tmp, "picked_ascii")
	if art.Dir != wantDir || art.Frames != 4 {
		t.Fatalf("unexpected artifact: %+v", art)
	}
	if _, err := os.Stat(art.Path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if len(ui.confirmed) != 1 {
		t.Fatalf("expected one confirm prompt, got %d", len(ui.confirmed))
	}
	// open failure is logged, not returned
	if len(folder.dirs) != 1 || folder.dirs[0] != wantDir {
		t.Fatalf("folder opener called with %v", folder.dirs)
	}
	if len(ui.shown) != 0 {
		t.Fatalf("unexpected error dialog: %v", ui.shown)
	}
}

func TestRun_DeclinedFolderOpen(t *testing.T) {
	tmp := t.TempDir()
	ui := &recordingUI{}
	folder := &recordingFolder{}
	cfg := scriptConfig(filepath.Join(tmp, "a.mp4"))
	cfg.UI, cfg.Folder, cfg.Opener = ui, folder, &stubOpener{frames: 2}

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(folder.dirs) != 0 {
		t.Fatalf("folder should not be opened, got %v", folder.dirs)
	}
}

func TestRun_NoSelection(t *testing.T) {
	ui := &recordingUI{pickErr: types.ErrNoSelection}
	opener := &stubOpener{frames: 1}
	cfg := scriptConfig("")
	cfg.UI, cfg.Opener = ui, opener

	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, types.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if len(opener.paths) != 0 {
		t.Fatalf("source should not be opened")
	}
}

func TestRun_FailureShowsError(t *testing.T) {
	tmp := t.TempDir()
	ui := &recordingUI{open: true}
	folder := &recordingFolder{}
	cfg := scriptConfig(filepath.Join(tmp, "missing.mp4"))
	cfg.UI, cfg.Folder = ui, folder
	cfg.Opener = &stubOpener{err: types.ErrSourceUnavailable}

	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, types.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if len(ui.shown) != 1 || !errors.Is(ui.shown[0], types.ErrSourceUnavailable) {
		t.Fatalf("expected error dialog, got %v", ui.shown)
	}
	if len(ui.confirmed) != 0 || len(folder.dirs) != 0 {
		t.Fatalf("no folder prompt expected after failure")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := scriptConfig("x.mp4")
	cfg.FPS = 0
	_, err := Run(context.Background(), cfg)
	if err == nil || !strings.HasPrefix(err.Error(), "config: ") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestJob(t *testing.T) {
	cfg := scriptConfig("/v/a.mp4")
	cfg.Random = true
	j := cfg.job("/v/a.mp4")
	if j.ID == "" {
		t.Fatalf("job id is empty")
	}
	if !j.Jitter || j.Seed == 0 {
		t.Fatalf("random job needs jitter and a seed, got %+v", j)
	}

	cfg.Seed = 99
	if got := cfg.job("/v/a.mp4").Seed; got != 99 {
		t.Fatalf("explicit seed not kept: %d", got)
	}
	if a, b := cfg.job("x").ID, cfg.job("x").ID; a == b {
		t.Fatalf("job ids must differ")
	}
}

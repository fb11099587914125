package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/asciify/internal/ports/adapters/host"
	"github.com/forPelevin/asciify/internal/types"
	"github.com/forPelevin/asciify/internal/usecase"
)

type Config struct {
	// Source is asked for through UI when empty.
	Source string
	Output types.OutputKind
	OutDir string

	Width     int
	Height    int
	MaxFrames int
	FPS       float64

	RasterWidth  int
	RasterHeight int
	CellWidth    int
	CellHeight   int
	FontSize     float64
	FontPath     string
	Codec        string

	Random  bool
	Color   bool
	Seed    uint64
	Workers int

	FFmpegPath  string
	FFprobePath string

	Logger *log.Logger
	UI     ports.Interaction
	Folder ports.FolderOpener

	// Opener and Encoder replace the ffmpeg adapters when set.
	Opener  ports.VideoOpener
	Encoder ports.VideoEncoder
}

func (c Config) Validate() error {
	switch c.Output {
	case types.OutputScript, types.OutputVideo:
	default:
		return fmt.Errorf("unknown output mode %q", c.Output)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid size must be > 0, got %dx%d", c.Width, c.Height)
	}
	if c.MaxFrames <= 0 {
		return errors.New("max frames must be > 0")
	}
	if c.FPS <= 0 {
		return errors.New("fps must be > 0")
	}
	if c.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	if c.Output != types.OutputVideo {
		return nil
	}
	if c.RasterWidth <= 0 || c.RasterHeight <= 0 {
		return fmt.Errorf("raster size must be > 0, got %dx%d", c.RasterWidth, c.RasterHeight)
	}
	if c.CellWidth <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("cell size must be > 0, got %dx%d", c.CellWidth, c.CellHeight)
	}
	if c.FontSize <= 0 {
		return errors.New("font size must be > 0")
	}
	if c.Width*c.CellWidth > c.RasterWidth || c.Height*c.CellHeight > c.RasterHeight {
		return fmt.Errorf("grid %dx%d with %dx%d cells does not fit raster %dx%d",
			c.Width, c.Height, c.CellWidth, c.CellHeight, c.RasterWidth, c.RasterHeight)
	}
	return nil
}

// Run is one session: resolve the source, convert it, report the result and
// offer to open the output folder. A folder-open failure is only logged.
func Run(ctx context.Context, cfg Config) (types.Artifact, error) {
	if err := cfg.Validate(); err != nil {
		return types.Artifact{}, fmt.Errorf("config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ui := cfg.UI
	if ui == nil {
		ui = host.Headless{}
	}
	folder := cfg.Folder
	if folder == nil {
		folder = host.NewFolderOpener()
	}

	source := cfg.Source
	if source == "" {
		picked, err := ui.PickSource(ctx)
		if err != nil {
			return types.Artifact{}, err
		}
		source = picked
	}
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}

	job := cfg.job(source)
	logger = logger.With("job", job.ID)
	logger.Info("starting conversion", "mode", job.Output, "grid", fmt.Sprintf("%dx%d", job.Width, job.Height),
		"max_frames", job.MaxFrames, "fps", job.FPS)
	if job.Jitter {
		logger.Debug("jitter enabled", "seed", job.Seed)
	}

	// adapters
	ff := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	deps := usecase.Deps{Opener: cfg.Opener, Encoder: cfg.Encoder, Logger: logger}
	if deps.Opener == nil {
		deps.Opener = ff
	}
	if deps.Encoder == nil && job.Output == types.OutputVideo {
		deps.Encoder = ff.NewEncoder(job.Codec)
	}

	start := time.Now()
	res, err := usecase.New(deps).Run(ctx, usecase.Input{Job: job, OutRoot: cfg.OutDir})
	if err != nil {
		logger.Error("conversion failed", "err", err)
		ui.ShowError(ctx, err)
		return types.Artifact{}, err
	}
	logger.Info("conversion finished", "file", res.Artifact.Path, "frames", res.Frames,
		"took", time.Since(start).Round(time.Millisecond))

	open, err := ui.ConfirmOpenFolder(ctx, res.Artifact)
	if err != nil {
		logger.Warn("open folder prompt failed", "err", err)
		return res.Artifact, nil
	}
	if open {
		if err := folder.OpenFolder(ctx, res.Artifact.Dir); err != nil {
			logger.Warn("could not open output folder", "dir", res.Artifact.Dir, "err", err)
		}
	}
	return res.Artifact, nil
}

func (c Config) job(source string) types.Job {
	seed := c.Seed
	if c.Random && seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return types.Job{
		ID:           uuid.NewString(),
		Source:       source,
		Output:       c.Output,
		Width:        c.Width,
		Height:       c.Height,
		MaxFrames:    c.MaxFrames,
		FPS:          c.FPS,
		RasterWidth:  c.RasterWidth,
		RasterHeight: c.RasterHeight,
		CellWidth:    c.CellWidth,
		CellHeight:   c.CellHeight,
		FontSize:     c.FontSize,
		FontPath:     c.FontPath,
		Codec:        c.Codec,
		Jitter:       c.Random,
		Color:        c.Color,
		Seed:         seed,
		Workers:      c.Workers,
	}
}

// ensure adapters implement ports
var _ ports.VideoOpener = (*ffmpeg.Adapter)(nil)
var _ ports.VideoEncoder = (*ffmpeg.Encoder)(nil)
var _ ports.Interaction = (*host.Terminal)(nil)
var _ ports.Interaction = host.Headless{}
var _ ports.FolderOpener = (*host.FolderOpener)(nil)

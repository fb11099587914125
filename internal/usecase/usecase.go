package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/forPelevin/asciify/internal/artifact"
	"github.com/forPelevin/asciify/internal/domain/glyph"
	"github.com/forPelevin/asciify/internal/domain/render"
	"github.com/forPelevin/asciify/internal/domain/sampler"
	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/types"
)

type Deps struct {
	Opener  ports.VideoOpener
	Encoder ports.VideoEncoder
	Logger  *log.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	return Usecase{d: d}
}

type Input struct {
	Job types.Job
	// OutRoot overrides the directory the "<name>_ascii" folder is created
	// in. Empty means next to the source.
	OutRoot string
}

type Result struct {
	Artifact  types.Artifact
	Frames    int
	Stride    int
	Truncated bool
	// Cause is the decode error behind a truncation, if there was one.
	Cause error
}

// sink is the output backend: a batch script or an encoded video.
type sink interface {
	Begin(ctx context.Context) error
	Add(ctx context.Context, g types.GlyphGrid) error
	Close(ctx context.Context) (types.Artifact, error)
	Abort()
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	job := in.Job
	logger := u.d.Logger.With("job", job.ID)

	src, err := u.d.Opener.Open(ctx, job.Source)
	if err != nil {
		if errors.Is(err, types.ErrSourceUnavailable) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
	}
	smp := sampler.New(src, job.MaxFrames)
	defer smp.Close()

	info := src.Info()
	logger.Info("source opened",
		"file", job.Source,
		"size", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"fps", info.FPS,
		"total", info.TotalFrames,
		"frames", smp.Effective(),
		"stride", smp.Stride(),
	)

	dir, file, err := artifact.Prepare(job.Source, in.OutRoot, job.Output)
	if err != nil {
		return Result{}, err
	}

	out, err := u.newSink(job, dir, file, smp.Effective(), logger)
	if err != nil {
		return Result{}, err
	}
	if err := out.Begin(ctx); err != nil {
		return Result{}, err
	}

	mapper := glyph.NewMapper(glyph.Options{
		Width:   job.Width,
		Height:  job.Height,
		Palette: glyph.ForOutput(job.Output),
		Mode:    job.ColorMode(),
		Color:   job.Color,
		Jitter:  job.Jitter,
	})

	n, err := mapFrames(ctx, smp, mapper, job, logger, func(g types.GlyphGrid) error {
		return out.Add(ctx, g)
	})
	if err != nil {
		out.Abort()
		return Result{}, err
	}
	if n == 0 {
		out.Abort()
		// only removes the folder if nothing else lives there
		_ = os.Remove(dir)
		if cause := smp.Err(); cause != nil {
			return Result{}, fmt.Errorf("%w: no frames decoded: %w", types.ErrSourceUnavailable, cause)
		}
		return Result{}, fmt.Errorf("%w: no frames decoded", types.ErrSourceUnavailable)
	}

	art, err := out.Close(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Artifact:  art,
		Frames:    n,
		Stride:    smp.Stride(),
		Truncated: smp.Truncated(),
		Cause:     smp.Err(),
	}
	if res.Truncated {
		logger.Warn("source ended early", "frames", n, "planned", smp.Effective(), "err", res.Cause)
	}
	logger.Info("artifact written",
		"file", art.Path,
		"frames", res.Frames,
		"stride", res.Stride,
		"truncated", res.Truncated,
	)
	return res, nil
}

func (u Usecase) newSink(job types.Job, dir, file string, expected int, logger *log.Logger) (sink, error) {
	switch job.Output {
	case types.OutputScript:
		return artifact.NewScriptSink(file, dir, artifact.BaseName(job.Source), job.FPS,
			render.NewScriptRenderer(job.Color)), nil
	case types.OutputVideo:
		if u.d.Encoder == nil {
			return nil, fmt.Errorf("video output requires an encoder")
		}
		rr, err := render.NewRasterRenderer(render.RasterOptions{
			Width:      job.RasterWidth,
			Height:     job.RasterHeight,
			CellWidth:  job.CellWidth,
			CellHeight: job.CellHeight,
			FontSize:   job.FontSize,
			FontPath:   job.FontPath,
		})
		if err != nil {
			return nil, fmt.Errorf("raster renderer: %w", err)
		}
		vs := artifact.NewVideoSink(file, dir, job.FPS, u.d.Encoder, rr, logger)
		vs.Expect(expected)
		return vs, nil
	default:
		return nil, fmt.Errorf("unknown output mode %q", job.Output)
	}
}

// mapFrames pulls frames from the sampler, maps up to 2*workers of them
// concurrently and hands grids to emit strictly in sampled order.
func mapFrames(
	ctx context.Context,
	smp *sampler.Sampler,
	mapper *glyph.Mapper,
	job types.Job,
	logger *log.Logger,
	emit func(types.GlyphGrid) error,
) (int, error) {
	workers := max(1, job.Workers)
	inflight := int64(workers * 2)
	sem := semaphore.NewWeighted(inflight)
	pending := make(chan chan types.GlyphGrid, inflight)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(pending)
		for {
			fr, err := smp.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			slot := make(chan types.GlyphGrid, 1)
			select {
			case pending <- slot:
			case <-gctx.Done():
				sem.Release(1)
				return gctx.Err()
			}
			g.Go(func() error {
				slot <- mapper.Map(fr.Image, frameRand(job, fr.Index))
				return nil
			})
		}
	})

	n := 0
	planned := smp.Effective()
	g.Go(func() error {
		for slot := range pending {
			var grid types.GlyphGrid
			select {
			case grid = <-slot:
			case <-gctx.Done():
				return gctx.Err()
			}
			sem.Release(1)
			if err := emit(grid); err != nil {
				return err
			}
			n++
			if n%10 == 0 {
				logger.Info("processed frames", "n", n, "of", planned)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return n, err
	}
	return n, nil
}

// frameRand derives the jitter stream from the seed and the frame position,
// so output does not depend on the worker count.
func frameRand(job types.Job, index int) glyph.Rand {
	if !job.Jitter {
		return nil
	}
	return rand.New(rand.NewPCG(job.Seed, uint64(index)))
}

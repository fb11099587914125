package artifact

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/forPelevin/asciify/internal/domain/render"
	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/types"
)

// VideoSink rasterizes each grid and streams it straight into the encoder,
// so frame order in the container is the order of Add calls.
type VideoSink struct {
	path     string
	dir      string
	fps      float64
	enc      ports.VideoEncoder
	renderer *render.RasterRenderer
	logger   *log.Logger

	expected int
	written  int
	started  bool
}

func NewVideoSink(
	path, dir string,
	fps float64,
	enc ports.VideoEncoder,
	renderer *render.RasterRenderer,
	logger *log.Logger,
) *VideoSink {
	return &VideoSink{
		path:     path,
		dir:      dir,
		fps:      fps,
		enc:      enc,
		renderer: renderer,
		logger:   logger,
	}
}

// Expect sets the planned frame count used in progress lines.
func (s *VideoSink) Expect(n int) { s.expected = n }

func (s *VideoSink) Begin(ctx context.Context) error {
	w, h := s.renderer.Size()
	if err := s.enc.Begin(ctx, s.path, w, h, s.fps); err != nil {
		return fmt.Errorf("%w: %w", types.ErrWriteFailure, err)
	}
	s.started = true
	s.logger.Info("encoding video", "file", s.path, "size", fmt.Sprintf("%dx%d", w, h), "fps", s.fps)
	return nil
}

func (s *VideoSink) Add(_ context.Context, g types.GlyphGrid) error {
	if !s.started {
		return fmt.Errorf("%w: encoder not started", types.ErrWriteFailure)
	}
	if err := s.enc.EncodeFrame(s.renderer.Render(g)); err != nil {
		return fmt.Errorf("%w: encode frame %d: %w", types.ErrWriteFailure, s.written+1, err)
	}
	s.written++
	if s.written%10 == 0 {
		s.logger.Info("written frames", "n", s.written, "of", s.expected)
	}
	return nil
}

func (s *VideoSink) Close(context.Context) (types.Artifact, error) {
	if !s.started {
		return types.Artifact{}, fmt.Errorf("%w: encoder not started", types.ErrWriteFailure)
	}
	s.started = false
	if err := s.enc.End(); err != nil {
		return types.Artifact{}, fmt.Errorf("%w: finalize video: %w", types.ErrWriteFailure, err)
	}
	return types.Artifact{
		Kind:   types.OutputVideo,
		Path:   s.path,
		Dir:    s.dir,
		Frames: s.written,
	}, nil
}

func (s *VideoSink) Abort() {
	if s.started {
		s.enc.Abort()
		s.started = false
	}
}

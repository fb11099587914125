package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"

	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/types"
)

// Open probes path and starts an ffmpeg process decoding the first video
// stream to raw RGBA on stdout.
func (a *Adapter) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", types.ErrSourceUnavailable, path)
	}
	info, err := a.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
	}

	dctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(dctx, a.ffmpeg,
		"-v", "error",
		"-nostdin",
		// Probe swaps the geometry for quarter turns to match.
		"-autorotate",
		"-i", path,
		"-map", "0:v:0",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: ffmpeg stdout: %w", types.ErrSourceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start ffmpeg: %w", types.ErrSourceUnavailable, err)
	}

	frameSize := info.Width * info.Height * 4
	return &source{
		cmd:       cmd,
		cancel:    cancel,
		r:         bufio.NewReaderSize(stdout, frameSize),
		stderr:    stderr,
		info:      info,
		frameSize: frameSize,
	}, nil
}

type source struct {
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	r         *bufio.Reader
	stderr    *bytes.Buffer
	info      types.SourceInfo
	frameSize int
	scratch   []byte

	exited bool
	err    error
}

func (s *source) Info() types.SourceInfo { return s.info }

func (s *source) Next(ctx context.Context) (image.Image, error) {
	buf := make([]byte, s.frameSize)
	if err := s.read(ctx, buf); err != nil {
		return nil, err
	}
	return &image.RGBA{
		Pix:    buf,
		Stride: s.info.Width * 4,
		Rect:   image.Rect(0, 0, s.info.Width, s.info.Height),
	}, nil
}

// Skip consumes one frame into a reused buffer.
func (s *source) Skip(ctx context.Context) error {
	if s.scratch == nil {
		s.scratch = make([]byte, s.frameSize)
	}
	return s.read(ctx, s.scratch)
}

func (s *source) read(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if werr := s.wait(); werr != nil {
			return werr
		}
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if werr := s.wait(); werr != nil {
			return werr
		}
		return fmt.Errorf("ffmpeg decode: partial frame at end of stream")
	default:
		return fmt.Errorf("ffmpeg decode: %w", err)
	}
}

func (s *source) wait() error {
	if !s.exited {
		s.exited = true
		if err := s.cmd.Wait(); err != nil {
			s.err = fmt.Errorf("ffmpeg decode: %w\n%s", err, s.stderr.String())
		}
	}
	return s.err
}

func (s *source) Close() error {
	s.cancel()
	if !s.exited {
		s.exited = true
		// Killed on purpose; the exit status carries no information.
		_ = s.cmd.Wait()
	}
	return nil
}

// Package sampler picks an evenly strided, bounded subsequence of frames from
// a decoded video stream.
package sampler

import (
	"context"
	"errors"
	"io"

	"github.com/forPelevin/asciify/internal/ports"
	"github.com/forPelevin/asciify/internal/types"
)

// Plan returns how many frames to emit and the distance between them. A
// total of 0 means the source did not report a count.
func Plan(total, limit int) (effective, stride int) {
	if limit <= 0 {
		return 0, 1
	}
	if total <= 0 {
		return limit, 1
	}
	effective = min(limit, total)
	stride = max(1, total/effective)
	return effective, stride
}

// Sampler owns the source for the duration of one job and releases it once
// the sequence is exhausted or Close is called.
type Sampler struct {
	src       ports.VideoSource
	effective int
	stride    int
	known     bool

	cursor    int
	emitted   int
	done      bool
	closed    bool
	truncated bool
	cause     error
}

func New(src ports.VideoSource, limit int) *Sampler {
	total := src.Info().TotalFrames
	effective, stride := Plan(total, limit)
	return &Sampler{
		src:       src,
		effective: effective,
		stride:    stride,
		known:     total > 0,
	}
}

func (s *Sampler) Stride() int    { return s.stride }
func (s *Sampler) Effective() int { return s.effective }
func (s *Sampler) Emitted() int   { return s.emitted }

// Truncated reports whether the stream ended before the planned count.
func (s *Sampler) Truncated() bool { return s.truncated }

// Err is the decode error that cut the stream short, if any.
func (s *Sampler) Err() error { return s.cause }

// Next returns the next sampled frame, or io.EOF when the sequence is over.
// Cancellation is checked before every read.
func (s *Sampler) Next(ctx context.Context) (types.Frame, error) {
	if s.done {
		return types.Frame{}, io.EOF
	}
	if s.emitted >= s.effective {
		s.finish()
		return types.Frame{}, io.EOF
	}
	for s.cursor%s.stride != 0 {
		if err := ctx.Err(); err != nil {
			return types.Frame{}, err
		}
		if err := s.src.Skip(ctx); err != nil {
			return s.end(ctx, err)
		}
		s.cursor++
	}
	if err := ctx.Err(); err != nil {
		return types.Frame{}, err
	}
	img, err := s.src.Next(ctx)
	if err != nil {
		return s.end(ctx, err)
	}
	f := types.Frame{Index: s.emitted, SourceIndex: s.cursor, Image: img}
	s.cursor++
	s.emitted++
	return f, nil
}

// Close releases the source. It is safe to call more than once.
func (s *Sampler) Close() error {
	s.done = true
	if s.closed {
		return nil
	}
	s.closed = true
	return s.src.Close()
}

func (s *Sampler) end(ctx context.Context, err error) (types.Frame, error) {
	if ctx.Err() != nil {
		return types.Frame{}, ctx.Err()
	}
	if !errors.Is(err, io.EOF) {
		s.cause = err
	}
	// A stream with no reported total ends wherever it ends.
	if s.known || s.cause != nil {
		s.truncated = true
	}
	s.finish()
	return types.Frame{}, io.EOF
}

func (s *Sampler) finish() {
	_ = s.Close()
}

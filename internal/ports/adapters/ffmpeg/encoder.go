package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
)

const DefaultCodec = "libx264"

// Encoder pipes raw RGBA frames into ffmpeg's stdin.
type Encoder struct {
	ffmpeg string
	codec  string

	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdin  io.WriteCloser
	w      *bufio.Writer
	stderr *bytes.Buffer
	path   string
	width  int
	height int
}

func (a *Adapter) NewEncoder(codec string) *Encoder {
	if codec == "" {
		codec = DefaultCodec
	}
	return &Encoder{ffmpeg: a.ffmpeg, codec: codec}
}

func (e *Encoder) Begin(ctx context.Context, outPath string, width, height int, fps float64) error {
	if e.cmd != nil {
		return fmt.Errorf("ffmpeg encode: already started")
	}
	args := []string{
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-an",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", e.codec,
	}
	if e.codec == "libx264" {
		args = append(args, "-preset", "veryfast", "-crf", "18")
	}
	args = append(args, "-pix_fmt", "yuv420p", outPath)

	ectx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ectx, e.ffmpeg, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg encode stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start ffmpeg encode: %w", err)
	}

	e.cmd = cmd
	e.cancel = cancel
	e.stdin = stdin
	e.w = bufio.NewWriterSize(stdin, width*height*4)
	e.stderr = stderr
	e.path = outPath
	e.width = width
	e.height = height
	return nil
}

func (e *Encoder) EncodeFrame(img *image.RGBA) error {
	if e.cmd == nil {
		return fmt.Errorf("ffmpeg encode: not started")
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return fmt.Errorf("ffmpeg encode: frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), e.width, e.height)
	}
	rowLen := e.width * 4
	for y := 0; y < e.height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		if _, err := e.w.Write(img.Pix[off : off+rowLen]); err != nil {
			return fmt.Errorf("ffmpeg encode: %w\n%s", err, e.stderr.String())
		}
	}
	return nil
}

func (e *Encoder) End() error {
	if e.cmd == nil {
		return fmt.Errorf("ffmpeg encode: not started")
	}
	defer e.reset()
	flushErr := e.w.Flush()
	closeErr := e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w\n%s", err, e.stderr.String())
	}
	if flushErr != nil {
		return fmt.Errorf("ffmpeg encode flush: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("ffmpeg encode close: %w", closeErr)
	}
	return nil
}

// Abort kills ffmpeg and removes the partial file.
func (e *Encoder) Abort() {
	if e.cmd == nil {
		return
	}
	e.cancel()
	_ = e.stdin.Close()
	_ = e.cmd.Wait()
	_ = os.Remove(e.path)
	e.reset()
}

func (e *Encoder) reset() {
	if e.cancel != nil {
		e.cancel()
	}
	e.cmd = nil
	e.stdin = nil
	e.w = nil
}

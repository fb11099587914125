package artifact

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/forPelevin/asciify/internal/domain/render"
	"github.com/forPelevin/asciify/internal/types"
)

const (
	crlf = "\r\n"

	// TEST-NET-1 never answers, so ping sleeps for the whole -w timeout.
	// Granularity is the Windows timer tick, about 15.6ms.
	delayHost = "192.0.2.1"

	footerHint = "Press Ctrl+C to exit"
)

// Script is everything the playback script needs.
type Script struct {
	Title string
	Pages [][]string // escaped lines, one slice per frame
	FPS   float64
	Cols  int
	Rows  int
}

// DelayMillis is the per-frame pause: round(1000/fps), at least 1ms.
func DelayMillis(fps float64) int {
	if fps <= 0 {
		return 1000
	}
	return max(1, int(math.Round(1000/fps)))
}

// WriteScript emits a cmd.exe batch file that plays Pages in an endless loop.
func WriteScript(w io.Writer, s Script) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	title := render.EscapeBatch(s.Title)
	total := len(s.Pages)

	header := fmt.Sprintf("Frame %d/%d: %s", total, total, s.Title)
	cols := max(s.Cols, len([]rune(header)), len(footerHint))
	// frame header, blank, rows, blank, footer and the cursor line
	lines := s.Rows + 5

	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
		bw.WriteString(crlf)
	}

	line("@echo off")
	line("chcp 65001 >nul")
	line("cls")
	line("title ASCII Video Player - %s", title)
	line("mode con cols=%d lines=%d", cols, lines)
	line(`reg add HKCU\Console /v VirtualTerminalLevel /t REG_DWORD /d 1 /f >nul 2>&1`)
	line(":loop")

	delay := DelayMillis(s.FPS)
	for i, page := range s.Pages {
		line("cls")
		line("echo Frame %d/%d: %s", i+1, total, title)
		line("echo.")
		// echo( prints the rest verbatim, even a row starting with "/?"
		for _, row := range page {
			line("echo(%s", row)
		}
		line("echo.")
		line("echo %s", footerHint)
		line("ping -n 1 -w %d %s >nul", delay, delayHost)
	}
	line("goto loop")

	return bw.Flush()
}

// ScriptSink renders grids into escaped pages. The file is created in Begin
// so an unwritable target fails before any frame is mapped; the frame count
// is only known at the end, so pages are held in memory until Close.
type ScriptSink struct {
	path     string
	dir      string
	title    string
	fps      float64
	renderer *render.ScriptRenderer

	f     *os.File
	cols  int
	rows  int
	pages [][]string
}

func NewScriptSink(path, dir, title string, fps float64, renderer *render.ScriptRenderer) *ScriptSink {
	return &ScriptSink{path: path, dir: dir, title: title, fps: fps, renderer: renderer}
}

func (s *ScriptSink) Begin(context.Context) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("%w: create script: %w", types.ErrWriteFailure, err)
	}
	s.f = f
	return nil
}

func (s *ScriptSink) Add(_ context.Context, g types.GlyphGrid) error {
	if s.f == nil {
		return fmt.Errorf("%w: script not started", types.ErrWriteFailure)
	}
	s.cols, s.rows = g.Width, g.Height
	s.pages = append(s.pages, s.renderer.Render(g))
	return nil
}

func (s *ScriptSink) Close(context.Context) (types.Artifact, error) {
	if s.f == nil {
		return types.Artifact{}, fmt.Errorf("%w: script not started", types.ErrWriteFailure)
	}
	f := s.f
	s.f = nil
	werr := WriteScript(f, Script{
		Title: s.title,
		Pages: s.pages,
		FPS:   s.fps,
		Cols:  s.cols,
		Rows:  s.rows,
	})
	cerr := f.Close()
	if werr != nil {
		_ = os.Remove(s.path)
		return types.Artifact{}, fmt.Errorf("%w: write script: %w", types.ErrWriteFailure, werr)
	}
	if cerr != nil {
		_ = os.Remove(s.path)
		return types.Artifact{}, fmt.Errorf("%w: close script: %w", types.ErrWriteFailure, cerr)
	}
	return types.Artifact{
		Kind:   types.OutputScript,
		Path:   s.path,
		Dir:    s.dir,
		Frames: len(s.pages),
	}, nil
}

// Abort drops the pages and removes the empty file created by Begin.
func (s *ScriptSink) Abort() {
	s.pages = nil
	if s.f != nil {
		_ = s.f.Close()
		_ = os.Remove(s.path)
		s.f = nil
	}
}

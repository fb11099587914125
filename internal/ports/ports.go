package ports

import (
	"context"
	"image"

	"github.com/forPelevin/asciify/internal/types"
)

// VideoSource is a forward-only decoded stream. Next and Skip return io.EOF
// once the stream is exhausted.
type VideoSource interface {
	Info() types.SourceInfo
	Next(ctx context.Context) (image.Image, error)
	Skip(ctx context.Context) error
	Close() error
}

type VideoOpener interface {
	Open(ctx context.Context, path string) (VideoSource, error)
}

type VideoEncoder interface {
	Begin(ctx context.Context, outPath string, width, height int, fps float64) error
	EncodeFrame(img *image.RGBA) error
	End() error
	Abort()
}

// Interaction covers the host dialogs: picking the input, confirming the
// folder open and reporting a failed job.
type Interaction interface {
	PickSource(ctx context.Context) (string, error)
	ConfirmOpenFolder(ctx context.Context, a types.Artifact) (bool, error)
	ShowError(ctx context.Context, err error)
}

type FolderOpener interface {
	OpenFolder(ctx context.Context, dir string) error
}

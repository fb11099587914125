package host

import (
	"context"

	"github.com/forPelevin/asciify/internal/types"
)

// Headless never prompts. The folder is opened only when Open is set.
type Headless struct {
	Open bool
}

func (Headless) PickSource(context.Context) (string, error) {
	return "", types.ErrNoSelection
}

func (h Headless) ConfirmOpenFolder(context.Context, types.Artifact) (bool, error) {
	return h.Open, nil
}

// ShowError is a no-op; the CLI reports the returned error.
func (Headless) ShowError(context.Context, error) {}

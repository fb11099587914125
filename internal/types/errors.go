package types

import "errors"

var (
	// ErrSourceUnavailable: missing, unreadable or frameless input.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrWriteFailure: output directory or artifact file could not be written.
	ErrWriteFailure = errors.New("write failure")
	// ErrFolderOpen is best-effort; callers log it and carry on.
	ErrFolderOpen = errors.New("open folder failed")
)

// ErrNoSelection means the user dismissed the source prompt.
var ErrNoSelection = errors.New("no file selected")

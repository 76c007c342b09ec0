package scanner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotDir is wrapped by a RootError when the scan root is not a directory.
var ErrNotDir = errors.New("not a directory")

// RootError reports that the scan root itself could not be used. It is the
// only scan failure returned to callers; unreadable subtrees are skipped.
type RootError struct {
	Path string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// SkipHidden drops entries whose name starts with "."
	SkipHidden bool
	// ExcludePatterns is a list of entry names (files or directories) to skip
	ExcludePatterns []string
	// Concurrency overrides the default semaphore count (0 = auto)
	Concurrency int
	// Logger receives a warning for every skipped subtree. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() ScanOptions {
	return ScanOptions{
		SkipHidden:      false,
		ExcludePatterns: []string{},
		Concurrency:     0,
	}
}

// Scanner is the interface for directory scanning.
type Scanner interface {
	// Scan walks the tree rooted at path and returns the absolute paths of
	// every file found, excluding symbolic links, along with the final totals.
	// Progress updates are sent on the progress channel and may be dropped.
	Scan(ctx context.Context, path string, opts ScanOptions, progress chan<- Progress) ([]string, Progress, error)
}

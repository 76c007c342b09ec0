package scanner

import (
	"context"
	"io/fs"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/godupes/internal/fsys"
	"github.com/sadopc/godupes/internal/model"
)

// ParallelScanner implements Scanner with goroutine-per-directory parallelism.
type ParallelScanner struct {
	fs fsys.FS
}

var _ Scanner = (*ParallelScanner)(nil)

// NewParallelScanner creates a new parallel scanner over the given filesystem.
func NewParallelScanner(filesystem fsys.FS) *ParallelScanner {
	return &ParallelScanner{fs: filesystem}
}

// walk holds the state shared by every directory visit of one scan.
type walk struct {
	ctx     context.Context
	fs      fsys.FS
	opts    ScanOptions
	log     *zap.Logger
	exclude map[string]bool
	sem     chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	paths []string

	files, dirs, bytes, errs atomic.Int64
}

// Scan walks path. The returned Progress carries the final totals even when
// the last update on progress was dropped.
func (s *ParallelScanner) Scan(ctx context.Context, path string, opts ScanOptions, progress chan<- Progress) ([]string, Progress, error) {
	root, err := s.fs.Resolve(path)
	if err != nil {
		return nil, Progress{}, &RootError{Path: path, Err: err}
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, Progress{}, &RootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, Progress{}, &RootError{Path: root, Err: ErrNotDir}
	}

	// The root listing is the one read that must succeed.
	entries, err := s.fs.ReadDir(root)
	if err != nil {
		return nil, Progress{}, &RootError{Path: root, Err: err}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0) * 3
	}

	w := &walk{
		ctx:     ctx,
		fs:      s.fs,
		opts:    opts,
		log:     opts.Logger,
		exclude: make(map[string]bool, len(opts.ExcludePatterns)),
		sem:     make(chan struct{}, concurrency),
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	for _, p := range opts.ExcludePatterns {
		w.exclude[p] = true
	}

	startTime := time.Now()
	snapshot := func(done bool) Progress {
		return Progress{
			FilesScanned: w.files.Load(),
			DirsScanned:  w.dirs.Load(),
			BytesFound:   w.bytes.Load(),
			Errors:       w.errs.Load(),
			Done:         done,
			Duration:     time.Since(startTime),
		}
	}

	// Progress reporter goroutine
	var progressWg sync.WaitGroup
	progressDone := make(chan struct{})
	if progress != nil {
		progressWg.Add(1)
		go func() {
			defer progressWg.Done()
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					select {
					case progress <- snapshot(false):
					default:
						// Drop if channel full
					}
				case <-progressDone:
					return
				}
			}
		}()
	}

	w.dirs.Add(1)
	w.visit(root, entries)
	w.wg.Wait()

	if progress != nil {
		close(progressDone)
		progressWg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, Progress{}, err
	}

	final := snapshot(true)
	if progress != nil {
		select {
		case progress <- final:
		default:
		}
	}

	model.SortPaths(w.paths)
	w.log.Debug("scan finished",
		zap.String("root", root),
		zap.Int64("files", w.files.Load()),
		zap.Int64("dirs", w.dirs.Load()),
		zap.Int64("errors", w.errs.Load()),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	return w.paths, final, nil
}

// scanDir lists dirPath and visits its entries. A listing failure skips the
// subtree.
func (w *walk) scanDir(dirPath string) {
	select {
	case <-w.ctx.Done():
		return
	default:
	}

	entries, err := w.fs.ReadDir(dirPath)
	if err != nil {
		w.errs.Add(1)
		w.log.Warn("skipping unreadable directory", zap.String("path", dirPath), zap.Error(err))
		return
	}
	w.dirs.Add(1)
	w.visit(dirPath, entries)
}

// spawn scans a subdirectory with bounded goroutines.
// If all workers are busy, it scans synchronously in the current goroutine
// instead of spawning blocked goroutines.
func (w *walk) spawn(dirPath string) {
	select {
	case w.sem <- struct{}{}:
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			w.scanDir(dirPath)
		}()
	default:
		w.scanDir(dirPath)
	}
}

func (w *walk) visit(dirPath string, entries []fs.DirEntry) {
	var found []string

	for _, entry := range entries {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		name := entry.Name()
		if w.opts.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if w.exclude[name] {
			continue
		}

		fullPath := w.fs.Join(dirPath, name)
		mode := entry.Type()

		switch {
		case mode&fs.ModeSymlink != 0:
			// Links are neither followed nor reported.
			continue
		case entry.IsDir():
			w.spawn(fullPath)
		case fsys.IsSpecial(mode):
			continue
		default:
			if info, err := entry.Info(); err == nil {
				w.bytes.Add(info.Size())
			}
			w.files.Add(1)
			found = append(found, fullPath)
		}
	}

	if len(found) > 0 {
		w.mu.Lock()
		w.paths = append(w.paths, found...)
		w.mu.Unlock()
	}
}

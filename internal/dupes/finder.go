// Package dupes finds groups of files with identical content.
package dupes

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/godupes/internal/fsys"
	"github.com/sadopc/godupes/internal/group"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/scanner"
)

// Options configures a Finder.
type Options struct {
	Method    model.Method
	Algorithm Algorithm
	// PreHash narrows each size group by a digest of the first PreHashSize
	// bytes before hashing whole files.
	PreHash bool
	// Workers bounds concurrent hashing (0 = GOMAXPROCS).
	Workers int
	// MinSize drops files smaller than this many bytes.
	MinSize int64
	Scan    scanner.ScanOptions
	Logger  *zap.Logger
}

// DefaultOptions returns the checksum pipeline with md5.
func DefaultOptions() Options {
	return Options{
		Method:    model.MethodChecksum,
		Algorithm: DefaultAlgorithm,
		Scan:      scanner.DefaultOptions(),
	}
}

// Finder runs the duplicate detection pipeline against one filesystem.
type Finder struct {
	fs   fsys.FS
	opts Options
	log  *zap.Logger
}

// NewFinder creates a Finder. Zero-valued options take their defaults.
func NewFinder(filesystem fsys.FS, opts Options) *Finder {
	if opts.Method == "" {
		opts.Method = model.MethodChecksum
	}
	if opts.Algorithm == "" {
		opts.Algorithm = DefaultAlgorithm
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Scan.Logger == nil {
		opts.Scan.Logger = log
	}
	return &Finder{fs: filesystem, opts: opts, log: log}
}

// run is the state of one Find call.
type run struct {
	*Finder
	ctx      context.Context
	progress chan<- Progress
	start    time.Time
	files    int64
	dirs     int64
	bytes    int64
	skipped  atomic.Int64
}

// Find scans root and returns its duplicate groups. Only a failure to use
// root itself and cancellation are returned as errors; files that fail to
// stat or read are counted in Stats.Skipped and left out.
func (f *Finder) Find(ctx context.Context, root string, progress chan<- Progress) (*model.Result, error) {
	r := &run{Finder: f, ctx: ctx, progress: progress, start: time.Now()}

	paths, scanErrors, err := r.scan(root)
	if err != nil {
		return nil, err
	}
	r.files = int64(len(paths))

	resolved, err := f.fs.Resolve(root)
	if err != nil {
		resolved = root
	}
	result := &model.Result{
		Root:   resolved,
		Method: f.opts.Method,
		Groups: []model.Group{},
	}

	var candidates int64
	switch f.opts.Method {
	case model.MethodChecksum:
		result.Algorithm = string(f.opts.Algorithm)
		result.Groups, candidates, err = r.checksumPipeline(paths)
	case model.MethodCompare:
		result.Groups, candidates, err = r.comparePipeline(paths)
	default:
		return nil, fmt.Errorf("unknown detection method %q", f.opts.Method)
	}
	if err != nil {
		return nil, err
	}

	r.countLinks(result.Groups)

	result.Stats = model.Stats{
		FilesScanned: r.files,
		Candidates:   candidates,
		Skipped:      r.skipped.Load(),
		ScanErrors:   scanErrors,
		Duration:     time.Since(r.start),
	}
	r.send(Progress{Phase: PhaseDone, Processed: candidates, Total: candidates})

	f.log.Info("duplicate search finished",
		zap.String("root", resolved),
		zap.String("method", string(f.opts.Method)),
		zap.Int("groups", len(result.Groups)),
		zap.Int64("files", r.files),
		zap.Int64("skipped", result.Stats.Skipped),
		zap.Duration("elapsed", result.Stats.Duration),
	)
	return result, nil
}

// scan runs the tree scanner and relays its progress.
func (r *run) scan(root string) ([]string, int64, error) {
	scanCh := make(chan scanner.Progress, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range scanCh {
			r.send(Progress{
				Phase:   PhaseScan,
				Files:   p.FilesScanned,
				Dirs:    p.DirsScanned,
				Bytes:   p.BytesFound,
				Rate:    p.ItemsPerSecond(),
				Skipped: p.Errors,
			})
		}
	}()

	var sc scanner.Scanner = scanner.NewParallelScanner(r.fs)
	paths, final, err := sc.Scan(r.ctx, root, r.opts.Scan, scanCh)
	close(scanCh)
	wg.Wait()
	if err != nil {
		return nil, 0, err
	}
	r.dirs = final.DirsScanned
	r.bytes = final.BytesFound
	return paths, final.Errors, nil
}

func (r *run) skip(path string, err error) {
	r.skipped.Add(1)
	r.log.Debug("skipping file", zap.String("path", path), zap.Error(err))
}

func (r *run) checksumPipeline(paths []string) ([]model.Group, int64, error) {
	r.send(Progress{Phase: PhaseSize, Total: int64(len(paths))})
	sizeGroups, err := groupBySize(r.ctx, r.fs, paths, r.opts.MinSize, r.opts.Workers, r.skip)
	if err != nil {
		return nil, 0, err
	}

	var candidates int64
	for _, sg := range sizeGroups {
		candidates += int64(len(sg.paths))
	}

	if r.opts.PreHash {
		pre, err := r.digestAll(PhasePreHash, flatten(sizeGroups), PreChecksum)
		if err != nil {
			return nil, 0, err
		}
		sizeGroups = regroup(sizeGroups, pre)
	}

	sums, err := r.digestAll(PhaseHash, flatten(sizeGroups), Checksum)
	if err != nil {
		return nil, 0, err
	}

	groups := []model.Group{}
	for _, sg := range regroup(sizeGroups, sums) {
		groups = append(groups, model.Group{Size: sg.size, Paths: sg.paths})
	}
	return groups, candidates, nil
}

// regroup splits every size group by the digests in sums. Paths without a
// digest are dropped.
func regroup(sizeGroups []sizeGroup, sums map[string]string) []sizeGroup {
	var out []sizeGroup
	for _, sg := range sizeGroups {
		for _, g := range group.By(sg.paths, func(p string) (string, bool) {
			sum, ok := sums[p]
			return sum, ok
		}) {
			out = append(out, sizeGroup{size: sg.size, paths: g})
		}
	}
	return out
}

func flatten(groups []sizeGroup) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.paths...)
	}
	return out
}

type digestFunc func(filesystem fsys.FS, path string, algo Algorithm) (string, error)

// digestAll computes digest for every path on a pool of workers. Failed
// paths are skipped and absent from the returned map.
func (r *run) digestAll(phase Phase, paths []string, digest digestFunc) (map[string]string, error) {
	type result struct {
		path string
		sum  string
		err  error
	}

	total := int64(len(paths))
	r.send(Progress{Phase: phase, Total: total})

	jobs := make(chan string)
	results := make(chan result, r.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				sum, err := digest(r.fs, p, r.opts.Algorithm)
				results <- result{path: p, sum: sum, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-r.ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sums := make(map[string]string, len(paths))
	var processed int64
	for res := range results {
		processed++
		if res.err != nil {
			r.skip(res.path, res.err)
		} else {
			sums[res.path] = res.sum
		}
		r.send(Progress{Phase: phase, Processed: processed, Total: total})
	}

	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}

func (r *run) comparePipeline(paths []string) ([]model.Group, int64, error) {
	// Unreadable entries could never compare equal, so dropping them up
	// front only saves work.
	sizes := make(map[string]int64, len(paths))
	usable := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := r.ctx.Err(); err != nil {
			return nil, 0, err
		}
		info, err := r.fs.Stat(p)
		if err != nil {
			r.skip(p, err)
			continue
		}
		if info.Size() < r.opts.MinSize {
			continue
		}
		sizes[p] = info.Size()
		usable = append(usable, p)
	}

	total := int64(len(usable))
	var processed int64
	r.send(Progress{Phase: PhaseCompare, Total: total})
	found, err := findByComparison(r.ctx, r.fs, usable, func() {
		processed++
		r.send(Progress{Phase: PhaseCompare, Processed: processed, Total: total})
	}, r.skip)
	if err != nil {
		return nil, 0, err
	}

	groups := make([]model.Group, 0, len(found))
	for _, g := range found {
		groups = append(groups, model.Group{Size: sizes[g[0]], Paths: g})
	}
	return groups, total, nil
}

// countLinks sets Links on every group whose members share storage.
func (r *run) countLinks(groups []model.Group) {
	for i := range groups {
		seen := make(map[fileID]bool, len(groups[i].Paths))
		for _, p := range groups[i].Paths {
			info, err := r.fs.Lstat(p)
			if err != nil {
				continue
			}
			id, ok := identify(info)
			if !ok {
				continue
			}
			if seen[id] {
				groups[i].Links++
				continue
			}
			seen[id] = true
		}
	}
}

// send delivers a progress update without blocking.
func (r *run) send(p Progress) {
	if r.progress == nil {
		return
	}
	if p.Files == 0 {
		p.Files = r.files
	}
	if p.Dirs == 0 {
		p.Dirs = r.dirs
	}
	if p.Bytes == 0 {
		p.Bytes = r.bytes
	}
	p.Elapsed = time.Since(r.start)
	if p.Skipped == 0 {
		p.Skipped = r.skipped.Load()
	}
	select {
	case r.progress <- p:
	default:
	}
}

package dupes

import (
	"context"
	"sync"

	"github.com/sadopc/godupes/internal/fsys"
	"github.com/sadopc/godupes/internal/group"
)

// sizeGroup is a candidate group together with the size its members share.
type sizeGroup struct {
	size  int64
	paths []string
}

// GroupBySize groups paths whose byte length is equal. Paths that can no
// longer be stat'ed are left out.
func GroupBySize(filesystem fsys.FS, paths []string) [][]string {
	groups, _ := groupBySize(context.Background(), filesystem, paths, 0, 0, nil)
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = g.paths
	}
	return out
}

// groupBySize stats paths on a pool of workers, drops files smaller than
// minSize and reports every failed stat to skip, which must be safe for
// concurrent use.
func groupBySize(ctx context.Context, filesystem fsys.FS, paths []string, minSize int64, workers int, skip func(path string, err error)) ([]sizeGroup, error) {
	var mu sync.Mutex
	sizes := make(map[string]int64, len(paths))

	groups, err := group.ByParallel(ctx, paths, func(p string) (int64, bool) {
		info, err := filesystem.Stat(p)
		if err != nil {
			if skip != nil {
				skip(p, err)
			}
			return 0, false
		}
		if info.Size() < minSize {
			return 0, false
		}
		mu.Lock()
		sizes[p] = info.Size()
		mu.Unlock()
		return info.Size(), true
	}, workers)
	if err != nil {
		return nil, err
	}

	out := make([]sizeGroup, len(groups))
	for i, g := range groups {
		out[i] = sizeGroup{size: sizes[g[0]], paths: g}
	}
	return out, nil
}

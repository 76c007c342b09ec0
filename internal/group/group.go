// Package group partitions items into groups that share a computed key.
package group

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// KeyFunc computes the grouping key of an item. Returning ok == false
// excludes the item from every group.
type KeyFunc[T any, K comparable] func(item T) (key K, ok bool)

// By groups items sharing an equal key. Groups are returned in the order
// their key was first seen, members in input order, and only groups with at
// least two members are kept.
func By[T any, K comparable](items []T, key KeyFunc[T, K]) [][]T {
	keys := make([]K, len(items))
	ok := make([]bool, len(items))
	for i, item := range items {
		keys[i], ok[i] = key(item)
	}
	return collect(items, keys, ok)
}

// ByParallel is By with keys computed on a pool of workers. The result is
// identical to By's for the same inputs. Workers <= 0 means GOMAXPROCS.
func ByParallel[T any, K comparable](ctx context.Context, items []T, key KeyFunc[T, K], workers int) ([][]T, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	keys := make([]K, len(items))
	ok := make([]bool, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Each index is written by exactly one goroutine.
			keys[i], ok[i] = key(items[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collect(items, keys, ok), nil
}

func collect[T any, K comparable](items []T, keys []K, ok []bool) [][]T {
	index := make(map[K]int)
	var groups [][]T
	for i, item := range items {
		if !ok[i] {
			continue
		}
		g, seen := index[keys[i]]
		if !seen {
			g = len(groups)
			index[keys[i]] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], item)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	return out
}

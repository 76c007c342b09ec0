package model

import (
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// SortField defines what to sort groups by.
type SortField int

const (
	SortByWasted SortField = iota
	SortBySize
	SortByCount
	SortByPath
)

// SortOrder defines ascending or descending.
type SortOrder int

const (
	SortDesc SortOrder = iota
	SortAsc
)

// SortConfig holds sort preferences.
type SortConfig struct {
	Field SortField
	Order SortOrder
}

// DefaultSort returns the default sort config (wasted bytes descending).
func DefaultSort() SortConfig {
	return SortConfig{
		Field: SortByWasted,
		Order: SortDesc,
	}
}

// ComparePaths orders paths naturally ("f2" before "f10"), falling back to
// byte order so that the ordering is total.
func ComparePaths(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// SortPaths sorts paths in place with ComparePaths.
func SortPaths(paths []string) {
	slices.SortFunc(paths, ComparePaths)
}

// SortGroups sorts groups in place according to config. Ties are broken by
// the first member path so the result is deterministic.
func SortGroups(groups []Group, cfg SortConfig) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]

		// For descending order, swap a and b so the same less-than
		// comparisons produce the reverse result. This preserves
		// strict weak ordering (equal items return false, not true).
		if cfg.Order == SortDesc {
			a, b = b, a
		}

		switch cfg.Field {
		case SortByWasted:
			if a.Wasted() != b.Wasted() {
				return a.Wasted() < b.Wasted()
			}
		case SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case SortByCount:
			if a.Count() != b.Count() {
				return a.Count() < b.Count()
			}
		case SortByPath:
			return ComparePaths(firstPath(a), firstPath(b)) < 0
		}

		// Path tie-break always ascending, regardless of order.
		if cfg.Order == SortDesc {
			a, b = b, a
		}
		return ComparePaths(firstPath(a), firstPath(b)) < 0
	})
}

func firstPath(g Group) string {
	if len(g.Paths) == 0 {
		return ""
	}
	return g.Paths[0]
}

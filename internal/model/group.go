package model

import "time"

const maxInt64 = int64(^uint64(0) >> 1)

// Method selects how candidate files are verified as identical.
type Method string

const (
	// MethodChecksum groups size-matched files by a content digest.
	MethodChecksum Method = "checksum"
	// MethodCompare compares files pairwise, chunk by chunk.
	MethodCompare Method = "compare"
)

// Group is a set of two or more files with byte-identical content.
type Group struct {
	// Size is the byte length of each member.
	Size int64 `json:"size" yaml:"size"`
	// Paths holds the absolute member paths.
	Paths []string `json:"paths" yaml:"paths"`
	// Links counts members that share an inode with an earlier member.
	Links int `json:"hardlinks,omitempty" yaml:"hardlinks,omitempty"`
}

// Count returns the number of members.
func (g Group) Count() int { return len(g.Paths) }

// Wasted returns the bytes that would be reclaimed by keeping one copy.
// Members that are hard links to an earlier member occupy no extra space.
func (g Group) Wasted() int64 {
	extra := int64(len(g.Paths) - 1 - g.Links)
	if extra <= 0 || g.Size <= 0 {
		return 0
	}
	if g.Size > maxInt64/extra {
		return maxInt64
	}
	return g.Size * extra
}

// Stats summarizes one run of the pipeline.
type Stats struct {
	FilesScanned int64 `json:"files_scanned" yaml:"files_scanned"`
	// Candidates counts files that shared a size with another file.
	Candidates int64 `json:"candidates" yaml:"candidates"`
	// Skipped counts files dropped by a failed stat or read.
	Skipped    int64         `json:"skipped" yaml:"skipped"`
	ScanErrors int64         `json:"scan_errors" yaml:"scan_errors"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration"`
}

// Result is the outcome of a duplicate search.
type Result struct {
	Root      string  `json:"root" yaml:"root"`
	Method    Method  `json:"method" yaml:"method"`
	Algorithm string  `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Groups    []Group `json:"groups" yaml:"groups"`
	Stats     Stats   `json:"stats" yaml:"stats"`
}

// PathGroups returns the bare duplicate groups as nested path lists.
func (r *Result) PathGroups() [][]string {
	out := make([][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		out = append(out, g.Paths)
	}
	return out
}

// DuplicateCount returns how many files could be removed, keeping one per group.
func (r *Result) DuplicateCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Paths) - 1
	}
	return n
}

// TotalWasted sums Wasted over all groups, saturating at MaxInt64.
func (r *Result) TotalWasted() int64 {
	var total int64
	for _, g := range r.Groups {
		w := g.Wasted()
		if total > maxInt64-w {
			return maxInt64
		}
		total += w
	}
	return total
}

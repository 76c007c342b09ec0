package dupes

import "time"

// Phase is a stage of the detection pipeline.
type Phase int

const (
	PhaseScan Phase = iota
	PhaseSize
	PhasePreHash
	PhaseHash
	PhaseCompare
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseScan:
		return "scanning"
	case PhaseSize:
		return "grouping by size"
	case PhasePreHash:
		return "pre-hashing"
	case PhaseHash:
		return "hashing"
	case PhaseCompare:
		return "comparing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Progress reports pipeline progress.
type Progress struct {
	Phase Phase
	// Files is the number of files found by the scan so far.
	Files int64
	// Dirs and Bytes are the directories listed and the apparent size of
	// the files found.
	Dirs  int64
	Bytes int64
	// Rate is the scan speed in items per second. Zero outside PhaseScan.
	Rate float64
	// Processed and Total count the work items of the current phase.
	Processed int64
	Total     int64
	// Skipped counts unreadable files and subtrees.
	Skipped int64
	Elapsed time.Duration
}

// Fraction returns Processed/Total in [0, 1], or 0 when Total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Processed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

package scanner

import "time"

// Progress reports scanning progress.
type Progress struct {
	// FilesScanned is the total files reported so far.
	FilesScanned int64
	// DirsScanned is the total directories listed so far.
	DirsScanned int64
	// BytesFound is the apparent size of the files reported so far.
	BytesFound int64
	// Errors is the count of subtrees or entries that could not be read.
	Errors int64
	// Done indicates scanning is complete.
	Done bool
	// Duration is elapsed time.
	Duration time.Duration
}

// ItemsPerSecond returns the scan rate.
func (p Progress) ItemsPerSecond() float64 {
	if p.Duration.Seconds() == 0 {
		return 0
	}
	return float64(p.FilesScanned+p.DirsScanned) / p.Duration.Seconds()
}

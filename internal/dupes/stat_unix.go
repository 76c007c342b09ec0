//go:build !windows

package dupes

import (
	"io/fs"
	"syscall"
)

// fileID identifies the storage behind a path. Two paths with equal IDs are
// hard links to the same data.
type fileID struct {
	dev uint64
	ino uint64
}

// identify returns the device and inode of info, or false when the platform
// data is unavailable (for example on a remote filesystem).
func identify(info fs.FileInfo) (fileID, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat.Ino == 0 {
		return fileID{}, false
	}
	return fileID{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

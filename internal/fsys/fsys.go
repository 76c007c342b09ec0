// Package fsys defines the read-only filesystem boundary used by the scanner
// and the duplicate detection pipeline.
package fsys

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS is the read-only view of a filesystem the pipeline works against.
// Implementations must report symbolic links in ReadDir entries without
// following them.
type FS interface {
	// Resolve turns a user-supplied path into an absolute, canonical one.
	Resolve(path string) (string, error)
	// ReadDir lists a directory. Entry types describe the entry itself,
	// not the target of a link.
	ReadDir(path string) ([]fs.DirEntry, error)
	// Stat follows symbolic links.
	Stat(path string) (fs.FileInfo, error)
	// Lstat does not follow symbolic links.
	Lstat(path string) (fs.FileInfo, error)
	// Open opens a file for sequential reading.
	Open(path string) (io.ReadCloser, error)
	// Join joins path elements using the filesystem's separator.
	Join(elem ...string) string
}

// Local is the host filesystem.
type Local struct{}

// NewLocal returns the host filesystem.
func NewLocal() Local { return Local{} }

// Resolve expands a leading "~", makes the path absolute and resolves
// symbolic links in it.
func (Local) Resolve(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func (Local) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }
func (Local) Stat(path string) (fs.FileInfo, error)      { return os.Stat(path) }
func (Local) Lstat(path string) (fs.FileInfo, error)     { return os.Lstat(path) }
func (Local) Join(elem ...string) string                 { return filepath.Join(elem...) }

func (Local) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// ExpandHome replaces a leading "~" or "~/" with the current user's home
// directory. Other forms ("~user") are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// IsSpecial reports whether mode describes a device, pipe, socket or other
// irregular file that has no comparable byte content.
func IsSpecial(mode fs.FileMode) bool {
	return mode&(fs.ModeDevice|fs.ModeCharDevice|fs.ModeSocket|fs.ModeNamedPipe|fs.ModeIrregular) != 0
}

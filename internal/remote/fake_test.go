package remote

import (
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"sort"
	"strings"
	"time"
)

// fakeNode is one entry of an in-memory SFTP tree. Directories list their
// children implicitly by path prefix.
type fakeNode struct {
	mode      os.FileMode
	data      string
	target    string
	errOnRead bool
}

type fakeSFTP struct {
	home  string
	nodes map[string]fakeNode
}

func newFakeSFTP(home string, nodes map[string]fakeNode) *fakeSFTP {
	cp := make(map[string]fakeNode, len(nodes))
	for k, v := range nodes {
		cp[cleanRemotePath(k)] = v
	}
	return &fakeSFTP{home: home, nodes: cp}
}

func (f *fakeSFTP) abs(p string) string {
	p = cleanRemotePath(p)
	if !pathpkg.IsAbs(p) {
		p = pathpkg.Join(f.home, p)
	}
	return p
}

func (f *fakeSFTP) info(p string, node fakeNode) fakeInfo {
	return fakeInfo{name: pathpkg.Base(p), size: int64(len(node.data)), mode: node.mode, mtime: time.Unix(1700000000, 0)}
}

func (f *fakeSFTP) ReadDir(p string) ([]os.FileInfo, error) {
	dir := f.abs(p)
	node, ok := f.nodes[dir]
	if !ok {
		return nil, os.ErrNotExist
	}
	if !node.mode.IsDir() {
		return nil, fmt.Errorf("not a directory")
	}
	if node.errOnRead {
		return nil, os.ErrPermission
	}

	var names []string
	for k := range f.nodes {
		if k != dir && pathpkg.Dir(k) == dir {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	out := make([]os.FileInfo, 0, len(names))
	for _, k := range names {
		out = append(out, f.info(k, f.nodes[k]))
	}
	return out, nil
}

func (f *fakeSFTP) Lstat(p string) (os.FileInfo, error) {
	abs := f.abs(p)
	node, ok := f.nodes[abs]
	if !ok {
		return nil, os.ErrNotExist
	}
	return f.info(abs, node), nil
}

func (f *fakeSFTP) Stat(p string) (os.FileInfo, error) {
	resolved, err := f.RealPath(p)
	if err != nil {
		return nil, err
	}
	return f.info(resolved, f.nodes[resolved]), nil
}

func (f *fakeSFTP) RealPath(p string) (string, error) {
	return f.resolve(f.abs(p), map[string]bool{})
}

func (f *fakeSFTP) resolve(p string, seen map[string]bool) (string, error) {
	node, ok := f.nodes[p]
	if !ok {
		return "", os.ErrNotExist
	}
	if node.mode&os.ModeSymlink == 0 {
		return p, nil
	}
	if seen[p] {
		return "", fmt.Errorf("symlink cycle")
	}
	seen[p] = true

	target := node.target
	if !pathpkg.IsAbs(target) {
		target = pathpkg.Join(pathpkg.Dir(p), target)
	}
	return f.resolve(cleanRemotePath(target), seen)
}

func (f *fakeSFTP) Open(p string) (io.ReadCloser, error) {
	resolved, err := f.RealPath(p)
	if err != nil {
		return nil, err
	}
	node := f.nodes[resolved]
	if node.mode.IsDir() {
		return nil, fmt.Errorf("%s is a directory", resolved)
	}
	if node.errOnRead {
		return nil, os.ErrPermission
	}
	return io.NopCloser(strings.NewReader(node.data)), nil
}

type fakeInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	mtime time.Time
}

func (fi fakeInfo) Name() string       { return fi.name }
func (fi fakeInfo) Size() int64        { return fi.size }
func (fi fakeInfo) Mode() os.FileMode  { return fi.mode }
func (fi fakeInfo) ModTime() time.Time { return fi.mtime }
func (fi fakeInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi fakeInfo) Sys() any           { return nil }

type noopCloser struct{ closed bool }

func (c *noopCloser) Close() error {
	c.closed = true
	return nil
}

// scriptedPrompter answers Confirm with its fields and counts calls.
type scriptedPrompter struct {
	confirm bool
	secret  string
	err     error
	asked   int
}

func (p *scriptedPrompter) Confirm(string) (bool, error) {
	p.asked++
	return p.confirm, p.err
}

func (p *scriptedPrompter) Secret(string) (string, error) {
	p.asked++
	return p.secret, p.err
}

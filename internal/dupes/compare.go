package dupes

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/sadopc/godupes/internal/fsys"
)

// ChunkSize is the block size of the pairwise comparison.
const ChunkSize = 8 * 1024

// FilesEqual reports whether a and b are regular files with identical
// content. Any stat, open or read failure makes the pair unequal.
func FilesEqual(filesystem fsys.FS, a, b string) bool {
	equal, err := compareFiles(filesystem, a, b)
	return err == nil && equal
}

// fileError names the side of a comparison that could not be read.
type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string { return e.path + ": " + e.err.Error() }

func (e *fileError) Unwrap() error { return e.err }

// compareFiles is FilesEqual with the failure kept. A non-nil error is always
// a *fileError for a or b.
func compareFiles(filesystem fsys.FS, a, b string) (bool, error) {
	infoA, err := filesystem.Stat(a)
	if err != nil {
		return false, &fileError{a, err}
	}
	infoB, err := filesystem.Stat(b)
	if err != nil {
		return false, &fileError{b, err}
	}
	if !infoA.Mode().IsRegular() || !infoB.Mode().IsRegular() {
		return false, nil
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := filesystem.Open(a)
	if err != nil {
		return false, &fileError{a, err}
	}
	defer fa.Close()
	fb, err := filesystem.Open(b)
	if err != nil {
		return false, &fileError{b, err}
	}
	defer fb.Close()

	bufA := make([]byte, ChunkSize)
	bufB := make([]byte, ChunkSize)
	for {
		na, err := readChunk(fa, bufA)
		if err != nil {
			return false, &fileError{a, err}
		}
		nb, err := readChunk(fb, bufB)
		if err != nil {
			return false, &fileError{b, err}
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if na == 0 {
			return true, nil
		}
	}
}

// readChunk fills buf as far as the file allows. A short final chunk is not
// an error.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

// FindByComparison groups paths by comparing them pairwise with FilesEqual.
// Groups come out in the order their first member appears in paths.
func FindByComparison(ctx context.Context, filesystem fsys.FS, paths []string) ([][]string, error) {
	return findByComparison(ctx, filesystem, paths, nil, nil)
}

// findByComparison calls step once for every path it settles, whether the
// path joined a group, stayed alone or failed. A path that fails to stat or
// read is passed to skip once and takes no further part.
func findByComparison(ctx context.Context, filesystem fsys.FS, paths []string, step func(), skip func(path string, err error)) ([][]string, error) {
	consumed := make([]bool, len(paths))
	settle := func(i int) {
		consumed[i] = true
		if step != nil {
			step()
		}
	}
	drop := func(i int, err error) {
		settle(i)
		if skip != nil {
			skip(paths[i], err)
		}
	}

	var groups [][]string
	for i, current := range paths {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		members := []int{i}
		var failed error

		for j := i + 1; j < len(paths); j++ {
			if consumed[j] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			equal, err := compareFiles(filesystem, current, paths[j])
			var fe *fileError
			if errors.As(err, &fe) {
				if fe.path == current {
					failed = fe.err
					break
				}
				drop(j, fe.err)
				continue
			}
			if equal {
				consumed[j] = true
				members = append(members, j)
			}
		}

		if failed != nil {
			drop(i, failed)
			// Earlier matches go back into the working list.
			for _, m := range members[1:] {
				consumed[m] = false
			}
			continue
		}

		group := make([]string, 0, len(members))
		for _, m := range members {
			settle(m)
			group = append(group, paths[m])
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

package dupes

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/sadopc/godupes/internal/fsys"
	"github.com/sadopc/godupes/internal/group"
)

// BlockSize is the read buffer used while hashing whole files.
const BlockSize = 32 * 1024

// PreHashSize is how much of a file the pre-hash stage reads.
const PreHashSize = 4 * 1024

// Algorithm names a content digest.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
	XXHash Algorithm = "xxhash"
)

// DefaultAlgorithm is the digest used when none is configured.
const DefaultAlgorithm = MD5

// Algorithms lists the supported digests.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, SHA256, XXHash}
}

// ParseAlgorithm validates a digest name, case-insensitively.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := hashPools[a]; !ok {
		return "", fmt.Errorf("unknown hash algorithm %q (want md5, sha256 or xxhash)", name)
	}
	return a, nil
}

var hashPools = map[Algorithm]*sync.Pool{
	MD5:    {New: func() any { return md5.New() }},
	SHA256: {New: func() any { return sha256.New() }},
	XXHash: {New: func() any { return xxhash.New() }},
}

var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, BlockSize)
		return &b
	},
}

func getHash(algo Algorithm) (hash.Hash, *sync.Pool, error) {
	if algo == "" {
		algo = DefaultAlgorithm
	}
	pool, ok := hashPools[algo]
	if !ok {
		return nil, nil, fmt.Errorf("unknown hash algorithm %q", algo)
	}
	h := pool.Get().(hash.Hash)
	h.Reset()
	return h, pool, nil
}

// Checksum returns the hex digest of the whole content of path.
func Checksum(filesystem fsys.FS, path string, algo Algorithm) (string, error) {
	h, pool, err := getHash(algo)
	if err != nil {
		return "", err
	}
	defer pool.Put(h)

	f, err := filesystem.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	bufPtr := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufPtr)

	// Only the Writer side of h is exposed so CopyBuffer uses buf.
	if _, err := io.CopyBuffer(struct{ io.Writer }{h}, f, *bufPtr); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PreChecksum returns the hex digest of at most the first PreHashSize bytes
// of path. Equal files always have equal pre-checksums.
func PreChecksum(filesystem fsys.FS, path string, algo Algorithm) (string, error) {
	h, pool, err := getHash(algo)
	if err != nil {
		return "", err
	}
	defer pool.Put(h)

	f, err := filesystem.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, PreHashSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	_, _ = h.Write(buf[:n])
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GroupByChecksum groups paths whose content digests are equal. Paths that
// cannot be opened or read are left out.
func GroupByChecksum(filesystem fsys.FS, paths []string, algo Algorithm) [][]string {
	return group.By(paths, func(p string) (string, bool) {
		sum, err := Checksum(filesystem, p, algo)
		return sum, err == nil
	})
}

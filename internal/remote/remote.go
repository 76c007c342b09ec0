// Package remote exposes a directory tree on an SSH host as an fsys.FS,
// so the duplicate search can run against it unchanged.
package remote

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	pathpkg "path"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/sadopc/godupes/internal/fsys"
)

const (
	defaultPort    = 22
	defaultTimeout = 15 * time.Second
	homePath       = "."
)

// Config configures an SSH connection.
type Config struct {
	// Target is "user@host".
	Target string
	Port   int
	// BatchMode disables every interactive prompt.
	BatchMode bool
	Timeout   time.Duration
}

// sftpClient is the subset of *sftp.Client that FS needs.
type sftpClient interface {
	ReadDir(string) ([]os.FileInfo, error)
	Stat(string) (os.FileInfo, error)
	Lstat(string) (os.FileInfo, error)
	RealPath(string) (string, error)
	Open(string) (io.ReadCloser, error)
}

// FS is a remote filesystem reached over SFTP. Paths use POSIX semantics.
type FS struct {
	client sftpClient
	closer io.Closer
}

var _ fsys.FS = (*FS)(nil)

// dial is replaced in tests.
var dial = dialSFTP

var dialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

var sshNewClientConn = func(conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	return ssh.NewClientConn(conn, addr, config)
}

// Dial connects to cfg.Target and starts an SFTP session. The caller must
// Close the returned FS.
func Dial(ctx context.Context, cfg Config) (*FS, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("ssh port must be between 1 and 65535")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client, closer, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &FS{client: client, closer: closer}, nil
}

// Close ends the SFTP session and the SSH connection.
func (f *FS) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Resolve returns the canonical absolute form of p as reported by the
// server. A leading "~" refers to the login directory.
func (f *FS) Resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	switch {
	case p == "" || p == "~":
		p = homePath
	case strings.HasPrefix(p, "~/"):
		p = pathpkg.Join(homePath, p[2:])
	}
	resolved, err := f.client.RealPath(cleanRemotePath(p))
	if err != nil {
		return "", err
	}
	return cleanRemotePath(resolved), nil
}

// ReadDir lists p. SFTP directory listings carry lstat attributes, so
// symbolic links keep their own type.
func (f *FS) ReadDir(p string) ([]fs.DirEntry, error) {
	infos, err := f.client.ReadDir(p)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (f *FS) Stat(p string) (fs.FileInfo, error)   { return f.client.Stat(p) }
func (f *FS) Lstat(p string) (fs.FileInfo, error)  { return f.client.Lstat(p) }
func (f *FS) Open(p string) (io.ReadCloser, error) { return f.client.Open(p) }

func (f *FS) Join(elem ...string) string {
	return cleanRemotePath(pathpkg.Join(elem...))
}

func cleanRemotePath(p string) string {
	if p == "" {
		return homePath
	}
	return pathpkg.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// sftpAdapter narrows Open to an io.ReadCloser.
type sftpAdapter struct {
	*sftp.Client
}

func (a sftpAdapter) Open(p string) (io.ReadCloser, error) {
	f, err := a.Client.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func dialSFTP(ctx context.Context, cfg Config) (sftpClient, io.Closer, error) {
	user, host, err := parseSSHTarget(cfg.Target)
	if err != nil {
		return nil, nil, err
	}

	hosts, err := openKnownHosts(host, cfg.Port, cfg.BatchMode, terminal())
	if err != nil {
		return nil, nil, err
	}

	auth, err := authMethods(user, host, cfg.BatchMode, terminal())
	if err != nil {
		return nil, nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	sshConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hosts.callback,
		Timeout:         cfg.Timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	sshClient, err := connectSSH(dialCtx, addr, sshConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, nil, fmt.Errorf("cannot start SFTP subsystem: %w", err)
	}

	return sftpAdapter{client}, &session{ssh: sshClient, sftp: client}, nil
}

func connectSSH(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := dialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// Ensure cancellation interrupts handshake/authentication.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c, chans, reqs, err := sshNewClientConn(conn, addr, config)
	close(done)
	if err != nil {
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// session closes the SFTP client before its SSH transport.
type session struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (s *session) Close() error {
	var retErr error
	if s.sftp != nil {
		retErr = s.sftp.Close()
	}
	if s.ssh != nil {
		if err := s.ssh.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}
	return retErr
}

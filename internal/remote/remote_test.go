package remote

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/sadopc/godupes/internal/dupes"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/scanner"
)

func sampleTree() *fakeSFTP {
	return newFakeSFTP("/home/alice", map[string]fakeNode{
		"/home":                     {mode: os.ModeDir | 0o755},
		"/home/alice":               {mode: os.ModeDir | 0o755},
		"/home/alice/a.txt":         {mode: 0o644, data: "hello"},
		"/home/alice/b.txt":         {mode: 0o644, data: "hello"},
		"/home/alice/c.txt":         {mode: 0o644, data: "world"},
		"/home/alice/link.txt":      {mode: os.ModeSymlink | 0o777, target: "a.txt"},
		"/home/alice/fifo":          {mode: os.ModeNamedPipe | 0o644},
		"/home/alice/sub":           {mode: os.ModeDir | 0o755},
		"/home/alice/sub/d.txt":     {mode: 0o644, data: "hello"},
		"/home/alice/sub/empty1":    {mode: 0o644},
		"/home/alice/sub/empty2":    {mode: 0o644},
		"/home/alice/locked":        {mode: os.ModeDir | 0o700, errOnRead: true},
		"/home/alice/private.txt":   {mode: 0o600, data: "world", errOnRead: true},
		"/home/alice/.hidden/e.txt": {mode: 0o644, data: "hello"},
		"/home/alice/.hidden":       {mode: os.ModeDir | 0o755},
	})
}

func withFakeDial(t *testing.T, client sftpClient, closer io.Closer) {
	t.Helper()
	orig := dial
	t.Cleanup(func() { dial = orig })
	dial = func(context.Context, Config) (sftpClient, io.Closer, error) {
		return client, closer, nil
	}
}

func TestDial_ClosesSession(t *testing.T) {
	closer := &noopCloser{}
	withFakeDial(t, sampleTree(), closer)

	fs, err := Dial(context.Background(), Config{Target: "alice@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Close(); err != nil {
		t.Fatal(err)
	}
	if !closer.closed {
		t.Fatal("expected session to be closed")
	}
}

func TestDial_RejectsBadPort(t *testing.T) {
	withFakeDial(t, sampleTree(), &noopCloser{})
	if _, err := Dial(context.Background(), Config{Target: "a@b", Port: 70000}); err == nil {
		t.Fatal("expected port error")
	}
}

func TestFS_Resolve(t *testing.T) {
	fs := &FS{client: sampleTree()}
	tests := []struct {
		in, want string
	}{
		{"", "/home/alice"},
		{"~", "/home/alice"},
		{"~/sub", "/home/alice/sub"},
		{".", "/home/alice"},
		{"sub/../sub", "/home/alice/sub"},
		{"/home/alice/link.txt", "/home/alice/a.txt"},
	}
	for _, tt := range tests {
		got, err := fs.Resolve(tt.in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := fs.Resolve("/nowhere"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestFS_ReadDirKeepsSymlinkType(t *testing.T) {
	fs := &FS{client: sampleTree()}
	entries, err := fs.ReadDir("/home/alice")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() == "link.txt" {
			if e.Type()&os.ModeSymlink == 0 {
				t.Fatalf("link.txt reported as %v", e.Type())
			}
			return
		}
	}
	t.Fatal("link.txt missing from listing")
}

func TestFS_JoinUsesPOSIXSeparators(t *testing.T) {
	fs := &FS{}
	if got := fs.Join("/srv", "data", "x.bin"); got != "/srv/data/x.bin" {
		t.Fatalf("Join = %q", got)
	}
}

func TestFinderOverSFTP(t *testing.T) {
	fs := &FS{client: sampleTree()}

	for _, m := range []model.Method{model.MethodChecksum, model.MethodCompare} {
		t.Run(string(m), func(t *testing.T) {
			res, err := dupes.NewFinder(fs, dupes.Options{Method: m}).Find(context.Background(), "~", nil)
			if err != nil {
				t.Fatal(err)
			}
			if res.Root != "/home/alice" {
				t.Fatalf("root = %q", res.Root)
			}

			want := [][]string{
				{"/home/alice/.hidden/e.txt", "/home/alice/a.txt", "/home/alice/b.txt", "/home/alice/sub/d.txt"},
				{"/home/alice/sub/empty1", "/home/alice/sub/empty2"},
			}
			got := res.PathGroups()
			if len(got) != len(want) {
				t.Fatalf("groups = %v, want %v", got, want)
			}
			for i := range want {
				if len(got[i]) != len(want[i]) {
					t.Fatalf("group %d = %v, want %v", i, got[i], want[i])
				}
				for j := range want[i] {
					if got[i][j] != want[i][j] {
						t.Fatalf("group %d = %v, want %v", i, got[i], want[i])
					}
				}
			}
			if res.Stats.ScanErrors != 1 {
				t.Fatalf("scan errors = %d, want 1 (locked dir)", res.Stats.ScanErrors)
			}
		})
	}
}

func TestFinderOverSFTP_MissingRoot(t *testing.T) {
	fs := &FS{client: sampleTree()}
	_, err := dupes.NewFinder(fs, dupes.Options{}).Find(context.Background(), "/srv/none", nil)
	var rootErr *scanner.RootError
	if !errors.As(err, &rootErr) {
		t.Fatalf("expected RootError, got %v", err)
	}
}

func TestConnectSSH_RespectsContextCancellation(t *testing.T) {
	origDial := dialContext
	origNewClientConn := sshNewClientConn
	t.Cleanup(func() {
		dialContext = origDial
		sshNewClientConn = origNewClientConn
	})

	dialCalled := false
	handshakeCalled := false

	dialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
		dialCalled = true
		<-ctx.Done()
		return nil, ctx.Err()
	}
	sshNewClientConn = func(net.Conn, string, *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
		handshakeCalled = true
		return nil, nil, nil, errors.New("unexpected handshake call")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := connectSSH(ctx, "example.com:22", &ssh.ClientConfig{
		User:            "user",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !dialCalled {
		t.Fatal("expected dial to be called")
	}
	if handshakeCalled {
		t.Fatal("did not expect SSH handshake to start after canceled dial")
	}
}

func TestCleanRemotePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "."},
		{in: ".", want: "."},
		{in: "/tmp/../var", want: "/var"},
		{in: `C:\temp\x`, want: "C:/temp/x"},
	}

	for _, tc := range tests {
		if got := cleanRemotePath(tc.in); got != tc.want {
			t.Fatalf("cleanRemotePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

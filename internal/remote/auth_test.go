package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestParseSSHTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		user    string
		host    string
		wantErr bool
	}{
		{name: "valid", target: "alice@example.com", user: "alice", host: "example.com"},
		{name: "empty", target: "", wantErr: true},
		{name: "no at", target: "example.com", wantErr: true},
		{name: "missing user", target: "@example.com", wantErr: true},
		{name: "missing host", target: "alice@", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, host, err := parseSSHTarget(tc.target)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != tc.user || host != tc.host {
				t.Fatalf("unexpected result: got %q@%q want %q@%q", user, host, tc.user, tc.host)
			}
		})
	}
}

func TestAuthMethods_BatchWithoutKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))
	t.Setenv("SSH_AUTH_SOCK", "")

	if _, err := authMethods("alice", "example.com", true, &scriptedPrompter{}); err == nil {
		t.Fatal("expected error with no agent, keys or prompts")
	}
	methods, err := authMethods("alice", "example.com", false, &scriptedPrompter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(methods) != 2 {
		t.Fatalf("expected password and keyboard-interactive, got %d methods", len(methods))
	}
}

func TestLoadKeySigners(t *testing.T) {
	dir := t.TempDir()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "id_ed25519"), pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "id_rsa"), []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := len(loadKeySigners(dir)); got != 1 {
		t.Fatalf("expected 1 signer, got %d", got)
	}
}

func TestPassword_AsksOnce(t *testing.T) {
	p := &scriptedPrompter{secret: "hunter2"}
	pw := &password{prompt: p, label: "pw: "}

	for i := 0; i < 3; i++ {
		got, err := pw.get()
		if err != nil || got != "hunter2" {
			t.Fatalf("get() = %q, %v", got, err)
		}
	}
	if p.asked != 1 {
		t.Fatalf("expected one prompt, got %d", p.asked)
	}
}

func TestPassword_KeyboardInteractive(t *testing.T) {
	pw := &password{prompt: &scriptedPrompter{secret: "s3cret"}}
	answers, err := pw.answer("", "", []string{"Username: ", "Password: "}, []bool{true, false})
	if err != nil {
		t.Fatal(err)
	}
	if answers[0] != "" || answers[1] != "s3cret" {
		t.Fatalf("unexpected answers %q", answers)
	}

	failing := &password{prompt: &scriptedPrompter{err: errors.New("no tty")}}
	if _, err := failing.answer("", "", []string{"Password: "}, []bool{false}); err == nil {
		t.Fatal("expected prompt error")
	}
}

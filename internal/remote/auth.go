package remote

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

var defaultKeyFiles = []string{
	"id_ed25519",
	"id_ecdsa",
	"id_rsa",
}

func parseSSHTarget(target string) (user, host string, err error) {
	if strings.TrimSpace(target) == "" {
		return "", "", errors.New("remote target is required")
	}
	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return "", "", fmt.Errorf("invalid remote target %q: expected user@host", target)
	}
	return user, host, nil
}

// authMethods returns agent, key file and (unless batch) password methods,
// in the order the server should try them.
func authMethods(user, host string, batch bool, prompt prompter) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if m := agentAuth(os.Getenv("SSH_AUTH_SOCK")); m != nil {
		methods = append(methods, m)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if signers := loadKeySigners(filepath.Join(home, ".ssh")); len(signers) > 0 {
			methods = append(methods, ssh.PublicKeys(signers...))
		}
	}
	if !batch {
		pw := &password{prompt: prompt, label: fmt.Sprintf("%s@%s's password: ", user, host)}
		methods = append(methods, ssh.PasswordCallback(pw.get), ssh.KeyboardInteractive(pw.answer))
	}

	if len(methods) == 0 {
		return nil, errors.New("no SSH auth methods available (configure ssh-agent or private keys, or disable --ssh-batch)")
	}
	return methods, nil
}

func agentAuth(sock string) ssh.AuthMethod {
	sock = strings.TrimSpace(sock)
	if sock == "" {
		return nil
	}
	return ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
		conn, err := net.Dial("unix", sock)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return agent.NewClient(conn).Signers()
	})
}

// loadKeySigners parses the default private keys in dir. Missing,
// unparseable and passphrase-protected keys are skipped.
func loadKeySigners(dir string) []ssh.Signer {
	var signers []ssh.Signer
	for _, name := range defaultKeyFiles {
		pem, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}

// password asks once and reuses the answer for later auth rounds.
type password struct {
	prompt prompter
	label  string

	once  sync.Once
	value string
	err   error
}

func (p *password) get() (string, error) {
	p.once.Do(func() {
		p.value, p.err = p.prompt.Secret(p.label)
	})
	return p.value, p.err
}

// answer replies to keyboard-interactive challenges: echoed questions get an
// empty answer, hidden ones the password.
func (p *password) answer(_, _ string, questions []string, echos []bool) ([]string, error) {
	answers := make([]string, len(questions))
	for i := range questions {
		if i < len(echos) && echos[i] {
			continue
		}
		pass, err := p.get()
		if err != nil {
			return nil, err
		}
		answers[i] = pass
	}
	return answers, nil
}

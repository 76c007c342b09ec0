package remote

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// knownHosts verifies server keys against ~/.ssh/known_hosts, trusting
// unknown hosts on first use when the user agrees.
type knownHosts struct {
	path   string
	host   string
	port   int
	batch  bool
	prompt prompter
	verify ssh.HostKeyCallback
}

func openKnownHosts(host string, port int, batch bool, prompt prompter) (*knownHosts, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory for known_hosts: %w", err)
	}
	path, err := ensureKnownHostsFile(filepath.Join(home, ".ssh"))
	if err != nil {
		return nil, err
	}
	return loadKnownHosts(path, host, port, batch, prompt)
}

func loadKnownHosts(path, host string, port int, batch bool, prompt prompter) (*knownHosts, error) {
	verify, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load known_hosts: %w", err)
	}
	return &knownHosts{path: path, host: host, port: port, batch: batch, prompt: prompt, verify: verify}, nil
}

func (k *knownHosts) callback(hostname string, remote net.Addr, key ssh.PublicKey) error {
	err := k.verify(hostname, remote, key)
	if err == nil {
		return nil
	}
	var keyErr *knownhosts.KeyError
	if !errors.As(err, &keyErr) {
		return fmt.Errorf("host key verification failed: %w", err)
	}

	address := knownHostAddress(k.host, k.port)
	presented := ssh.FingerprintSHA256(key)

	if len(keyErr.Want) == 0 {
		if k.batch {
			return fmt.Errorf("unknown host key for %s (%s); run ssh once to trust it or disable --ssh-batch", address, presented)
		}
		question := fmt.Sprintf(
			"The authenticity of host '%s' can't be established.\n%s key fingerprint is %s.\nTrust this host and continue connecting (yes/no)? ",
			address, key.Type(), presented,
		)
		if ok, err := k.prompt.Confirm(question); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("host key for %s was not trusted", address)
		}
		return k.add(key)
	}

	expected := make([]string, 0, len(keyErr.Want))
	for _, want := range keyErr.Want {
		expected = append(expected, ssh.FingerprintSHA256(want.Key))
	}
	mismatch := fmt.Sprintf("host key mismatch for %s: expected %s, presented %s", address, strings.Join(expected, ", "), presented)
	if k.batch {
		return errors.New(mismatch)
	}
	question := fmt.Sprintf(
		"WARNING: HOST KEY CHANGED for '%s'.\nExpected: %s\nPresented: %s\nReplace stored key and continue (yes/no)? ",
		address, strings.Join(expected, ", "), presented,
	)
	if ok, err := k.prompt.Confirm(question); err != nil {
		return err
	} else if !ok {
		return errors.New(mismatch)
	}
	return k.replace(key)
}

func (k *knownHosts) line(key ssh.PublicKey) string {
	return knownhosts.Line([]string{knownHostAddress(k.host, k.port)}, key) + "\n"
}

func (k *knownHosts) add(key ssh.PublicKey) error {
	f, err := os.OpenFile(k.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("cannot update known_hosts: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(k.line(key)); err != nil {
		return fmt.Errorf("cannot write known_hosts entry: %w", err)
	}
	return nil
}

func (k *knownHosts) replace(key ssh.PublicKey) error {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return fmt.Errorf("cannot read known_hosts: %w", err)
	}

	kept := dropHostEntries(string(data), k.host, k.port)
	if kept != "" && !strings.HasSuffix(kept, "\n") {
		kept += "\n"
	}
	if err := os.WriteFile(k.path, []byte(kept+k.line(key)), 0o600); err != nil {
		return fmt.Errorf("cannot write known_hosts: %w", err)
	}
	return nil
}

func ensureKnownHostsFile(sshDir string) (string, error) {
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", sshDir, err)
	}

	path := filepath.Join(sshDir, "known_hosts")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return "", fmt.Errorf("cannot create known_hosts: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("cannot access known_hosts: %w", err)
	}
	return path, nil
}

func knownHostAddress(host string, port int) string {
	if port == defaultPort {
		return host
	}
	return fmt.Sprintf("[%s]:%d", host, port)
}

// dropHostEntries removes every known_hosts line naming host:port.
// Comments, blank lines and other hosts are kept verbatim.
func dropHostEntries(data, host string, port int) string {
	names := map[string]bool{
		host:                               true,
		fmt.Sprintf("[%s]:%d", host, port): true,
	}
	if port != defaultPort {
		delete(names, host)
	}

	lines := strings.Split(data, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !namesHost(line, names) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func namesHost(line string, names map[string]bool) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}
	hostField := fields[0]
	if strings.HasPrefix(hostField, "@") {
		if len(fields) < 2 {
			return false
		}
		hostField = fields[1]
	}
	for _, h := range strings.Split(hostField, ",") {
		if names[h] {
			return true
		}
	}
	return false
}

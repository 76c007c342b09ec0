package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter asks the user for decisions and secrets during connection setup.
type prompter interface {
	Confirm(question string) (bool, error)
	Secret(prompt string) (string, error)
}

// ttyPrompter prompts on stderr and reads from stdin, which must be a
// terminal.
type ttyPrompter struct {
	in  *os.File
	out io.Writer
}

func terminal() prompter {
	return ttyPrompter{in: os.Stdin, out: os.Stderr}
}

func (p ttyPrompter) Confirm(question string) (bool, error) {
	if !term.IsTerminal(int(p.in.Fd())) {
		return false, errors.New("cannot prompt for confirmation: stdin is not a terminal")
	}

	fmt.Fprint(p.out, question)
	answer, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes", nil
}

func (p ttyPrompter) Secret(prompt string) (string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("cannot prompt for SSH password: stdin is not a terminal")
	}

	fmt.Fprint(p.out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("password prompt failed: %w", err)
	}
	return string(secret), nil
}

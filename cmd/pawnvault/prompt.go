package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/forest6511/pawnvault/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads master keys and confirmations. On a terminal input is read
// without echo; otherwise one line per prompt is read from the command input.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// secret prompts for a value that must not be echoed.
func (p *prompter) secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.tty {
		value, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(value), nil
	}
	return p.line()
}

// line reads a single line, trimming the trailing newline.
func (p *prompter) line() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no input")
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.line()
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// masterKey returns the key from PAWNVAULT_MASTER_KEY or prompts for it.
func (p *prompter) masterKey() (string, error) {
	if key := os.Getenv(config.EnvMasterKey); key != "" {
		return key, nil
	}
	return p.secret("Enter master key")
}

// newMasterKey returns a new key and its confirmation. With
// PAWNVAULT_MASTER_KEY set the variable supplies both.
func (p *prompter) newMasterKey() (string, string, error) {
	if key := os.Getenv(config.EnvMasterKey); key != "" {
		return key, key, nil
	}
	return p.newKeyPair("Enter master key", "Confirm master key")
}

func (p *prompter) newKeyPair(label, confirmLabel string) (string, string, error) {
	key, err := p.secret(label)
	if err != nil {
		return "", "", err
	}
	confirmKey, err := p.secret(confirmLabel)
	if err != nil {
		return "", "", err
	}
	return key, confirmKey, nil
}

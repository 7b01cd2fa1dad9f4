package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/pwvault/internal/crypto"
)

// Environment variables that bypass prompts
const (
	EnvUsername   = "PWVAULT_USERNAME"
	EnvPassword   = "PWVAULT_PASSWORD"
	EnvPassphrase = "PWVAULT_PASSPHRASE"

	// EnvEntryPassword supplies the entry password to one-shot add and modify
	EnvEntryPassword = "PWVAULT_ENTRY_PASSWORD"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Prompter reads answers from the operator. Passwords are read without
// echo when the input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewPrompter returns a prompter reading from stdin and writing to stdout
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

// newPrompterFrom returns a prompter over arbitrary streams, never a terminal
func newPrompterFrom(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// ReadLine prints prompt and returns the next input line without the newline.
// io.EOF is returned only when no input is left at all.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadPassword reads a password from the terminal without echoing
func (p *Prompter) ReadPassword(prompt string) ([]byte, error) {
	if !p.tty {
		line, err := p.ReadLine(prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return []byte(line), nil
	}

	fmt.Fprint(p.out, prompt)
	password, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out) // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func (p *Prompter) ReadPasswordConfirm(prompt string) ([]byte, error) {
	password1, err := p.ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := p.ReadPassword("Confirm: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, ErrPasswordMismatch
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// Confirm asks a yes/no question until it gets one of the two answers
func (p *Prompter) Confirm(question string) (bool, error) {
	for {
		answer, err := p.ReadLine(question + " [yes/no] ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}

// fromEnv returns a copy of the variable's value, or nil when it is unset
func fromEnv(name string) []byte {
	value := os.Getenv(name)
	if value == "" {
		return nil
	}
	return []byte(value)
}

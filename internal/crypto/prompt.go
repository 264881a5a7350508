package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when hidden input is needed but stdin is
// not a terminal.
var ErrNotInteractive = errors.New("not an interactive session")

// PromptSecret prompts on stderr and reads a line from the terminal without
// echoing it. The input is sealed in a memguard enclave; callers open it
// only for as long as they need the plaintext.
func PromptSecret(prompt string) (*memguard.Enclave, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotInteractive
	}

	fmt.Fprint(os.Stderr, prompt)

	// Read with hidden input
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // always move to a new line, even on error

	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	secret = bytes.TrimSpace(secret)
	if len(secret) == 0 {
		return nil, fmt.Errorf("input cannot be empty")
	}

	// NewEnclave wipes the source slice
	return memguard.NewEnclave(secret), nil
}

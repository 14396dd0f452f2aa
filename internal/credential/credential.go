// Package credential obtains the ADS API token.
//
// The token is looked up in a per-directory file first, then in the
// environment or global config, and finally requested from the user. A
// prompted token is saved to the file so later runs in the same directory
// do not ask again.
package credential

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPath is the token file name, relative to the working directory.
const DefaultPath = ".ads-token"

// TokenURL is where users generate an ADS API token.
const TokenURL = "https://ui.adsabs.harvard.edu/user/settings/token"

// ErrMissingCredential is returned when no token is stored and none can be
// requested.
var ErrMissingCredential = errors.New("missing ADS API token")

// Prompter asks the user for a token.
type Prompter interface {
	Prompt(ctx context.Context) (string, error)
}

// Store reads, prompts for and persists the token.
type Store struct {
	// Path is the token file. Empty means DefaultPath.
	Path string
	// Lookup returns a token from the environment or config, or "".
	Lookup func() string
	// Prompter is consulted last. Nil means no prompting.
	Prompter Prompter
}

func (s *Store) path() string {
	if s.Path == "" {
		return DefaultPath
	}
	return s.Path
}

// Obtain returns the token, prompting and persisting it if necessary.
func (s *Store) Obtain(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path())
	if err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	if s.Lookup != nil {
		if token := strings.TrimSpace(s.Lookup()); token != "" {
			return token, nil
		}
	}

	if s.Prompter == nil {
		return "", ErrMissingCredential
	}
	token, err := s.Prompter.Prompt(ctx)
	if err != nil {
		return "", err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	if err := os.WriteFile(s.path(), []byte(token), 0600); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}
	return token, nil
}

// Reset removes the token file. A missing file is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// TerminalPrompter reads a token line from In after printing instructions
// to Out.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
	// Interactive must be true for the prompt to be shown; otherwise Prompt
	// fails with ErrMissingCredential instead of blocking on input.
	Interactive bool
}

// Prompt implements Prompter.
func (p *TerminalPrompter) Prompt(ctx context.Context) (string, error) {
	if !p.Interactive {
		return "", ErrMissingCredential
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.Out, "Get your ADS API token: %s\n", TokenURL)
	fmt.Fprint(p.Out, "Paste your token (needed only once per directory): ")

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

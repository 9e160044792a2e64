package credential

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Static holds a fixed key, typically from configuration. It cannot ask.
type Static struct {
	mu  sync.Mutex
	key string
}

// NewStatic returns a provider for key.
func NewStatic(key string) *Static {
	return &Static{key: strings.TrimSpace(key)}
}

func (s *Static) HasCredential(context.Context) bool { return s.APIKey() != "" }

func (s *Static) RequestCredential(context.Context) error {
	return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissing)
}

func (s *Static) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Env reads the key from the first non-empty environment variable.
type Env struct {
	Names []string
}

// NewEnv returns a provider reading GEMINI_API_KEY, GOOGLE_API_KEY, API_KEY.
func NewEnv() *Env {
	return &Env{Names: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}}
}

func (e *Env) HasCredential(context.Context) bool { return e.APIKey() != "" }

func (e *Env) RequestCredential(context.Context) error {
	return fmt.Errorf("%w: set %s", ErrMissing, strings.Join(e.Names, " or "))
}

func (e *Env) APIKey() string {
	for _, name := range e.Names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Prompt asks for a key on a terminal. The key is kept in memory only.
// Without a terminal the key is read as a plain line.
type Prompt struct {
	in     io.Reader
	out    io.Writer
	fd     int
	isTerm func(fd int) bool
	read   func(fd int) ([]byte, error)

	mu  sync.Mutex
	key string
}

// NewPrompt asks on stdin/stderr and starts with initial (may be empty).
func NewPrompt(initial string) *Prompt {
	return &Prompt{
		in:     os.Stdin,
		out:    os.Stderr,
		fd:     int(os.Stdin.Fd()),
		isTerm: term.IsTerminal,
		read:   term.ReadPassword,
		key:    strings.TrimSpace(initial),
	}
}

func (p *Prompt) HasCredential(context.Context) bool { return p.APIKey() != "" }

func (p *Prompt) APIKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

// Forget drops the key so the next request asks again.
func (p *Prompt) Forget() {
	p.mu.Lock()
	p.key = ""
	p.mu.Unlock()
}

// RequestCredential prompts once. An empty answer is a decline.
func (p *Prompt) RequestCredential(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprint(p.out, "Video generation needs a Gemini API key from a paid Google Cloud project.\nAPI key (empty to cancel): ")

	var line string
	if p.isTerm(p.fd) {
		b, err := p.read(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return fmt.Errorf("credential: read key: %w", err)
		}
		line = string(b)
	} else {
		s, err := bufio.NewReader(p.in).ReadString('\n')
		if err != nil && s == "" {
			if err == io.EOF {
				return ErrDeclined
			}
			return fmt.Errorf("credential: read key: %w", err)
		}
		line = s
	}

	key := strings.TrimSpace(line)
	if key == "" {
		return ErrDeclined
	}
	p.mu.Lock()
	p.key = key
	p.mu.Unlock()
	return nil
}

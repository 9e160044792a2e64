// Package credential decides whether a usable API key is available and how
// to ask for one.
package credential

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrDeclined is returned when the user declines to provide a key.
	ErrDeclined = errors.New("credential: request declined")

	// ErrMissing is returned when a request completed but no key is usable.
	ErrMissing = errors.New("credential: no API key available")
)

// Provider supplies the API key and can ask the user for one.
type Provider interface {
	// HasCredential reports whether a key is available right now.
	HasCredential(ctx context.Context) bool
	// RequestCredential asks for a key. It returns ErrDeclined if the user
	// says no.
	RequestCredential(ctx context.Context) error
	// APIKey returns the current key, or "" if none.
	APIKey() string
}

// Gate guards calls that need a paid key. A request is never assumed to
// have succeeded: after RequestCredential the provider is asked again.
type Gate struct {
	p Provider

	mu       sync.Mutex
	approved bool
}

// NewGate wraps p.
func NewGate(p Provider) *Gate {
	return &Gate{p: p}
}

// Ensure returns nil once a key is available, asking for one if needed.
func (g *Gate) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.p.HasCredential(ctx) {
		g.approved = true
		return nil
	}
	g.approved = false

	if err := g.p.RequestCredential(ctx); err != nil {
		return err
	}
	if !g.p.HasCredential(ctx) {
		return ErrMissing
	}
	g.approved = true
	return nil
}

// Approved reports whether the last Ensure succeeded and no Reset followed.
func (g *Gate) Approved() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.approved
}

// Reset forgets the approval after the API rejected the key. The next
// Ensure asks again if the provider can forget the key too.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.approved = false
	g.mu.Unlock()
	if f, ok := g.p.(interface{ Forget() }); ok {
		f.Forget()
	}
}

// Provider returns the wrapped provider.
func (g *Gate) Provider() Provider { return g.p }

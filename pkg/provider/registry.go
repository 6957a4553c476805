package provider

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned when no provider is registered under a
// requested name.
var ErrNotFound = errors.New("provider: not found")

// Registry maps provider names to cipher and signer implementations.
// Name comparison is case-insensitive and whitespace-trimmed. A Registry
// is an explicit value injected into the API surface, never ambient
// global state. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	ciphers map[string]Cipher
	signers map[string]Signer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ciphers: map[string]Cipher{},
		signers: map[string]Signer{},
	}
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// RegisterCipher adds a cipher under its own name, replacing any previous
// registration.
func (r *Registry) RegisterCipher(c Cipher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ciphers[normalizeName(c.Name())] = c
}

// RegisterSigner adds a signer under its own name, replacing any previous
// registration.
func (r *Registry) RegisterSigner(s Signer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signers[normalizeName(s.Name())] = s
}

// Cipher looks up a cipher by name.
func (r *Registry) Cipher(name string) (Cipher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.ciphers[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("cipher %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// Signer looks up a signer by name.
func (r *Registry) Signer(name string) (Signer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.signers[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("signer %q: %w", name, ErrNotFound)
	}
	return s, nil
}

// Package keychain provides concrete key-resolution contexts for the
// chain interpreter: an in-memory keychain for tests and embedding, and
// a badger-backed persistent store for the CLI. The interpreter itself
// only ever sees the provider.Context interface.
package keychain

import (
	"sync"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
	"github.com/cryptdoc/cryptdoc/pkg/secret"
)

// Memory is an in-memory keychain. It records every artifact the
// interpreter reports, so callers can inspect the outcome of a pass.
type Memory struct {
	mu          sync.Mutex
	priv        map[string]*pem.Block
	pub         map[string]*pem.Block
	pairs       map[string]string
	passphrases map[string]string

	secrets   []*secret.Text
	validated []*pem.Block
	hashes    []*pem.Block
	missing   []*pem.Block
}

// NewMemory creates an empty in-memory keychain.
func NewMemory() *Memory {
	return &Memory{
		priv:        map[string]*pem.Block{},
		pub:         map[string]*pem.Block{},
		pairs:       map[string]string{},
		passphrases: map[string]string{},
	}
}

// AddKey registers a key block under its Ident property and records the
// pair mapping in both directions.
func (m *Memory) AddKey(b *pem.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addKeyLocked(b)
}

func (m *Memory) addKeyLocked(b *pem.Block) {
	id := b.GetString(pem.Ident, "")
	if id == "" {
		return
	}
	switch b.Kind() {
	case pem.KindPrivateKey:
		m.priv[id] = b
		if pubID := b.GetString(pem.PubID, ""); pubID != "" {
			m.pairs[pubID] = id
			m.pairs[id] = pubID
		}
	case pem.KindPublicKey:
		m.pub[id] = b
		if privID := b.GetString(pem.PrivID, ""); privID != "" {
			m.pairs[id] = privID
			m.pairs[privID] = id
		}
	}
}

// SetPassphrase records the passphrase protecting the key with the given
// identifier.
func (m *Memory) SetPassphrase(id, passphrase string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passphrases[id] = passphrase
}

// GetPrivateKey implements provider.Context.
func (m *Memory) GetPrivateKey(id string) *pem.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.priv[id]
}

// GetPublicKey implements provider.Context.
func (m *Memory) GetPublicKey(id string) *pem.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pub[id]
}

// GetPrivateIDForPublicID implements provider.Context. The mapping is
// kept in both directions, so it also resolves a public id for a private
// one; signature blocks rely on that.
func (m *Memory) GetPrivateIDForPublicID(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairs[id]
}

// GetPassphrase implements provider.Context.
func (m *Memory) GetPassphrase(id string, _ *pem.Block) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passphrases[id]
}

// FoundSecret implements provider.Context. The keychain owns the secret
// wrapper from here on; Reset scrubs retained secrets.
func (m *Memory) FoundSecret(_ *pem.Block, s *secret.Text) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets = append(m.secrets, s)
}

// FoundValidated implements provider.Context.
func (m *Memory) FoundValidated(b *pem.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validated = append(m.validated, b)
}

// FoundPublicKey implements provider.Context. The key becomes resolvable
// by later blocks.
func (m *Memory) FoundPublicKey(b *pem.Block) {
	m.AddKey(b)
}

// FoundPrivateKey implements provider.Context.
func (m *Memory) FoundPrivateKey(b *pem.Block) {
	m.AddKey(b)
}

// FoundHash implements provider.Context.
func (m *Memory) FoundHash(b *pem.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes = append(m.hashes, b)
}

// ErrorKeyNotFound implements provider.Context.
func (m *Memory) ErrorKeyNotFound(b *pem.Block) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing = append(m.missing, b)
}

// Secrets returns the decrypted payloads reported so far.
func (m *Memory) Secrets() []*secret.Text {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*secret.Text(nil), m.secrets...)
}

// Validated returns the signature blocks validated so far.
func (m *Memory) Validated() []*pem.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*pem.Block(nil), m.validated...)
}

// Hashes returns the hash blocks reported so far.
func (m *Memory) Hashes() []*pem.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*pem.Block(nil), m.hashes...)
}

// Missing returns the blocks whose keys could not be resolved.
func (m *Memory) Missing() []*pem.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*pem.Block(nil), m.missing...)
}

// Reset scrubs all retained secrets and clears the recorded artifacts.
// Registered keys and passphrases stay.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.secrets {
		s.Scrub()
	}
	m.secrets = nil
	m.validated = nil
	m.hashes = nil
	m.missing = nil
}

var _ provider.Context = (*Memory)(nil)

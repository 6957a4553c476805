// Package cryptdoc interprets composite crypt documents: ordered block
// lists of keys, encrypted payloads, signatures, hashes and plain
// content. The chain interpreter resolves in a single pass which blocks
// must be decrypted, which signatures must be validated, and which keys
// must be registered for later use. Decrypted sub-documents are spliced
// back into the list and interpreted in turn.
package cryptdoc

import (
	"log/slog"

	"github.com/cryptdoc/cryptdoc/internal/providers"
	"github.com/cryptdoc/cryptdoc/pkg/logging"
	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

// Config configures a Crypt handle. Default provider names are explicit
// configuration, not ambient process state.
type Config struct {
	// DefaultCipher is the cipher used when no name is given.
	// Empty means "RSA-GO".
	DefaultCipher string
	// DefaultSigner is the signer used when no name is given.
	// Empty means "ED25519-GO".
	DefaultSigner string
	// Logger is an optional structured logger. If nil, a stderr logger
	// is used.
	Logger *slog.Logger
}

// Crypt is the API handle. It owns the provider registry reference and
// the interpreter. Safe for concurrent use as long as each ProcessBlocks
// call owns its BlockList.
type Crypt struct {
	log    *slog.Logger
	reg    *provider.Registry
	config Config
}

// New creates a handle over the given registry.
func New(reg *provider.Registry, conf Config) *Crypt {
	if conf.DefaultCipher == "" {
		conf.DefaultCipher = providers.CipherRSA
	}
	if conf.DefaultSigner == "" {
		conf.DefaultSigner = providers.SignerEd25519
	}
	if conf.Logger == nil {
		conf.Logger = logging.Default()
	}
	return &Crypt{
		log:    conf.Logger,
		reg:    reg,
		config: conf,
	}
}

// NewWithDefaults creates a handle over a fresh registry populated with
// the built-in providers.
func NewWithDefaults(conf Config) *Crypt {
	reg := provider.NewRegistry()
	providers.Register(reg)
	return New(reg, conf)
}

// Registry returns the provider registry the handle resolves from.
func (c *Crypt) Registry() *provider.Registry {
	return c.reg
}

// Cipher looks up a cipher by name; an empty name resolves the
// configured default.
func (c *Crypt) Cipher(name string) (provider.Cipher, error) {
	if name == "" {
		name = c.config.DefaultCipher
	}
	return c.reg.Cipher(name)
}

// Signer looks up a signer by name; an empty name resolves the
// configured default.
func (c *Crypt) Signer(name string) (provider.Signer, error) {
	if name == "" {
		name = c.config.DefaultSigner
	}
	return c.reg.Signer(name)
}

// Sign signs the text with the signer named by the private key block's
// Method property.
func (c *Crypt) Sign(priv *pem.Block, text string, passphrase string) (*pem.Block, error) {
	s, err := c.Signer(priv.GetString(pem.Method, ""))
	if err != nil {
		return nil, err
	}
	return s.Sign(priv, text, passphrase)
}

// Validate checks a signature block against the text with the signer
// named by the public key block's Method property.
func (c *Crypt) Validate(pub *pem.Block, text string, sig *pem.Block) (bool, error) {
	s, err := c.Signer(pub.GetString(pem.Method, ""))
	if err != nil {
		return false, err
	}
	return s.Validate(pub, text, sig)
}

// Encrypt encrypts the plaintext with the cipher named by the public key
// block's Method property.
func (c *Crypt) Encrypt(pub *pem.Block, plaintext string) (*pem.Block, error) {
	cp, err := c.Cipher(pub.GetString(pem.Method, ""))
	if err != nil {
		return nil, err
	}
	return cp.Encrypt(pub, plaintext)
}

// Decrypt decrypts a cipher block with the cipher named by the block's
// Method property, falling back to the private key block's.
func (c *Crypt) Decrypt(priv *pem.Block, enc *pem.Block, passphrase string) (string, error) {
	name := enc.GetString(pem.Method, priv.GetString(pem.Method, ""))
	cp, err := c.Cipher(name)
	if err != nil {
		return "", err
	}
	return cp.Decrypt(priv, enc, passphrase)
}

// CreateCipherKeys generates a key pair with the named cipher; an empty
// name uses the configured default.
func (c *Crypt) CreateCipherKeys(name string, opts provider.KeyOptions) (priv, pub *pem.Block, err error) {
	cp, err := c.Cipher(name)
	if err != nil {
		return nil, nil, err
	}
	return cp.CreateKeys(opts)
}

// CreateSignKeys generates a key pair with the named signer; an empty
// name uses the configured default.
func (c *Crypt) CreateSignKeys(name string, opts provider.KeyOptions) (priv, pub *pem.Block, err error) {
	s, err := c.Signer(name)
	if err != nil {
		return nil, nil, err
	}
	return s.CreateKeys(opts)
}

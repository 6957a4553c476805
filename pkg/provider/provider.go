// Package provider defines the capability contracts of the crypt core:
// ciphers, signers, the name-based registry they are looked up from, and
// the key-resolution context the chain interpreter reports into.
package provider

import (
	"github.com/cryptdoc/cryptdoc/pkg/pem"
)

// KeyOptions configures key pair generation.
type KeyOptions struct {
	// Length is the requested key length in bits. Zero means the
	// provider's default (1024 for the RSA provider).
	Length int
	// Passphrase, when set, pre-encrypts the exported private key bytes
	// with a passphrase-derived symmetric cipher before wrapping them in
	// a block. The block is marked via the Encrypted property.
	Passphrase string
}

// Cipher is the encrypt/decrypt capability. Implementations are stateless
// and safe for concurrent use.
type Cipher interface {
	// Name returns the stable provider name used for registry lookup and
	// recorded in the Method property of produced blocks.
	Name() string

	// Encrypt encrypts the plaintext under the public key block and
	// returns a cipher block carrying the ciphertext and the properties
	// needed to decrypt it later.
	Encrypt(pub *pem.Block, plaintext string) (*pem.Block, error)

	// Decrypt decrypts a cipher block under the private key block. The
	// passphrase unwraps passphrase-protected key material and may be
	// empty. Fails on malformed ciphertext, a wrong key, or a padding
	// mismatch.
	Decrypt(priv *pem.Block, enc *pem.Block, passphrase string) (string, error)

	// CreateKeys generates a fresh key pair as a private and a public key
	// block, each carrying its own identifier and the counterpart's.
	CreateKeys(opts KeyOptions) (priv, pub *pem.Block, err error)
}

// Signer is the sign/validate capability. Implementations are stateless
// and safe for concurrent use.
type Signer interface {
	// Name returns the stable provider name used for registry lookup and
	// recorded in the Method property of produced blocks.
	Name() string

	// Sign signs the text under the private key block and returns a
	// signature block.
	Sign(priv *pem.Block, text string, passphrase string) (*pem.Block, error)

	// Validate checks the signature block against the text under the
	// public key block. A merely invalid signature returns false with a
	// nil error; errors are reserved for unusable keys or blocks.
	Validate(pub *pem.Block, text string, sig *pem.Block) (bool, error)

	// CreateKeys generates a fresh key pair, see Cipher.CreateKeys.
	CreateKeys(opts KeyOptions) (priv, pub *pem.Block, err error)
}

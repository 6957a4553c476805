package provider

import (
	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/secret"
)

// Context resolves keys and passphrases for the chain interpreter and
// receives a notification for every artifact the walk discovers. The
// interpreter consumes the lookup results and otherwise only reports;
// it never retains a secret after handing it over.
//
// Lookups return nil or "" for unknown identifiers; the interpreter
// turns that into an ErrorKeyNotFound notification, not an error.
type Context interface {
	// GetPrivateKey returns the private key block for the identifier.
	GetPrivateKey(id string) *pem.Block

	// GetPublicKey returns the public key block for the identifier.
	GetPublicKey(id string) *pem.Block

	// GetPrivateIDForPublicID maps a public key identifier to the
	// locally held counterpart key identifier.
	GetPrivateIDForPublicID(id string) string

	// GetPassphrase returns the passphrase protecting the key with the
	// given identifier, for use while processing the given block.
	GetPassphrase(id string, b *pem.Block) string

	// FoundSecret hands over a decrypted payload. The context owns the
	// wrapper from this point and is responsible for scrubbing it.
	FoundSecret(b *pem.Block, s *secret.Text)

	// FoundValidated reports a successfully validated embedded signature.
	FoundValidated(b *pem.Block)

	// FoundPublicKey reports a public key block discovered in the
	// document, so later blocks can resolve it.
	FoundPublicKey(b *pem.Block)

	// FoundPrivateKey reports a private key block discovered in the
	// document.
	FoundPrivateKey(b *pem.Block)

	// FoundHash reports a hash block.
	FoundHash(b *pem.Block)

	// ErrorKeyNotFound reports a block whose key could not be resolved.
	// The walk continues; the rest of the document is still interpreted.
	ErrorKeyNotFound(b *pem.Block)
}

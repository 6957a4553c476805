package providers

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

// SignerEd25519 is the registry name of the Ed25519 signer.
const SignerEd25519 = "ED25519-GO"

// Ed25519Signer signs with Ed25519. It is the default signer.
type Ed25519Signer struct{}

// Name returns the provider name.
func (Ed25519Signer) Name() string { return SignerEd25519 }

// Sign signs the text under the private key block.
func (s Ed25519Signer) Sign(priv *pem.Block, text string, passphrase string) (*pem.Block, error) {
	key, err := ed25519PrivateKey(priv, passphrase)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(key, []byte(text))
	return signatureBlock(s.Name(), priv, sig), nil
}

// Validate checks the signature against the text. An invalid signature
// returns false with a nil error.
func (s Ed25519Signer) Validate(pub *pem.Block, text string, sig *pem.Block) (bool, error) {
	key, err := ed25519PublicKey(pub)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(key, []byte(text), sig.Payload), nil
}

// CreateKeys generates a fresh Ed25519 pair. Length options are ignored;
// Ed25519 keys have a fixed size.
func (s Ed25519Signer) CreateKeys(opts provider.KeyOptions) (*pem.Block, *pem.Block, error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("providers: ed25519 keygen: %w", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(privKey)
	if err != nil {
		return nil, nil, fmt.Errorf("providers: ed25519 keygen: %w", err)
	}
	pubBytes, err := x509.MarshalPKIXPublicKey(pubKey)
	if err != nil {
		return nil, nil, fmt.Errorf("providers: ed25519 keygen: %w", err)
	}
	return newKeyPairBlocks(s.Name(), ed25519.PublicKeySize*8, privBytes, pubBytes, opts)
}

func ed25519PrivateKey(b *pem.Block, passphrase string) (ed25519.PrivateKey, error) {
	data, err := privateKeyBytes(b, passphrase)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS8PrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("providers: parse ed25519 private key: %w", err)
	}
	ek, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("providers: key block is not an ed25519 private key")
	}
	return ek, nil
}

func ed25519PublicKey(b *pem.Block) (ed25519.PublicKey, error) {
	if len(b.Payload) == 0 {
		return nil, fmt.Errorf("providers: public key block has no payload")
	}
	key, err := x509.ParsePKIXPublicKey(b.Payload)
	if err != nil {
		return nil, fmt.Errorf("providers: parse ed25519 public key: %w", err)
	}
	ek, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("providers: key block is not an ed25519 public key")
	}
	return ek, nil
}

var _ provider.Signer = Ed25519Signer{}

// Package providers contains the built-in cipher and signer
// implementations: the chunked RSA cipher that serves as the
// interoperability reference, an RSA signer over the same key blocks, and
// an Ed25519 signer.
package providers

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

// newKeyPairBlocks wraps freshly generated key material into a private
// and a public key block. Each half gets its own identifier and carries
// the counterpart's, so either side can resolve the other later. A set
// passphrase pre-encrypts the private key bytes and marks the block.
func newKeyPairBlocks(method string, length int, privBytes, pubBytes []byte, opts provider.KeyOptions) (*pem.Block, *pem.Block, error) {
	privID := uuid.NewString()
	pubID := uuid.NewString()
	created := time.Now().UTC().Format(time.RFC3339)

	if opts.Passphrase != "" {
		wrapped, err := wrapKey(privBytes, opts.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		privBytes = wrapped
	}

	priv := pem.NewBlock(pem.NamePrivateKey).
		Set(pem.Method, method).
		Set(pem.Format, "PKCS#8").
		Set(pem.Ident, privID).
		Set(pem.PubID, pubID).
		Set(pem.Created, created)
	priv.SetInt(pem.Length, length)
	priv.Payload = privBytes
	if opts.Passphrase != "" {
		priv.Set(pem.Encrypted, pem.EncBlowfish)
	}

	pub := pem.NewBlock(pem.NamePublicKey).
		Set(pem.Method, method).
		Set(pem.Format, "PKIX").
		Set(pem.Ident, pubID).
		Set(pem.PrivID, privID).
		Set(pem.Created, created)
	pub.SetInt(pem.Length, length)
	pub.Payload = pubBytes

	return priv, pub, nil
}

// privateKeyBytes returns the raw exported key bytes of a private key
// block, unwrapping passphrase protection when a passphrase is given.
func privateKeyBytes(b *pem.Block, passphrase string) ([]byte, error) {
	data := b.Payload
	if len(data) == 0 {
		return nil, fmt.Errorf("providers: private key block has no payload")
	}
	if passphrase != "" {
		return unwrapKey(data, passphrase)
	}
	return data, nil
}

func rsaPrivateKey(b *pem.Block, passphrase string) (*rsa.PrivateKey, error) {
	data, err := privateKeyBytes(b, passphrase)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS8PrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("providers: parse rsa private key: %w", err)
	}
	rk, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("providers: key block is not an rsa private key")
	}
	return rk, nil
}

func rsaPublicKey(b *pem.Block) (*rsa.PublicKey, error) {
	if len(b.Payload) == 0 {
		return nil, fmt.Errorf("providers: public key block has no payload")
	}
	key, err := x509.ParsePKIXPublicKey(b.Payload)
	if err != nil {
		return nil, fmt.Errorf("providers: parse rsa public key: %w", err)
	}
	rk, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("providers: key block is not an rsa public key")
	}
	return rk, nil
}

// Register adds all built-in providers to the registry.
func Register(reg *provider.Registry) {
	reg.RegisterCipher(RSACipher{})
	reg.RegisterSigner(RSASigner{})
	reg.RegisterSigner(Ed25519Signer{})
}

package providers

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"time"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

// SignerRSA is the registry name of the RSA signer. It matches the RSA
// cipher name so one RSA key pair serves both capabilities.
const SignerRSA = "RSA-GO"

// RSASigner signs SHA-256 digests with PKCS#1 v1.5 over the same key
// blocks the RSA cipher produces.
type RSASigner struct{}

// Name returns the provider name.
func (RSASigner) Name() string { return SignerRSA }

// Sign signs the text under the private key block.
func (s RSASigner) Sign(priv *pem.Block, text string, passphrase string) (*pem.Block, error) {
	key, err := rsaPrivateKey(priv, passphrase)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256([]byte(text))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, err
	}
	return signatureBlock(s.Name(), priv, sig), nil
}

// Validate checks the signature against the text. An invalid signature
// returns false with a nil error.
func (s RSASigner) Validate(pub *pem.Block, text string, sig *pem.Block) (bool, error) {
	key, err := rsaPublicKey(pub)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256([]byte(text))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig.Payload); err != nil {
		return false, nil
	}
	return true, nil
}

// CreateKeys generates an RSA pair, identical to the cipher's.
func (s RSASigner) CreateKeys(opts provider.KeyOptions) (*pem.Block, *pem.Block, error) {
	return RSACipher{}.CreateKeys(opts)
}

// signatureBlock wraps raw signature bytes into a signature block that
// carries the signing key's identifiers, so the interpreter can resolve
// the public key for validation.
func signatureBlock(method string, priv *pem.Block, sig []byte) *pem.Block {
	block := pem.NewBlock(pem.NameSignature).
		Set(pem.Method, method).
		Set(pem.Created, time.Now().UTC().Format(time.RFC3339))
	if id := priv.GetString(pem.PubID, ""); id != "" {
		block.Set(pem.PubID, id)
	}
	if id := priv.GetString(pem.Ident, ""); id != "" {
		block.Set(pem.PrivID, id)
	}
	block.Payload = sig
	return block
}

var _ provider.Signer = RSASigner{}

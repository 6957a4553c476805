package providers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

// CipherRSA is the registry name of the chunked RSA cipher.
const CipherRSA = "RSA-GO"

const defaultRSABits = 1024

// RSACipher encrypts plaintext in fixed-size chunks because RSA encrypts
// at most modulus-length minus padding-overhead bytes per operation. The
// chunk arithmetic is the interoperability contract for existing
// documents: any reimplementation must reproduce it bit-exactly.
//
// Encryption uses 53-byte chunks for 512-bit keys and 117-byte chunks
// otherwise. The 117 is tuned for 1024-bit keys; larger keys stay correct
// but underutilize their capacity. Decryption splits the ciphertext into
// chunks of max(keyLength/1024*128, 64) bytes, which equals the modulus
// byte length for key lengths that are multiples of 1024 bits.
type RSACipher struct{}

// Name returns the provider name.
func (RSACipher) Name() string { return CipherRSA }

func encryptChunkSize(length int) int {
	if length == 512 {
		return 53
	}
	return 117
}

func decryptChunkSize(length int) int {
	size := length / 1024 * 128
	if size < 64 {
		size = 64
	}
	return size
}

// Encrypt encrypts the plaintext under the public key block, one chunk at
// a time, and concatenates the per-chunk ciphertexts. The resulting
// payload length is ceil(len(plaintext)/chunkSize) * modulusBytes.
func (c RSACipher) Encrypt(pub *pem.Block, plaintext string) (*pem.Block, error) {
	key, err := rsaPublicKey(pub)
	if err != nil {
		return nil, err
	}
	length := pub.GetInt(pem.Length, defaultRSABits)
	chunk := encryptChunkSize(length)

	data := []byte(plaintext)
	var out bytes.Buffer
	for off := 0; off < len(data); off += chunk {
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}
		enc, err := rsa.EncryptPKCS1v15(rand.Reader, key, data[off:end])
		if err != nil {
			return nil, fmt.Errorf("providers: rsa encrypt: %w", err)
		}
		out.Write(enc)
	}

	block := pem.NewBlock(pem.NameCipher).
		Set(pem.Method, c.Name()).
		Set(pem.StringEncoding, "utf-8").
		Set(pem.Created, time.Now().UTC().Format(time.RFC3339))
	block.SetInt(pem.Length, length)
	if id := pub.GetString(pem.Ident, ""); id != "" {
		block.Set(pem.PubID, id)
	}
	block.Payload = out.Bytes()
	return block, nil
}

// Decrypt splits the ciphertext into fixed chunks derived from the key
// length, decrypts each independently and decodes the concatenation with
// the block's declared string encoding.
func (c RSACipher) Decrypt(priv *pem.Block, enc *pem.Block, passphrase string) (string, error) {
	key, err := rsaPrivateKey(priv, passphrase)
	if err != nil {
		return "", err
	}
	length := priv.GetInt(pem.Length, defaultRSABits)
	chunk := decryptChunkSize(length)

	data := enc.Payload
	var out bytes.Buffer
	for off := 0; off < len(data); off += chunk {
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}
		dec, err := rsa.DecryptPKCS1v15(nil, key, data[off:end])
		if err != nil {
			return "", fmt.Errorf("providers: rsa decrypt: %w", err)
		}
		out.Write(dec)
	}

	return decodeText(out.Bytes(), enc.GetString(pem.StringEncoding, "utf-8"))
}

func decodeText(data []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return string(data), nil
	default:
		return "", fmt.Errorf("providers: unsupported string encoding %q", encoding)
	}
}

// CreateKeys generates an RSA pair at the requested length, defaulting to
// 1024 bits, from a cryptographically secure random source.
func (c RSACipher) CreateKeys(opts provider.KeyOptions) (*pem.Block, *pem.Block, error) {
	length := opts.Length
	if length == 0 {
		length = defaultRSABits
	}
	key, err := rsa.GenerateKey(rand.Reader, length)
	if err != nil {
		return nil, nil, fmt.Errorf("providers: rsa keygen: %w", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("providers: rsa keygen: %w", err)
	}
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("providers: rsa keygen: %w", err)
	}
	return newKeyPairBlocks(c.Name(), length, privBytes, pubBytes, opts)
}

var _ provider.Cipher = RSACipher{}

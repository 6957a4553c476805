package providers

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// wrapKey encrypts exported private key bytes with a passphrase-derived
// blowfish cipher in CTR mode. The random IV is prepended to the output.
func wrapKey(data []byte, passphrase string) ([]byte, error) {
	bc, err := passphraseCipher(passphrase)
	if err != nil {
		return nil, err
	}
	out := make([]byte, blowfish.BlockSize+len(data))
	iv := out[:blowfish.BlockSize]
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("providers: key wrap iv: %w", err)
	}
	cipher.NewCTR(bc, iv).XORKeyStream(out[blowfish.BlockSize:], data)
	return out, nil
}

// unwrapKey reverses wrapKey.
func unwrapKey(data []byte, passphrase string) ([]byte, error) {
	if len(data) < blowfish.BlockSize {
		return nil, fmt.Errorf("providers: wrapped key too short")
	}
	bc, err := passphraseCipher(passphrase)
	if err != nil {
		return nil, err
	}
	iv := data[:blowfish.BlockSize]
	out := make([]byte, len(data)-blowfish.BlockSize)
	cipher.NewCTR(bc, iv).XORKeyStream(out, data[blowfish.BlockSize:])
	return out, nil
}

func passphraseCipher(passphrase string) (*blowfish.Cipher, error) {
	key := sha256.Sum256([]byte(passphrase))
	bc, err := blowfish.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("providers: passphrase cipher: %w", err)
	}
	return bc, nil
}

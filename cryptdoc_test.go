package cryptdoc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptdoc/cryptdoc"
	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

func TestDefaultsResolve(t *testing.T) {
	crypt := cryptdoc.NewWithDefaults(cryptdoc.Config{})

	c, err := crypt.Cipher("")
	require.NoError(t, err)
	assert.Equal(t, "RSA-GO", c.Name())

	s, err := crypt.Signer("")
	require.NoError(t, err)
	assert.Equal(t, "ED25519-GO", s.Name())
}

func TestConfiguredDefaults(t *testing.T) {
	crypt := cryptdoc.NewWithDefaults(cryptdoc.Config{DefaultSigner: "RSA-GO"})
	s, err := crypt.Signer("")
	require.NoError(t, err)
	assert.Equal(t, "RSA-GO", s.Name())
}

func TestProviderNotFound(t *testing.T) {
	crypt := cryptdoc.NewWithDefaults(cryptdoc.Config{})
	_, err := crypt.Cipher("NO-SUCH-CIPHER")
	assert.True(t, errors.Is(err, provider.ErrNotFound))

	// a key block naming an unregistered method surfaces the same error
	key := pem.NewBlock(pem.NamePrivateKey).Set(pem.Method, "NO-SUCH-SIGNER")
	_, err = crypt.Sign(key, "text", "")
	assert.True(t, errors.Is(err, provider.ErrNotFound))
}

func TestEncryptDecryptEntryPoints(t *testing.T) {
	crypt := cryptdoc.NewWithDefaults(cryptdoc.Config{})
	priv, pub, err := crypt.CreateCipherKeys("", provider.KeyOptions{Length: 512})
	require.NoError(t, err)

	enc, err := crypt.Encrypt(pub, "round trip me")
	require.NoError(t, err)

	dec, err := crypt.Decrypt(priv, enc, "")
	require.NoError(t, err)
	assert.Equal(t, "round trip me", dec)
}

func TestSignValidateEntryPoints(t *testing.T) {
	crypt := cryptdoc.NewWithDefaults(cryptdoc.Config{})
	priv, pub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)

	sig, err := crypt.Sign(priv, "the text", "")
	require.NoError(t, err)

	valid, err := crypt.Validate(pub, "the text", sig)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = crypt.Validate(pub, "the Text", sig)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestRegistryInjection(t *testing.T) {
	// an empty registry resolves nothing: the handle has no ambient
	// fallback providers
	crypt := cryptdoc.New(provider.NewRegistry(), cryptdoc.Config{})
	_, err := crypt.Cipher("")
	assert.True(t, errors.Is(err, provider.ErrNotFound))
}

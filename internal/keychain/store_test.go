package keychain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptdoc/cryptdoc/internal/providers"
	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(StoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAddAndLoadKeys(t *testing.T) {
	s := testStore(t)
	priv, pub, err := providers.RSACipher{}.CreateKeys(provider.KeyOptions{Length: 512})
	require.NoError(t, err)

	require.NoError(t, s.AddKey(priv))
	require.NoError(t, s.AddKey(pub))

	privID := priv.GetString(pem.Ident, "")
	pubID := pub.GetString(pem.Ident, "")

	loaded := s.GetPrivateKey(privID)
	require.NotNil(t, loaded)
	assert.Equal(t, priv.Payload, loaded.Payload)
	assert.Equal(t, priv.Properties, loaded.Properties)

	assert.NotNil(t, s.GetPublicKey(pubID))
	assert.Equal(t, privID, s.GetPrivateIDForPublicID(pubID))
	assert.Equal(t, pubID, s.GetPrivateIDForPublicID(privID))
}

func TestStoreUnknownKeys(t *testing.T) {
	s := testStore(t)
	assert.Nil(t, s.GetPrivateKey("unknown"))
	assert.Nil(t, s.GetPublicKey("unknown"))
	assert.Empty(t, s.GetPrivateIDForPublicID("unknown"))
}

func TestStoreKindChecked(t *testing.T) {
	s := testStore(t)
	priv, pub, err := providers.Ed25519Signer{}.CreateKeys(provider.KeyOptions{})
	require.NoError(t, err)
	require.NoError(t, s.AddKey(priv))
	require.NoError(t, s.AddKey(pub))

	// a private id must not resolve as a public key and vice versa
	assert.Nil(t, s.GetPublicKey(priv.GetString(pem.Ident, "")))
	assert.Nil(t, s.GetPrivateKey(pub.GetString(pem.Ident, "")))
}

func TestStoreRejectsNonKeyBlocks(t *testing.T) {
	s := testStore(t)
	notAKey := pem.NewBlock(pem.NameCipher).Set(pem.Ident, "some-id")
	assert.Error(t, s.AddKey(notAKey))

	noIdent := pem.NewBlock(pem.NamePrivateKey)
	assert.Error(t, s.AddKey(noIdent))
}

func TestStoreConfigRequiresPath(t *testing.T) {
	_, err := NewStore(StoreConfig{})
	assert.Error(t, err)
}

func TestStorePassphrases(t *testing.T) {
	s := testStore(t)
	s.SetPassphrase("id", "pw")
	assert.Equal(t, "pw", s.GetPassphrase("id", nil))
}

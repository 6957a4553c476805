package cryptdoc_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptdoc/cryptdoc"
	"github.com/cryptdoc/cryptdoc/internal/keychain"
	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
)

func newCrypt(t *testing.T) *cryptdoc.Crypt {
	t.Helper()
	return cryptdoc.NewWithDefaults(cryptdoc.Config{
		Logger: slog.Default(),
	})
}

func contentBlock(text string) *pem.Block {
	b := pem.NewBlock(pem.NameContent)
	b.Payload = []byte(text)
	return b
}

// buildEmbeddedDoc builds the canonical nested document: a private key
// block followed by an embedded cipher block whose decrypted payload is
// itself an embedded signature over a content block.
func buildEmbeddedDoc(t *testing.T, crypt *cryptdoc.Crypt, ctx *keychain.Memory, tamper bool) *pem.BlockList {
	t.Helper()

	cipPriv, cipPub, err := crypt.CreateCipherKeys("", provider.KeyOptions{Length: 512})
	require.NoError(t, err)
	sigPriv, sigPub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)
	ctx.AddKey(sigPub)

	content := contentBlock("hello")
	sig, err := crypt.Sign(sigPriv, content.Render(), "")
	require.NoError(t, err)
	sig.SetBool(pem.Embedded, true)

	if tamper {
		content.Payload = []byte("hacked")
	}
	inner := pem.NewBlockList(sig, content)

	cipher, err := crypt.Encrypt(cipPub, inner.Render())
	require.NoError(t, err)
	cipher.SetBool(pem.Embedded, true)

	return pem.NewBlockList(cipPriv, cipher)
}

func TestProcessEmbeddedCipherAndSignature(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()
	list := buildEmbeddedDoc(t, crypt, ctx, false)

	require.NoError(t, crypt.ProcessBlocks(ctx, list))

	// two blocks spliced in after the cipher block
	require.Equal(t, 4, list.Len())
	assert.Equal(t, pem.KindPrivateKey, list.Get(0).Kind())
	assert.Equal(t, pem.KindCipher, list.Get(1).Kind())
	assert.Equal(t, pem.KindSignature, list.Get(2).Kind())
	assert.Equal(t, pem.KindContent, list.Get(3).Kind())

	require.Len(t, ctx.Secrets(), 1)
	require.Len(t, ctx.Validated(), 1)
	assert.Empty(t, ctx.Missing())
}

func TestProcessTamperedEmbeddedSignature(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()
	list := buildEmbeddedDoc(t, crypt, ctx, true)

	err := crypt.ProcessBlocks(ctx, list)
	require.ErrorIs(t, err, cryptdoc.ErrSignatureInvalid)
	assert.Empty(t, ctx.Validated(), "tampered signature must not report foundValidated")
}

func TestProcessSignatureScopeNext(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	sigPriv, sigPub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)
	ctx.AddKey(sigPub)

	covered := contentBlock("hello")
	trailing := contentBlock("world, unsigned")

	sig, err := crypt.Sign(sigPriv, covered.Render(), "")
	require.NoError(t, err)
	sig.Set(pem.Embedded, pem.EmbeddedNext)

	list := pem.NewBlockList(sig, covered, trailing)
	require.NoError(t, crypt.ProcessBlocks(ctx, list))
	assert.Len(t, ctx.Validated(), 1)
}

func TestProcessSignatureScopeNextMissingBlock(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	sigPriv, sigPub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)
	ctx.AddKey(sigPub)

	sig, err := crypt.Sign(sigPriv, "anything", "")
	require.NoError(t, err)
	sig.Set(pem.Embedded, pem.EmbeddedNext)

	err = crypt.ProcessBlocks(ctx, pem.NewBlockList(sig))
	assert.Error(t, err)
}

func TestProcessCipherKeyNotFound(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	// no key reference resolves: not fatal, reported exactly once
	cipher := pem.NewBlock(pem.NameCipher).
		Set(pem.Method, "RSA-GO").
		Set(pem.PubID, "00000000-0000-0000-0000-000000000000")
	cipher.Payload = []byte{1, 2, 3}

	list := pem.NewBlockList(cipher, contentBlock("still interpreted"))
	require.NoError(t, crypt.ProcessBlocks(ctx, list))
	assert.Len(t, ctx.Missing(), 1)
	assert.Empty(t, ctx.Secrets())
}

func TestProcessEmbeddedCipherKeyNotFoundIsFatal(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	cipher := pem.NewBlock(pem.NameCipher).
		Set(pem.Method, "RSA-GO").
		Set(pem.PubID, "00000000-0000-0000-0000-000000000000")
	cipher.SetBool(pem.Embedded, true)
	cipher.Payload = []byte{1, 2, 3}

	err := crypt.ProcessBlocks(ctx, pem.NewBlockList(cipher))
	require.ErrorIs(t, err, cryptdoc.ErrNotDecrypted)
	assert.Len(t, ctx.Missing(), 1)
}

func TestProcessSymmetricCipherWithoutKeyID(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	cipher := pem.NewBlock(pem.NameCipher).Set(pem.Method, "RSA-GO")
	cipher.SetBool(pem.Symmetric, true)
	cipher.Payload = []byte{1, 2, 3}

	require.NoError(t, crypt.ProcessBlocks(ctx, pem.NewBlockList(cipher)))
	assert.Len(t, ctx.Missing(), 1)
}

func TestProcessBlockSignatureResolvesKeyOnly(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	sigPriv, sigPub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)
	ctx.AddKey(sigPub)

	sig, err := crypt.Sign(sigPriv, "top-level text", "")
	require.NoError(t, err)

	// no embedding flag: the walk resolves the key but never validates
	res, err := crypt.ProcessBlock(ctx, sig)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, sigPub, res.Key)

	require.NoError(t, crypt.ProcessBlocks(ctx, pem.NewBlockList(sig)))
	assert.Empty(t, ctx.Validated())
}

func TestProcessSignatureKeyViaPrivateID(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	sigPriv, sigPub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)
	ctx.AddKey(sigPriv)
	ctx.AddKey(sigPub)

	sig, err := crypt.Sign(sigPriv, "text", "")
	require.NoError(t, err)
	// force resolution through the PrivId -> id mapping fallback
	delete(sig.Properties, pem.PubID)

	res, err := crypt.ProcessBlock(ctx, sig)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Same(t, sigPub, res.Key)
}

func TestProcessKeyAndHashNotifications(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	priv, pub, err := crypt.CreateSignKeys("", provider.KeyOptions{})
	require.NoError(t, err)
	hash := pem.NewBlock(pem.NameHash).Set(pem.Method, "SHA-256")
	hash.Payload = []byte{0xde, 0xad}

	list := pem.NewBlockList(priv, pub, hash, contentBlock("x"))
	require.NoError(t, crypt.ProcessBlocks(ctx, list))

	assert.NotNil(t, ctx.GetPrivateKey(priv.GetString(pem.Ident, "")))
	assert.NotNil(t, ctx.GetPublicKey(pub.GetString(pem.Ident, "")))
	assert.Len(t, ctx.Hashes(), 1)
}

func TestProcessUnknownBlockIsNotFatal(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()

	unknown := pem.NewBlock("SOMETHING ELSE")
	require.NoError(t, crypt.ProcessBlocks(ctx, pem.NewBlockList(unknown)))
}

// The full pipeline over the textual codec: render the nested document,
// parse it back and interpret it.
func TestProcessParsedDocument(t *testing.T) {
	crypt := newCrypt(t)
	ctx := keychain.NewMemory()
	list := buildEmbeddedDoc(t, crypt, ctx, false)

	parsed, err := pem.Parse(list.Render())
	require.NoError(t, err)

	require.NoError(t, crypt.ProcessBlocks(ctx, parsed))
	assert.Equal(t, 4, parsed.Len())
	assert.Len(t, ctx.Validated(), 1)
	assert.Equal(t, "hello\n", ctx.Secrets()[0].String()[len(ctx.Secrets()[0].String())-6:])
}

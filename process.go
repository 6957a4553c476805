package cryptdoc

import (
	"fmt"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
	"github.com/cryptdoc/cryptdoc/pkg/secret"
)

// Outcome is the result of processing a single block. At most one field
// is set: Secret for decrypted cipher blocks, Key for resolved signature
// keys and for key blocks themselves.
type Outcome struct {
	Secret *secret.Text
	Key    *pem.Block
}

// ProcessBlocks walks the list once, processing exactly one block per
// step and advancing the index by exactly one after each step — also
// after a splice, so inserted blocks are visited later, never skipped or
// reprocessed. Missing keys are reported to the context and skipped;
// cryptographic and signature failures abort the walk.
//
// The list is exclusively owned by this call; no other goroutine may
// mutate it while the walk runs.
func (c *Crypt) ProcessBlocks(ctx provider.Context, list *pem.BlockList) error {
	for index := 0; index < list.Len(); index++ {
		block := list.Get(index)
		c.log.Debug("process block", "index", index, "kind", block.Kind().String())

		res, err := c.ProcessBlock(ctx, block)
		if err != nil {
			return err
		}

		switch {
		case block.Kind() == pem.KindCipher && block.GetBool(pem.Embedded, false):
			// the decrypted secret is itself a document: splice it in
			// right after this block for continued interpretation
			if res == nil || res.Secret == nil {
				return blockErr(ErrNotDecrypted, block)
			}
			insert, err := pem.Parse(res.Secret.String())
			if err != nil {
				return fmt.Errorf("cryptdoc: parse embedded document: %w", err)
			}
			c.log.Debug("splice embedded document", "index", index, "blocks", insert.Len())
			list.InsertAfter(index, insert)

		case block.Kind() == pem.KindSignature && block.GetBool(pem.Embedded, false):
			// covered text is everything strictly after this block
			if err := c.validateEmbedded(ctx, list, block, res, index+1, list.Len()); err != nil {
				return err
			}

		case block.Kind() == pem.KindSignature && block.GetString(pem.Embedded, "") == pem.EmbeddedNext:
			// covered text is only the next block
			if index+1 >= list.Len() {
				return fmt.Errorf("cryptdoc: no next block to validate (index %d)", index)
			}
			if err := c.validateEmbedded(ctx, list, block, res, index+1, index+2); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Crypt) validateEmbedded(ctx provider.Context, list *pem.BlockList, block *pem.Block, res *Outcome, from, to int) error {
	if res == nil || res.Key == nil {
		return fmt.Errorf("cryptdoc: sign key not found (index range %d..%d)", from, to)
	}
	s, err := c.Signer(block.GetString(pem.Method, ""))
	if err != nil {
		return err
	}
	text := list.RenderRange(from, to)
	valid, err := s.Validate(res.Key, text, block)
	if err != nil {
		return fmt.Errorf("cryptdoc: validate: %w", err)
	}
	if !valid {
		return blockErr(ErrSignatureInvalid, block)
	}
	ctx.FoundValidated(block)
	return nil
}

// ProcessBlock dispatches a single block by kind. Unresolvable keys are
// reported via ctx.ErrorKeyNotFound and yield a nil outcome; only
// provider-level failures return an error.
func (c *Crypt) ProcessBlock(ctx provider.Context, block *pem.Block) (*Outcome, error) {
	switch block.Kind() {
	case pem.KindCipher:
		return c.processCipher(ctx, block)
	case pem.KindSignature:
		return c.processSignature(ctx, block)
	case pem.KindPublicKey:
		ctx.FoundPublicKey(block)
		return &Outcome{Key: block}, nil
	case pem.KindPrivateKey:
		ctx.FoundPrivateKey(block)
		return &Outcome{Key: block}, nil
	case pem.KindHash:
		ctx.FoundHash(block)
		return nil, nil
	case pem.KindContent:
		return nil, nil
	default:
		c.log.Warn("unknown block type", "name", block.Name)
		return nil, nil
	}
}

// processCipher resolves the decryption key and drives the named cipher.
// Symmetric blocks resolve over KeyId; asymmetric ones over PrivId with a
// PubId fallback through the context's id mapping.
func (c *Crypt) processCipher(ctx provider.Context, block *pem.Block) (*Outcome, error) {
	symmetric := block.GetBool(pem.Symmetric, block.Has(pem.KeyID))

	var keyID string
	if symmetric {
		keyID = block.GetString(pem.KeyID, "")
		if keyID == "" {
			c.log.Debug("cipher block without key id")
			ctx.ErrorKeyNotFound(block)
			return nil, nil
		}
	} else {
		keyID = block.GetString(pem.PrivID, "")
		if keyID == "" {
			pubID := block.GetString(pem.PubID, "")
			if pubID == "" {
				c.log.Debug("cipher block without key reference")
				ctx.ErrorKeyNotFound(block)
				return nil, nil
			}
			keyID = ctx.GetPrivateIDForPublicID(pubID)
			if keyID == "" {
				c.log.Debug("no private key for public key", "pubId", pubID)
				ctx.ErrorKeyNotFound(block)
				return nil, nil
			}
		}
	}

	key := ctx.GetPrivateKey(keyID)
	if key == nil {
		c.log.Debug("private key not found", "keyId", keyID)
		ctx.ErrorKeyNotFound(block)
		return nil, nil
	}

	cp, err := c.Cipher(block.GetString(pem.Method, ""))
	if err != nil {
		return nil, err
	}
	decoded, err := cp.Decrypt(key, block, ctx.GetPassphrase(keyID, block))
	if err != nil {
		return nil, blockErr(fmt.Errorf("cryptdoc: decrypt: %w", err), block)
	}
	sec := secret.New(decoded)
	ctx.FoundSecret(block, sec)
	return &Outcome{Secret: sec}, nil
}

// processSignature resolves and returns the public key only. There is no
// content to validate at this point; embedded scopes are validated by
// ProcessBlocks, top-level signatures through the explicit Validate
// entry point.
func (c *Crypt) processSignature(ctx provider.Context, block *pem.Block) (*Outcome, error) {
	keyID := block.GetString(pem.PubID, "")
	if keyID == "" {
		privID := block.GetString(pem.PrivID, "")
		if privID == "" {
			c.log.Debug("signature block without key reference")
			ctx.ErrorKeyNotFound(block)
			return nil, nil
		}
		keyID = ctx.GetPrivateIDForPublicID(privID)
		if keyID == "" {
			c.log.Debug("no public key for private key", "privId", privID)
			ctx.ErrorKeyNotFound(block)
			return nil, nil
		}
	}

	key := ctx.GetPublicKey(keyID)
	if key == nil {
		c.log.Debug("public key not found", "keyId", keyID)
		ctx.ErrorKeyNotFound(block)
		return nil, nil
	}
	return &Outcome{Key: key}, nil
}

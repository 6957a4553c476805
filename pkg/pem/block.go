// Package pem implements the data model and textual codec for composite
// crypt documents: an ordered list of typed blocks carrying key material,
// ciphertext, signatures, hashes, or plain content.
package pem

import (
	"sort"
	"strconv"
	"strings"
)

// Block names as they appear in the textual serialization.
const (
	NameCipher     = "CIPHER"
	NamePrivateKey = "PRIVATE KEY"
	NamePublicKey  = "PUBLIC KEY"
	NameSignature  = "SIGNATURE"
	NameHash       = "HASH"
	NameContent    = "CONTENT"
)

// Property keys understood by the interpreter and the providers.
const (
	Method         = "Method"
	Length         = "Length"
	Embedded       = "Embedded"
	Symmetric      = "Symmetric"
	KeyID          = "KeyId"
	PrivID         = "PrivId"
	PubID          = "PubId"
	Ident          = "Ident"
	Format         = "Format"
	Encrypted      = "Encrypted"
	StringEncoding = "StringEncoding"
	Created        = "Created"
)

// EmbeddedNext is the Embedded property value that scopes a signature to
// the immediately following block instead of the whole remainder.
const EmbeddedNext = "next"

// EncBlowfish marks private key material that was pre-encrypted with a
// passphrase-derived blowfish cipher before being wrapped in a block.
const EncBlowfish = "blowfish"

// Kind classifies a block by its declared structure. There is no separate
// stored tag; the kind is always derived from the block itself, so it can
// never desynchronize from the serialized form.
type Kind int

const (
	KindUnknown Kind = iota
	KindPublicKey
	KindPrivateKey
	KindCipher
	KindSignature
	KindHash
	KindContent
)

// String returns the textual kind name.
func (k Kind) String() string {
	switch k {
	case KindPublicKey:
		return "public-key"
	case KindPrivateKey:
		return "private-key"
	case KindCipher:
		return "cipher"
	case KindSignature:
		return "signature"
	case KindHash:
		return "hash"
	case KindContent:
		return "content"
	default:
		return "unknown"
	}
}

// Block is a single document unit: a name, a string property bag, and an
// optional raw payload (ciphertext, key material, or signature bytes).
// Content blocks carry only raw text in Payload and render without a
// BEGIN/END frame.
type Block struct {
	// Name is the declared block name, e.g. "CIPHER" or "PUBLIC KEY".
	Name string

	// Properties holds the declared key/value pairs. Values are stored
	// textually; use the typed getters for ints, bools and ids.
	Properties map[string]string

	// Payload is the raw byte content. May be nil for content-free blocks.
	Payload []byte
}

// NewBlock creates an empty block with the given name.
func NewBlock(name string) *Block {
	return &Block{
		Name:       name,
		Properties: map[string]string{},
	}
}

// Kind derives the block kind from its declared name.
func (b *Block) Kind() Kind {
	switch b.Name {
	case NamePublicKey:
		return KindPublicKey
	case NamePrivateKey:
		return KindPrivateKey
	case NameCipher:
		return KindCipher
	case NameSignature:
		return KindSignature
	case NameHash:
		return KindHash
	case NameContent:
		return KindContent
	default:
		return KindUnknown
	}
}

// Set stores a property value in its textual form and returns the block
// for chaining.
func (b *Block) Set(key, value string) *Block {
	if b.Properties == nil {
		b.Properties = map[string]string{}
	}
	b.Properties[key] = value
	return b
}

// SetInt stores an integer property.
func (b *Block) SetInt(key string, value int) *Block {
	return b.Set(key, strconv.Itoa(value))
}

// SetBool stores a boolean property.
func (b *Block) SetBool(key string, value bool) *Block {
	return b.Set(key, strconv.FormatBool(value))
}

// Has reports whether the property is declared on the block.
func (b *Block) Has(key string) bool {
	_, ok := b.Properties[key]
	return ok
}

// GetString returns the property value or def when absent.
func (b *Block) GetString(key, def string) string {
	if v, ok := b.Properties[key]; ok {
		return v
	}
	return def
}

// GetInt returns the property parsed as an integer or def when absent or
// malformed.
func (b *Block) GetInt(key string, def int) int {
	v, ok := b.Properties[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// GetBool returns the property parsed as a boolean or def when absent or
// not a boolean. The literal "next" is not a boolean and yields def.
func (b *Block) GetBool(key string, def bool) bool {
	v, ok := b.Properties[key]
	if !ok {
		return def
	}
	p, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return p
}

// propertyKeys returns the declared property keys in stable order, so a
// block always renders the same way. Signature verification depends on
// this.
func (b *Block) propertyKeys() []string {
	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	c := &Block{
		Name:       b.Name,
		Properties: make(map[string]string, len(b.Properties)),
	}
	for k, v := range b.Properties {
		c.Properties[k] = v
	}
	if b.Payload != nil {
		c.Payload = append([]byte(nil), b.Payload...)
	}
	return c
}

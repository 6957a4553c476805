// Package secret holds decrypted plaintext in a short-lived, explicitly
// scoped container. The owner must call Scrub as soon as the value is no
// longer needed so the cleartext does not linger in working memory.
// Scrubbing is best effort in a garbage-collected runtime; copies made by
// String escape it.
package secret

// Text wraps decrypted plaintext bytes.
type Text struct {
	data []byte
}

// New wraps the given plaintext. The Text takes ownership of its own
// copy; the caller should discard s.
func New(s string) *Text {
	return &Text{data: []byte(s)}
}

// FromBytes wraps the given plaintext bytes without copying. The caller
// hands over ownership.
func FromBytes(b []byte) *Text {
	return &Text{data: b}
}

// String returns the plaintext. The returned string is a copy outside
// the scrubbed buffer.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return string(t.data)
}

// Bytes returns the underlying buffer. It becomes invalid after Scrub.
func (t *Text) Bytes() []byte {
	if t == nil {
		return nil
	}
	return t.data
}

// Len returns the plaintext length in bytes.
func (t *Text) Len() int {
	if t == nil {
		return 0
	}
	return len(t.data)
}

// Scrub overwrites the plaintext buffer with zeros and releases it.
// Safe to call more than once.
func (t *Text) Scrub() {
	if t == nil {
		return
	}
	for i := range t.data {
		t.data[i] = 0
	}
	t.data = nil
}

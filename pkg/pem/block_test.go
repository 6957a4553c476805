package pem

import "testing"

func TestBlockKind(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{NameCipher, KindCipher},
		{NamePrivateKey, KindPrivateKey},
		{NamePublicKey, KindPublicKey},
		{NameSignature, KindSignature},
		{NameHash, KindHash},
		{NameContent, KindContent},
		{"SOMETHING ELSE", KindUnknown},
	}
	for _, c := range cases {
		if got := NewBlock(c.name).Kind(); got != c.want {
			t.Errorf("Kind(%q) = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestBlockTypedGetters(t *testing.T) {
	b := NewBlock(NameCipher)
	b.SetInt(Length, 1024)
	b.SetBool(Symmetric, true)
	b.Set(Embedded, EmbeddedNext)

	if got := b.GetInt(Length, 0); got != 1024 {
		t.Errorf("GetInt = %d, want 1024", got)
	}
	if !b.GetBool(Symmetric, false) {
		t.Error("GetBool(Symmetric) = false, want true")
	}
	// "next" is not a boolean and must fall back to the default
	if b.GetBool(Embedded, false) {
		t.Error(`GetBool(Embedded) with value "next" = true, want false`)
	}
	if got := b.GetString(Embedded, ""); got != EmbeddedNext {
		t.Errorf("GetString(Embedded) = %q, want %q", got, EmbeddedNext)
	}
	if got := b.GetInt(Method, 42); got != 42 {
		t.Errorf("GetInt default = %d, want 42", got)
	}
	if b.Has(KeyID) {
		t.Error("Has(KeyId) = true for undeclared property")
	}
}

func TestBlockRenderStableOrder(t *testing.T) {
	b := NewBlock(NameSignature)
	b.Set(Method, "RSA-GO")
	b.Set(PubID, "abc")
	b.SetInt(Length, 1024)
	b.Payload = []byte{1, 2, 3}

	first := b.Render()
	for i := 0; i < 10; i++ {
		if got := b.Render(); got != first {
			t.Fatal("Render is not deterministic")
		}
	}
}

func TestBlockClone(t *testing.T) {
	b := NewBlock(NameCipher)
	b.Set(Method, "RSA-GO")
	b.Payload = []byte("payload")

	c := b.Clone()
	c.Set(Method, "OTHER")
	c.Payload[0] = 'X'

	if b.GetString(Method, "") != "RSA-GO" {
		t.Error("Clone shares the property map")
	}
	if b.Payload[0] != 'p' {
		t.Error("Clone shares the payload")
	}
}

package codes

import (
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func TestGeneratorToken(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	a, err := g.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	b, _ := g.Token()
	if a == b {
		t.Error("expected distinct tokens")
	}
	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil || len(raw) != DefaultTokenByteLength {
		t.Errorf("token %q is not %d url-safe bytes", a, DefaultTokenByteLength)
	}
}

func TestGeneratorHexFallback(t *testing.T) {
	g := NewGenerator(Config{TokenByteLength: 8})
	tok, err := g.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if raw, err := hex.DecodeString(tok); err != nil || len(raw) != 8 {
		t.Errorf("unexpected hex token %q", tok)
	}
}

func TestInvalidLength(t *testing.T) {
	if _, err := GenerateSecureToken(0); err != ErrInvalidLength {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := GenerateURLSafeToken(-1); err != ErrInvalidLength {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
}

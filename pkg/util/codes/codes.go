package codes

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidLength = errors.New("invalid code length")

// DefaultTokenByteLength produces 22 base64 characters.
const DefaultTokenByteLength = 16

// Generator issues opaque tokens (newsletter unsubscribe links).
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	if cfg.TokenByteLength <= 0 {
		cfg.TokenByteLength = DefaultTokenByteLength
	}
	return &Generator{cfg: cfg}
}

// Token returns a fresh token in the configured encoding.
func (g *Generator) Token() (string, error) {
	if g.cfg.URLSafeTokens {
		return GenerateURLSafeToken(g.cfg.TokenByteLength)
	}
	return GenerateSecureToken(g.cfg.TokenByteLength)
}

// GenerateSecureToken creates a cryptographically secure hex token.
// byteLength specifies the number of random bytes (output will be 2x this length in hex).
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// GenerateURLSafeToken creates a URL-safe base64-encoded token.
// byteLength specifies the number of random bytes.
func GenerateURLSafeToken(byteLength int) (string, error) {
	if byteLength < 1 {
		return "", ErrInvalidLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

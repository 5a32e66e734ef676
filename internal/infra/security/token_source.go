package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSource generates opaque, URL-safe random tokens for single-use flows.
type TokenSource struct {
	bytes int
}

func NewTokenSource(bytes int) *TokenSource {
	if bytes < 16 {
		bytes = 32
	}
	return &TokenSource{bytes: bytes}
}

func (s *TokenSource) Generate() (string, error) {
	b := make([]byte, s.bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

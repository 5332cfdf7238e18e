package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const _defaultSize = 32

// Generator issues verification tokens: random bytes, base64url without
// padding.
type Generator struct {
	size int
}

func New() Generator {
	return Generator{size: _defaultSize}
}

func (g Generator) NewToken() (string, error) {
	b := make([]byte, g.size)

	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("token - NewToken - rand.Read: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

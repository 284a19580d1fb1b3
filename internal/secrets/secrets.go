// Package secrets encrypts stored provider API keys at rest and produces the
// masked placeholders that are the only key form allowed in client state.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rankforge/rankforge/internal/types"
)

// MaskPlaceholder is the sentinel the settings form round-trips when the user
// leaves a stored key untouched. It must never be encrypted and stored.
const MaskPlaceholder = "••••••••"

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Cipher encrypts and decrypts API keys with AES-256-GCM under a
// server-held secret.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit key from the configured secret.
// The secret is env-only and never persisted.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals a plaintext key. Output is base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(enc string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	return string(plain), nil
}

// Mask produces the display placeholder for a stored key: first 3 and last 4
// characters with the middle elided. Short keys mask entirely.
func Mask(plain string) types.MaskedKey {
	if plain == "" {
		return ""
	}
	if len(plain) <= 8 {
		return types.MaskedKey(MaskPlaceholder)
	}
	return types.MaskedKey(plain[:3] + "••••" + plain[len(plain)-4:])
}

// IsPlaceholder reports whether the submitted value is a masked echo rather
// than a new plaintext key. Masked values must never be re-encrypted.
func IsPlaceholder(value string) bool {
	return value == MaskPlaceholder || strings.Contains(value, "••••")
}

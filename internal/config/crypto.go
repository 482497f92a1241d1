package config

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// cipherBox wraps the store's symmetric key. Secrets are sealed with
// chacha20poly1305, nonce prepended, and base64-encoded for the JSON file.
type cipherBox struct {
	aead cipher.AEAD
}

func newCipherBox(key []byte) (*cipherBox, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	return &cipherBox{aead: aead}, nil
}

// loadOrCreateKey reads the raw key file, generating it exactly once on
// first run. The key never leaves this file.
func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil && len(key) == chacha20poly1305.KeySize {
		return key, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return key, nil
}

func (b *cipherBox) encrypt(plaintext string) string {
	if plaintext == "" {
		return ""
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return ""
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed)
}

// decrypt returns the plaintext and whether decryption succeeded. Callers
// that want the lenient "no secret configured" behavior fold ok=false to "".
func (b *cipherBox) decrypt(encoded string) (string, bool) {
	if encoded == "" {
		return "", true
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	if len(sealed) < b.aead.NonceSize() {
		return "", false
	}

	nonce, ciphertext := sealed[:b.aead.NonceSize()], sealed[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}

package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// sealedPrefix marks values produced by AESCipher. Values without it are
// treated as plaintext written while encryption was disabled.
const sealedPrefix = "enc:v1:"

var ErrCiphertextTooShort = errors.New("phi decrypt: ciphertext too short")

// FieldCipher encrypts and decrypts single string fields.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AESCipher is AES-256-GCM with a random nonce prepended to each ciphertext.
type AESCipher struct {
	aead cipher.AEAD
}

func NewAESCipher(key []byte) (*AESCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("phi cipher: key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("phi cipher: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi cipher: create GCM: %w", err)
	}

	return &AESCipher{aead: aead}, nil
}

// Encrypt returns sealedPrefix followed by base64(nonce || ciphertext).
func (c *AESCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi encrypt: generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESCipher) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("phi decrypt: base64 decode: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: %w", err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether v was produced by AESCipher.Encrypt.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}

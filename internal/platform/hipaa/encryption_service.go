package hipaa

import (
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"
)

// FieldEncryptor protects patient billing fields at rest. With no key it
// passes values through unchanged.
type FieldEncryptor struct {
	cipher FieldCipher
}

// NewFieldEncryptor builds an encryptor from a 64-character hex key. An empty
// key disables encryption; a malformed key is an error so the server refuses
// to start misconfigured.
func NewFieldEncryptor(hexKey string, logger zerolog.Logger) (*FieldEncryptor, error) {
	if hexKey == "" {
		logger.Warn().Msg("PHI encryption disabled: HIPAA_ENCRYPTION_KEY is not set")
		return &FieldEncryptor{}, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("HIPAA_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("HIPAA_ENCRYPTION_KEY must be %d bytes (64 hex chars), got %d bytes", KeySize, len(key))
	}

	c, err := NewAESCipher(key)
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("PHI field-level encryption enabled")
	return &FieldEncryptor{cipher: c}, nil
}

// Disabled returns a pass-through encryptor.
func Disabled() *FieldEncryptor {
	return &FieldEncryptor{}
}

func (e *FieldEncryptor) Enabled() bool {
	return e != nil && e.cipher != nil
}

// Seal encrypts value when enabled. Empty values stay empty.
func (e *FieldEncryptor) Seal(value string) (string, error) {
	if !e.Enabled() || value == "" {
		return value, nil
	}
	return e.cipher.Encrypt(value)
}

// Open decrypts value if it was sealed. Plaintext stored before encryption
// was enabled is returned as is.
func (e *FieldEncryptor) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if !e.Enabled() {
		return "", fmt.Errorf("phi decrypt: value is encrypted but no key is configured")
	}
	return e.cipher.Decrypt(value)
}

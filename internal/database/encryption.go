package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"chatvault/internal/constants"
)

const (
	aesKeyLen        = 32 // AES-256
	gcmNonceLen      = 12
	pbkdf2Iterations = 100000
	minSecretLen     = 32
)

// encryptor applies optional AES-GCM encryption to message text before it
// reaches SQLite. When CHATVAULT_ENABLE_ENCRYPTION is not "true" it passes
// values through unchanged, so every caller goes through the same two methods.
type encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor() (*encryptor, error) {
	if os.Getenv("CHATVAULT_ENABLE_ENCRYPTION") != "true" {
		return &encryptor{}, nil
	}

	secret := os.Getenv("CHATVAULT_ENCRYPTION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("CHATVAULT_ENCRYPTION_SECRET environment variable is required when encryption is enabled")
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("encryption secret must be at least %d characters long", minSecretLen)
	}

	key := pbkdf2.Key([]byte(secret), []byte(constants.EncryptionSalt), pbkdf2Iterations, aesKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &encryptor{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh nonce and returns base64(nonce||ciphertext).
// Pass-through when encryption is disabled or the value is empty.
func (e *encryptor) Encrypt(plaintext string) (string, error) {
	if e.aead == nil || plaintext == "" {
		return plaintext, nil
	}

	buf := make([]byte, gcmNonceLen, gcmNonceLen+len(plaintext)+e.aead.Overhead())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(buf, buf[:gcmNonceLen], []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Pass-through when encryption is disabled.
func (e *encryptor) Decrypt(stored string) (string, error) {
	if e.aead == nil || stored == "" {
		return stored, nil
	}

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}
	if len(data) < gcmNonceLen {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := e.aead.Open(nil, data[:gcmNonceLen], data[gcmNonceLen:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

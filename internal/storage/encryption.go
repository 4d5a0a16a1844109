package storage

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption seals secrets (custom model API keys) with XChaCha20-Poly1305.
type Encryption struct {
	key []byte
}

// NewEncryption creates a new encryption service. The key must be 32 bytes.
func NewEncryption(key []byte) (*Encryption, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size: must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	return &Encryption{key: key}, nil
}

// NewEncryptionFromHex creates a new encryption service from a hex-encoded key
func NewEncryptionFromHex(encodedKey string) (*Encryption, error) {
	if encodedKey == "" {
		return nil, fmt.Errorf("encryption key cannot be empty")
	}

	key, err := hex.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be valid hex: %w", err)
	}

	return NewEncryption(key)
}

// GenerateKey returns a new random key, hex-encoded for use in environment variables
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Encrypt seals plaintext and returns nonce||ciphertext as base64.
// Empty input encrypts to the empty string.
func (e *Encryption) Encrypt(plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt
func (e *Encryption) Decrypt(ciphertextBase64 string) ([]byte, error) {
	if ciphertextBase64 == "" {
		return nil, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertextBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

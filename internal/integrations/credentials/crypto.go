package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"prospecting_backend/internal/integrations/external"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// Cipher encrypts credentials with AES-256-GCM under a per-tenant key derived from the master key.
// The master key lives in a memguard enclave and is only decrypted while deriving.
type Cipher struct {
	master *memguard.Enclave
}

// NewCipher copies masterKey into an enclave; the caller keeps ownership of its slice.
func NewCipher(masterKey []byte) (*Cipher, error) {
	if len(masterKey) != keySize {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	buf := make([]byte, keySize)
	copy(buf, masterKey)
	return &Cipher{master: memguard.NewEnclave(buf)}, nil
}

// Encrypt returns hex(nonce || ciphertext). The service name is bound as additional data,
// so a ciphertext copied to another service row fails to decrypt.
func (c *Cipher) Encrypt(tenantID uuid.UUID, service external.ServiceName, plaintext string) (string, error) {
	aead, err := c.aead(tenantID)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(service))
	return hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt for the same tenant and service.
func (c *Cipher) Decrypt(tenantID uuid.UUID, service external.ServiceName, encrypted string) (string, error) {
	data, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("hex decode: %w", err)
	}

	aead, err := c.aead(tenantID)
	if err != nil {
		return "", err
	}

	nonceSize := aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(service))
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(tenantID uuid.UUID) (cipher.AEAD, error) {
	key, err := c.deriveKey(tenantID)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return aead, nil
}

func (c *Cipher) deriveKey(tenantID uuid.UUID) ([]byte, error) {
	master, err := c.master.Open()
	if err != nil {
		return nil, fmt.Errorf("open master key: %w", err)
	}
	defer master.Destroy()

	key := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, master.Bytes(), nil, []byte("integration-credential:"+tenantID.String()))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive tenant key: %w", err)
	}
	return key, nil
}

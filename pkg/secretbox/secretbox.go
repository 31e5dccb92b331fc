// Package secretbox provides reversible encryption for credentials stored in
// the settings row. The key is derived from a process-wide secret, so
// ciphertexts survive restarts but not key rotation.
package secretbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrKeyRequired = errors.New("secretbox: key material is required")
	ErrMalformed   = errors.New("secretbox: malformed ciphertext")
	ErrDecrypt     = errors.New("secretbox: decryption failed")
)

// Box seals and opens short credential strings.
type Box struct {
	key [32]byte
}

// New derives the sealing key from the given secret via SHA-256.
func New(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrKeyRequired
	}
	b := &Box{key: sha256.Sum256([]byte(secret))}
	return b, nil
}

// Encrypt seals plaintext. The empty string is passed through unchanged:
// "empty value" and "no value" (nil pointer, see EncryptPtr) are distinct
// states and both must round-trip as-is.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("secretbox: reading nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. The empty string passes through.
func (b *Box) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformed
	}
	if len(raw) <= nonceSize {
		return "", ErrMalformed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	opened, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(opened), nil
}

// EncryptPtr preserves nil (no value) versus empty (explicitly blank).
func (b *Box) EncryptPtr(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := b.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptPtr preserves nil versus empty, mirroring EncryptPtr.
func (b *Box) DecryptPtr(ciphertext *string) (*string, error) {
	if ciphertext == nil {
		return nil, nil
	}
	out, err := b.Decrypt(*ciphertext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

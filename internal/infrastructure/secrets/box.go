// Package secrets seals provider API keys before they land in the persisted
// document. The document is a plain local JSON file; sealing keeps casual
// inspection and backups from leaking keys. The sealing key lives in a
// separate file the host owns.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24

	// sealedPrefix marks sealed values so plaintext keys from older
	// documents still pass through Unseal unchanged.
	sealedPrefix = "sealed:"
)

// Box seals and unseals short secrets with a symmetric key.
type Box struct {
	key [keySize]byte
}

// Open loads the sealing key from the given file, generating one on first
// use. The key file is created with 0600 permissions.
func Open(path string) (*Box, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != keySize {
			return nil, fmt.Errorf("sealing key file %s: expected %d bytes, got %d", path, keySize, len(data))
		}
		b := &Box{}
		copy(b.key[:], data)
		return b, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read sealing key: %w", err)
	}

	b := &Box{}
	if _, err := rand.Read(b.key[:]); err != nil {
		return nil, fmt.Errorf("generate sealing key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, b.key[:], 0o600); err != nil {
		return nil, fmt.Errorf("write sealing key: %w", err)
	}
	return b, nil
}

// Seal encrypts a plaintext secret. Empty input stays empty.
func (b *Box) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Unseal decrypts a sealed value. Values without the sealed prefix are
// returned as-is (documents written before sealing existed).
func (b *Box) Unseal(value string) (string, error) {
	if value == "" || !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	if len(raw) < nonceSize {
		return "", errors.New("sealed value too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", errors.New("sealed value failed authentication")
	}
	return string(plaintext), nil
}

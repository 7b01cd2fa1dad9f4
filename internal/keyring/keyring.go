// Package keyring keeps vault master keys in the OS keyring.
package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "pwvault"

// ErrNotFound is returned when no master key is stored for a vault
var ErrNotFound = errors.New("master key not found in keyring")

// SaveKey stores a master key in the OS keyring
func SaveKey(vaultID string, key []byte) error {
	return keyring.Set(serviceName, vaultID, base64.StdEncoding.EncodeToString(key))
}

// GetKey retrieves a master key from the OS keyring
func GetKey(vaultID string) ([]byte, error) {
	encoded, err := keyring.Get(serviceName, vaultID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupted keyring item: %w", err)
	}
	return key, nil
}

// HasKey checks if a master key is stored in the keyring
func HasKey(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}

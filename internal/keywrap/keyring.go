package keywrap

import (
	"errors"
	"fmt"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/keyring"
	"github.com/illarion/pwvault/internal/storage"
)

// Keyring keeps a random master key in the OS keyring
type Keyring struct {
	m *master
}

// NewKeyring creates a keyring protector
func NewKeyring() *Keyring {
	return &Keyring{}
}

// Scheme implements Protector
func (k *Keyring) Scheme() string { return SchemeKeyring }

// Bind implements Protector
func (k *Keyring) Bind(h *storage.Header) error {
	fresh, err := checkScheme(h, SchemeKeyring)
	if err != nil {
		return err
	}
	if h.VaultID == "" {
		if fresh {
			h.Scheme = ""
		}
		return fmt.Errorf("vault header has no vault ID")
	}

	if fresh {
		key, err := crypto.NewKey()
		if err != nil {
			h.Scheme = ""
			return err
		}
		m := newMaster(key, h.VaultID)
		check, err := m.check()
		if err != nil {
			m.destroy()
			h.Scheme = ""
			return fmt.Errorf("failed to create check value: %w", err)
		}
		if err := keyring.SaveKey(h.VaultID, key); err != nil {
			m.destroy()
			h.Scheme = ""
			return fmt.Errorf("failed to save master key to keyring: %w", err)
		}

		h.Salt = nil
		h.Iterations = 0
		h.Check = check
		k.setMaster(m)
		return nil
	}

	key, err := keyring.GetKey(h.VaultID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrMasterKeyMissing
		}
		return fmt.Errorf("failed to read master key from keyring: %w", err)
	}
	m := newMaster(key, h.VaultID)
	if !m.verify(h.Check) {
		m.destroy()
		return ErrWrongMasterKey
	}
	k.setMaster(m)
	return nil
}

func (k *Keyring) setMaster(m *master) {
	if k.m != nil {
		k.m.destroy()
	}
	k.m = m
}

// Wrap implements Protector
func (k *Keyring) Wrap(label string, key []byte) ([]byte, error) {
	if k.m == nil {
		return nil, ErrNotBound
	}
	return k.m.wrap(label, key)
}

// Unwrap implements Protector
func (k *Keyring) Unwrap(label string, wrapped []byte) ([]byte, error) {
	if k.m == nil {
		return nil, ErrNotBound
	}
	return k.m.unwrap(label, wrapped)
}

// Destroy implements Protector
func (k *Keyring) Destroy() {
	if k.m != nil {
		k.m.destroy()
		k.m = nil
	}
}

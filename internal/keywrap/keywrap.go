package keywrap

import (
	"errors"
	"fmt"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/storage"
)

// Scheme names as recorded in the vault header
const (
	SchemeNone       = "none"
	SchemePassphrase = "passphrase"
	SchemeKeyring    = "keyring"
)

const checkString = "pwvault-master-key-check"

var (
	ErrSchemeMismatch   = errors.New("key protection scheme mismatch")
	ErrWrongPassphrase  = errors.New("wrong passphrase")
	ErrWrongMasterKey   = errors.New("master key does not match vault")
	ErrMasterKeyMissing = errors.New("master key not found in keyring")
	ErrNotBound         = errors.New("protector not bound to a vault")
	ErrUnknownScheme    = errors.New("unknown key protection scheme")
)

// Protector wraps entry keys for storage and unwraps them on load
type Protector interface {
	// Scheme returns the name recorded in the vault header
	Scheme() string
	// Bind attaches the protector to a vault header. A header without a
	// scheme belongs to a vault that has never been saved; Bind fills in the
	// scheme parameters.
	Bind(h *storage.Header) error
	Wrap(label string, key []byte) ([]byte, error)
	Unwrap(label string, wrapped []byte) ([]byte, error)
	// Destroy clears master key material from memory
	Destroy()
}

// Schemes lists the supported scheme names
func Schemes() []string {
	return []string{SchemeKeyring, SchemePassphrase, SchemeNone}
}

// ValidScheme reports whether name is a supported scheme
func ValidScheme(name string) bool {
	for _, s := range Schemes() {
		if s == name {
			return true
		}
	}
	return false
}

func checkScheme(h *storage.Header, scheme string) (fresh bool, err error) {
	if h.Scheme == "" {
		h.Scheme = scheme
		return true, nil
	}
	if h.Scheme != scheme {
		return false, fmt.Errorf("%w: vault uses %q, configured %q", ErrSchemeMismatch, h.Scheme, scheme)
	}
	return false, nil
}

// master seals entry keys under a vault-wide key
type master struct {
	enc     *crypto.Encryptor
	vaultID string
}

func newMaster(key []byte, vaultID string) *master {
	return &master{enc: crypto.NewEncryptor(key), vaultID: vaultID}
}

// check returns the encrypted check value stored in the header
func (m *master) check() ([]byte, error) {
	return m.enc.Encrypt([]byte(checkString), []byte(m.vaultID))
}

// verify reports whether the check value was produced by this master key
func (m *master) verify(check []byte) bool {
	plaintext, err := m.enc.Decrypt(check, []byte(m.vaultID))
	if err != nil {
		return false
	}
	return string(plaintext) == checkString
}

func (m *master) wrap(label string, key []byte) ([]byte, error) {
	return m.enc.Encrypt(key, []byte(label))
}

func (m *master) unwrap(label string, wrapped []byte) ([]byte, error) {
	return m.enc.Decrypt(wrapped, []byte(label))
}

func (m *master) destroy() {
	m.enc.Destroy()
}

// New returns the protector for a scheme. passphrase is only used by the
// passphrase scheme and is requested lazily, so other schemes never prompt.
func New(scheme string, passphrase func() ([]byte, error), opts ...PassphraseOption) (Protector, error) {
	switch scheme {
	case SchemeNone:
		return None{}, nil
	case SchemeKeyring:
		return NewKeyring(), nil
	case SchemePassphrase:
		if passphrase == nil {
			return nil, fmt.Errorf("passphrase scheme requires a passphrase")
		}
		pw, err := passphrase()
		if err != nil {
			return nil, err
		}
		defer crypto.ClearBytes(pw)
		return NewPassphrase(pw, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// None stores entry keys as generated
type None struct{}

// Scheme implements Protector
func (None) Scheme() string { return SchemeNone }

// Bind implements Protector
func (None) Bind(h *storage.Header) error {
	_, err := checkScheme(h, SchemeNone)
	return err
}

// Wrap implements Protector
func (None) Wrap(_ string, key []byte) ([]byte, error) {
	return append([]byte(nil), key...), nil
}

// Unwrap implements Protector
func (None) Unwrap(_ string, wrapped []byte) ([]byte, error) {
	if len(wrapped) != crypto.KeySize {
		return nil, crypto.ErrInvalidKey
	}
	return append([]byte(nil), wrapped...), nil
}

// Destroy implements Protector
func (None) Destroy() {}

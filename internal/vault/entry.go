package vault

import (
	"github.com/illarion/pwvault/internal/crypto"
)

// Entry is one encrypted label/password pair. It owns its key; the
// plaintext password is never kept.
type Entry struct {
	label      string
	key        []byte
	ciphertext []byte
}

// newEntry generates a key for the entry and encrypts password under it
func newEntry(label, password string) (*Entry, error) {
	e := &Entry{label: label}
	if err := e.Replace(password); err != nil {
		return nil, err
	}
	return e, nil
}

// Label returns the entry label
func (e *Entry) Label() string {
	return e.label
}

// Reveal decrypts and returns the password
func (e *Entry) Reveal() (string, error) {
	plaintext, err := crypto.NewEncryptor(e.key).Decrypt(e.ciphertext, []byte(e.label))
	if err != nil {
		return "", &EntryError{Label: e.label, Err: ErrDecryptionFailed}
	}
	defer crypto.ClearBytes(plaintext)
	return string(plaintext), nil
}

// Replace encrypts password under a fresh key and discards the old
// key and ciphertext.
func (e *Entry) Replace(password string) error {
	key, err := crypto.NewKey()
	if err != nil {
		return err
	}

	plaintext := []byte(password)
	defer crypto.ClearBytes(plaintext)

	ciphertext, err := crypto.NewEncryptor(key).Encrypt(plaintext, []byte(e.label))
	if err != nil {
		crypto.ClearBytes(key)
		return err
	}

	e.destroy()
	e.key = key
	e.ciphertext = ciphertext
	return nil
}

// destroy zeroes the key so the entry can no longer be decrypted
func (e *Entry) destroy() {
	crypto.ClearBytes(e.key)
	e.key = nil
	e.ciphertext = nil
}

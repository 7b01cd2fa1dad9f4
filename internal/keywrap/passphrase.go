package keywrap

import (
	"fmt"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/storage"
)

// Passphrase derives the master key from an operator passphrase
type Passphrase struct {
	passphrase []byte
	iterations int
	m          *master
}

// PassphraseOption configures a Passphrase protector
type PassphraseOption func(*Passphrase)

// WithIterations sets the PBKDF2 iteration count for new vaults.
// Existing vaults keep the count recorded in their header.
func WithIterations(n int) PassphraseOption {
	return func(p *Passphrase) {
		if n > 0 {
			p.iterations = n
		}
	}
}

// NewPassphrase creates a passphrase protector. The passphrase is copied;
// the caller may clear its own slice.
func NewPassphrase(passphrase []byte, opts ...PassphraseOption) *Passphrase {
	p := &Passphrase{
		passphrase: append([]byte(nil), passphrase...),
		iterations: crypto.DefaultIters,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scheme implements Protector
func (p *Passphrase) Scheme() string { return SchemePassphrase }

// Bind implements Protector
func (p *Passphrase) Bind(h *storage.Header) error {
	fresh, err := checkScheme(h, SchemePassphrase)
	if err != nil {
		return err
	}

	if fresh {
		kdf, err := crypto.NewKDF()
		if err != nil {
			h.Scheme = ""
			return err
		}
		kdf.Iterations = p.iterations

		m := newMaster(kdf.DeriveKey(p.passphrase), h.VaultID)
		check, err := m.check()
		if err != nil {
			m.destroy()
			h.Scheme = ""
			return fmt.Errorf("failed to create check value: %w", err)
		}

		h.Salt = kdf.Salt
		h.Iterations = uint32(kdf.Iterations)
		h.Check = check
		p.setMaster(m)
		return nil
	}

	if len(h.Salt) == 0 || h.Iterations == 0 {
		return fmt.Errorf("vault header is missing passphrase parameters")
	}
	kdf := &crypto.KDF{Salt: h.Salt, Iterations: int(h.Iterations)}
	m := newMaster(kdf.DeriveKey(p.passphrase), h.VaultID)
	if !m.verify(h.Check) {
		m.destroy()
		return ErrWrongPassphrase
	}
	p.setMaster(m)
	return nil
}

func (p *Passphrase) setMaster(m *master) {
	if p.m != nil {
		p.m.destroy()
	}
	p.m = m
}

// Wrap implements Protector
func (p *Passphrase) Wrap(label string, key []byte) ([]byte, error) {
	if p.m == nil {
		return nil, ErrNotBound
	}
	return p.m.wrap(label, key)
}

// Unwrap implements Protector
func (p *Passphrase) Unwrap(label string, wrapped []byte) ([]byte, error) {
	if p.m == nil {
		return nil, ErrNotBound
	}
	return p.m.unwrap(label, wrapped)
}

// Destroy implements Protector
func (p *Passphrase) Destroy() {
	crypto.ClearBytes(p.passphrase)
	if p.m != nil {
		p.m.destroy()
		p.m = nil
	}
}

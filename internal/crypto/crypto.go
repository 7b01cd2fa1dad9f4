package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize           = 32     // Salt size in bytes
	KeySize            = 32     // AES-256 key size
	NonceSize          = 12     // GCM nonce size
	TagSize            = 16     // GCM authentication tag size
	DefaultIters       = 210000 // Default PBKDF2 iterations (OWASP minimum)
	DefaultDigestIters = 100000 // PBKDF2 iterations for operator password digests
	digestDomain       = "pwvault-user:"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrInvalidKey        = errors.New("invalid key size")
)

// KDF handles key derivation from passphrases
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: DefaultIters,
	}, nil
}

// DeriveKey derives an encryption key from a passphrase
func (k *KDF) DeriveKey(passphrase []byte) []byte {
	return pbkdf2.Key(passphrase, k.Salt, k.Iterations, KeySize, sha256.New)
}

// Digest computes the one-way digest of username‖password.
// The salt is derived from the username, so the result is deterministic
// for a given account and cannot be replayed against another account.
func Digest(username, password string, iterations int) []byte {
	salt := sha256.Sum256([]byte(digestDomain + username))
	material := make([]byte, 0, len(username)+len(password))
	material = append(material, username...)
	material = append(material, password...)
	defer ClearBytes(material)

	return pbkdf2.Key(material, salt[:], iterations, sha256.Size, sha256.New)
}

// NewKey generates a fresh random AES-256 key
func NewKey() ([]byte, error) {
	key, err := GenerateRandom(KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encryptor provides authenticated encryption under a single key
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given key.
// The encryptor keeps a reference to key; Destroy zeroes it.
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{
		key: key,
	}
}

func (e *Encryptor) aead() (cipher.AEAD, error) {
	if len(e.key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext using AES-256-GCM.
// additionalData is authenticated but not encrypted and must be passed
// unchanged to Decrypt.
func (e *Encryptor) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// nonce || ciphertext || tag
	result := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	copy(result, nonce)
	return gcm.Seal(result, nonce, plaintext, additionalData), nil
}

// Decrypt decrypts ciphertext produced by Encrypt
func (e *Encryptor) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[:NonceSize]
	plaintext, err := gcm.Open(nil, nonce, ciphertext[NonceSize:], additionalData)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

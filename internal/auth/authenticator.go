package auth

import (
	"unicode/utf8"

	"github.com/illarion/pwvault/internal/crypto"
)

// MinPasswordLength is the minimum number of characters in an account password
const MinPasswordLength = 6

// User is a registered operator account
type User struct {
	username   string
	digest     []byte
	isLoggedIn bool
}

// Username returns the account name
func (u *User) Username() string {
	return u.username
}

// checkPassword reports whether password matches the stored digest
func (u *User) checkPassword(password string, iterations int) bool {
	digest := crypto.Digest(u.username, password, iterations)
	defer crypto.ClearBytes(digest)
	return crypto.ConstantTimeCompare(digest, u.digest)
}

// Authenticator is the credential registry
type Authenticator struct {
	users      map[string]*User
	iterations int
}

// Option configures an Authenticator
type Option func(*Authenticator)

// WithDigestIterations sets the PBKDF2 iteration count used for password
// digests. It must not change once accounts have been added.
func WithDigestIterations(n int) Option {
	return func(a *Authenticator) {
		if n > 0 {
			a.iterations = n
		}
	}
}

// NewAuthenticator creates an empty credential registry
func NewAuthenticator(opts ...Option) *Authenticator {
	a := &Authenticator{
		users:      make(map[string]*User),
		iterations: crypto.DefaultDigestIters,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddUser registers a new account
func (a *Authenticator) AddUser(username, password string) error {
	if _, ok := a.users[username]; ok {
		return &UserError{Username: username, Err: ErrUsernameAlreadyExists}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &UserError{Username: username, Err: ErrPasswordTooShort}
	}

	a.users[username] = &User{
		username: username,
		digest:   crypto.Digest(username, password, a.iterations),
	}
	return nil
}

// Login verifies the password and marks the account as logged in
func (a *Authenticator) Login(username, password string) error {
	user, ok := a.users[username]
	if !ok {
		return &UserError{Username: username, Err: ErrInvalidUsername}
	}
	if !user.checkPassword(password, a.iterations) {
		return &UserError{Username: user.username, Err: ErrInvalidPassword}
	}

	user.isLoggedIn = true
	return nil
}

// Logout clears the session flag of the account
func (a *Authenticator) Logout(username string) error {
	user, ok := a.users[username]
	if !ok {
		return &UserError{Username: username, Err: ErrInvalidUsername}
	}
	user.isLoggedIn = false
	return nil
}

// IsLoggedIn reports whether the account exists and is logged in.
// Unknown accounts and logged-out accounts both return false.
func (a *Authenticator) IsLoggedIn(username string) bool {
	user, ok := a.users[username]
	return ok && user.isLoggedIn
}

// Exists reports whether the account is registered
func (a *Authenticator) Exists(username string) bool {
	_, ok := a.users[username]
	return ok
}

// Len returns the number of registered accounts
func (a *Authenticator) Len() int {
	return len(a.users)
}

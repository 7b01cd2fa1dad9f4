package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(WithDigestIterations(1000))
}

func TestAddUserThenLogin(t *testing.T) {
	a := newTestAuthenticator()

	require.NoError(t, a.AddUser("alice", "s3cret!"))
	assert.True(t, a.Exists("alice"))
	assert.False(t, a.IsLoggedIn("alice"), "new accounts start logged out")

	require.NoError(t, a.Login("alice", "s3cret!"))
	assert.True(t, a.IsLoggedIn("alice"))
}

func TestAddUserDuplicate(t *testing.T) {
	a := newTestAuthenticator()
	require.NoError(t, a.AddUser("user", "usrpwd"))

	err := a.AddUser("user", "usrpwd")
	require.ErrorIs(t, err, ErrUsernameAlreadyExists)

	var userErr *UserError
	require.True(t, errors.As(err, &userErr))
	assert.Equal(t, "user", userErr.Username)
}

func TestAddUserPasswordTooShort(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty", "user_1", ""},
		{"three chars", "user_1", "pwd"},
		{"five chars", "other", "12345"},
		{"five runes in more bytes", "unicode", "ééééé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAuthenticator()
			err := a.AddUser(tt.username, tt.password)
			require.ErrorIs(t, err, ErrPasswordTooShort)
			assert.False(t, a.Exists(tt.username))
		})
	}
}

func TestAddUserMinimumLength(t *testing.T) {
	a := newTestAuthenticator()
	require.NoError(t, a.AddUser("user", "123456"))
	require.NoError(t, a.AddUser("runes", "éééééé"))
}

func TestLoginFailures(t *testing.T) {
	a := newTestAuthenticator()
	require.NoError(t, a.AddUser("user", "usrpwd"))

	err := a.Login("inv_user", "usrpwd")
	require.ErrorIs(t, err, ErrInvalidUsername)

	err = a.Login("user", "invpwd")
	require.ErrorIs(t, err, ErrInvalidPassword)
	var userErr *UserError
	require.True(t, errors.As(err, &userErr))
	assert.Equal(t, "user", userErr.Username)
	assert.False(t, a.IsLoggedIn("user"))

	// Usernames are case-sensitive
	require.ErrorIs(t, a.Login("User", "usrpwd"), ErrInvalidUsername)
}

func TestIsLoggedInUnknownUser(t *testing.T) {
	a := newTestAuthenticator()
	assert.False(t, a.IsLoggedIn("inv_user"))
}

func TestLogout(t *testing.T) {
	a := newTestAuthenticator()
	require.NoError(t, a.AddUser("alice", "s3cret!"))
	require.NoError(t, a.Login("alice", "s3cret!"))

	require.NoError(t, a.Logout("alice"))
	assert.False(t, a.IsLoggedIn("alice"))
	require.ErrorIs(t, a.Logout("bob"), ErrInvalidUsername)
}

func TestSamePasswordDifferentDigests(t *testing.T) {
	a := newTestAuthenticator()
	require.NoError(t, a.AddUser("alice", "shared-pw"))
	require.NoError(t, a.AddUser("bob", "shared-pw"))

	assert.NotEqual(t, a.users["alice"].digest, a.users["bob"].digest)
	assert.NotContains(t, string(a.users["alice"].digest), "shared-pw")
}

package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUsername         = errors.New("invalid username")
	ErrInvalidPassword         = errors.New("invalid password")
	ErrUsernameAlreadyExists   = errors.New("username already exists")
	ErrPasswordTooShort        = errors.New("password too short")
	ErrNotLoggedIn             = errors.New("not logged in")
	ErrPermissionAlreadyExists = errors.New("permission already exists")
	ErrPermissionNotFound      = errors.New("permission not found")
	ErrNotPermitted            = errors.New("not permitted")
)

// UserError reports a failure concerning a single account
type UserError struct {
	Username string
	Err      error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Username)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// PermissionError reports a failure concerning a named permission.
// Username is empty for permission lifecycle errors.
type PermissionError struct {
	Permission string
	Username   string
	Err        error
}

func (e *PermissionError) Error() string {
	if e.Username == "" {
		return fmt.Sprintf("%s: %q", e.Err, e.Permission)
	}
	return fmt.Sprintf("%s: %q for %q", e.Err, e.Permission, e.Username)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

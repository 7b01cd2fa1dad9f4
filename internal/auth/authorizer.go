package auth

import "sort"

// Credentials is the view of the credential registry the Authorizer needs
type Credentials interface {
	Exists(username string) bool
	IsLoggedIn(username string) bool
}

// Authorizer is the permission registry
type Authorizer struct {
	credentials Credentials
	permissions map[string]map[string]struct{}
}

// NewAuthorizer creates an empty permission registry backed by credentials
func NewAuthorizer(credentials Credentials) *Authorizer {
	return &Authorizer{
		credentials: credentials,
		permissions: make(map[string]map[string]struct{}),
	}
}

// AddPermission defines a new permission with no grants
func (a *Authorizer) AddPermission(name string) error {
	if _, ok := a.permissions[name]; ok {
		return &PermissionError{Permission: name, Err: ErrPermissionAlreadyExists}
	}
	a.permissions[name] = make(map[string]struct{})
	return nil
}

// PermitUser grants the permission to a registered user.
// Granting an already granted permission is not an error.
func (a *Authorizer) PermitUser(name, username string) error {
	granted, ok := a.permissions[name]
	if !ok {
		return &PermissionError{Permission: name, Username: username, Err: ErrPermissionNotFound}
	}
	if !a.credentials.Exists(username) {
		return &UserError{Username: username, Err: ErrInvalidUsername}
	}

	granted[username] = struct{}{}
	return nil
}

// CheckPermission returns nil if username is logged in and holds the permission
func (a *Authorizer) CheckPermission(name, username string) error {
	// Login state is checked first and masks a missing permission
	if !a.credentials.IsLoggedIn(username) {
		return &UserError{Username: username, Err: ErrNotLoggedIn}
	}

	granted, ok := a.permissions[name]
	if !ok {
		return &PermissionError{Permission: name, Username: username, Err: ErrPermissionNotFound}
	}
	if _, ok := granted[username]; !ok {
		return &PermissionError{Permission: name, Username: username, Err: ErrNotPermitted}
	}
	return nil
}

// HasPermission reports whether the permission is defined
func (a *Authorizer) HasPermission(name string) bool {
	_, ok := a.permissions[name]
	return ok
}

// Permissions returns the defined permission names, sorted
func (a *Authorizer) Permissions() []string {
	names := make([]string, 0, len(a.permissions))
	for name := range a.permissions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package auth provides the credential and permission registries.
//
// Authenticator owns operator accounts. Passwords are kept only as a
// digest of username‖password (see crypto.Digest) and a successful Login
// sets an in-memory session flag for the account.
//
// Authorizer owns named permissions and their grants. CheckPermission
// verifies, in this order:
//   - the user is logged in (ErrNotLoggedIn)
//   - the permission exists (ErrPermissionNotFound)
//   - the user was granted the permission (ErrNotPermitted)
//
// Neither registry is persisted and neither is safe for concurrent use.
package auth

// Package core provides the access-gated pwvault operations.
//
// A Keeper ties the three registries together:
//   - Authenticator: who is logged in
//   - Authorizer: which permission each user holds
//   - vault.Store: the encrypted entries
//
// Every vault operation is resolved to a permission name through an
// Actions policy and checked against the current user before the store
// is touched. Save and the change queries are not gated.
package core

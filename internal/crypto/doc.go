// Package crypto provides cryptographic operations for pwvault.
//
// Secret entries are sealed with AES-256-GCM:
//   - 32-byte random key per entry (NewKey)
//   - 12-byte random nonce per encryption, prepended to the ciphertext
//   - the entry label is passed as additional authenticated data
//
// Operator passwords are never stored. Digest derives a deterministic
// PBKDF2-HMAC-SHA256 value from username‖password with a salt bound to
// the username, so equal passwords of different accounts digest differently.
//
// Passphrase-based key wrapping uses KDF (PBKDF2-HMAC-SHA256, 32-byte
// random salt, 210,000 iterations).
//
// Use ClearBytes() to zero key material when it is no longer needed.
package crypto

// Package storage provides the BBolt database interface for pwvault.
//
// Database structure uses two buckets:
//   - config: format version, timestamps, vault ID and the key protection
//     scheme with its parameters (salt, iterations, check value)
//   - entries: label -> JSON record holding the entry key (as produced by
//     the key protector), the AES-256-GCM ciphertext and an insertion
//     sequence number
//
// Replace writes the header and all entries in one transaction, so a vault
// file always holds a complete save. The unencrypted config bucket lets
// pwvault status report on a vault without any password.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage

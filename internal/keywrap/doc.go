// Package keywrap protects per-entry keys before they are written to the
// vault file.
//
// Schemes:
//   - none: keys are stored as generated
//   - passphrase: keys are sealed with AES-256-GCM under a master key
//     derived from an operator passphrase (PBKDF2, salt in the header)
//   - keyring: keys are sealed under a random master key kept in the OS
//     keyring, never in the vault file
//
// Every sealed key is bound to its entry label, and every vault carries an
// encrypted check value so a wrong master key is reported as such instead
// of as a corrupted entry.
package keywrap

// Package vault implements the encrypted entry store.
//
// Each Entry holds its own random AES-256-GCM key and the ciphertext of
// one password, with the label as additional authenticated data. Entries
// never keep plaintext; Reveal decrypts on every call.
//
// A Store maps labels to entries in insertion order and tracks whether it
// differs from the vault file. Load and Save are the only operations that
// touch the file. Entry keys are handed to a keywrap.Protector before they
// are written.
package vault

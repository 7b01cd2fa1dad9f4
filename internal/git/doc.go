// Package git reports whether the vault file is exposed to git.
//
// Labels are stored in the clear, and a vault with key protection "none"
// keeps entry keys next to the ciphertext, so the file should normally be
// ignored rather than committed.
package git

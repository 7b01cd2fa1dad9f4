package vault

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/illarion/pwvault/internal/keywrap"
	"github.com/illarion/pwvault/internal/storage"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, keywrap.None{})
	require.NoError(t, err)
	return s
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", ".keyring.db")

	s := openTestStore(t, path)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Changed())
	assert.Empty(t, s.List())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading must not create the vault file")
}

func TestAddReveal(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))

	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	assert.True(t, s.Changed())

	got, err := s.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "p4ssw0rd", got)

	entry := s.entries["bank"]
	assert.False(t, bytes.Contains(entry.ciphertext, []byte("p4ssw0rd")))
}

func TestAddDuplicateKeepsOriginal(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))
	require.NoError(t, s.Add("bank", "first"))

	err := s.Add("bank", "second")
	require.ErrorIs(t, err, ErrEntryAlreadyExists)
	var entryErr *EntryError
	require.True(t, errors.As(err, &entryErr))
	assert.Equal(t, "bank", entryErr.Label)

	got, err := s.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, 1, s.Len())
}

func TestAddEmptyLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	s := openTestStore(t, path)
	require.NoError(t, s.Add("", "pw-empty"))
	require.NoError(t, s.Add("bank", "pw-bank"))
	require.ErrorIs(t, s.Add("", "again"), ErrEntryAlreadyExists)
	require.NoError(t, s.Save())
	s.Close()

	s = openTestStore(t, path)
	assert.Equal(t, []Listing{{Index: 1, Label: ""}, {Index: 2, Label: "bank"}}, s.List())
	got, err := s.Reveal("")
	require.NoError(t, err)
	assert.Equal(t, "pw-empty", got)
}

func TestEntriesHaveOwnKeys(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))
	require.NoError(t, s.Add("a", "same"))
	require.NoError(t, s.Add("b", "same"))

	assert.NotEqual(t, s.entries["a"].key, s.entries["b"].key)
	assert.NotEqual(t, s.entries["a"].ciphertext, s.entries["b"].ciphertext)
}

func TestModify(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))

	require.ErrorIs(t, s.Modify("bank", "x"), ErrEntryNotFound)
	assert.False(t, s.Changed())

	require.NoError(t, s.Add("bank", "old"))
	oldKey := append([]byte(nil), s.entries["bank"].key...)

	require.NoError(t, s.Modify("bank", "new"))
	got, err := s.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.NotEqual(t, oldKey, s.entries["bank"].key, "modify rotates the entry key")
}

func TestRemove(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))

	require.ErrorIs(t, s.Remove("bank"), ErrEntryNotFound)

	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	require.NoError(t, s.Remove("bank"))

	_, err := s.Reveal("bank")
	require.ErrorIs(t, err, ErrEntryNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestListOrder(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))
	for _, label := range []string{"zeta", "alpha", "mid", "beta"} {
		require.NoError(t, s.Add(label, "password"))
	}
	require.NoError(t, s.Remove("mid"))

	want := []Listing{{1, "zeta"}, {2, "alpha"}, {3, "beta"}}
	assert.Equal(t, want, s.List())
}

func TestListDoesNotMarkChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	s := openTestStore(t, path)
	require.NoError(t, s.Add("bank", "pw"))
	require.NoError(t, s.Save())

	s.List()
	_, err := s.Reveal("bank")
	require.NoError(t, err)
	assert.False(t, s.Changed())
}

func TestRevealCorruptedEntry(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "vault"))
	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	require.NoError(t, s.Add("mail", "hunter22"))

	// Key and ciphertext moved under another label
	s.entries["mail"].key = append([]byte(nil), s.entries["bank"].key...)
	s.entries["mail"].ciphertext = append([]byte(nil), s.entries["bank"].ciphertext...)
	_, err := s.Reveal("mail")
	require.ErrorIs(t, err, ErrDecryptionFailed)

	var entryErr *EntryError
	require.True(t, errors.As(err, &entryErr))
	assert.Equal(t, "mail", entryErr.Label)

	// Other entries are unaffected
	got, err := s.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "p4ssw0rd", got)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", ".keyring.db")

	s := openTestStore(t, path)
	entries := map[string]string{
		"bank":  "p4ssw0rd",
		"mail":  "correct horse battery staple",
		"empty": "",
		"uni":   "пароль-密码",
	}
	labels := []string{"bank", "mail", "empty", "uni"}
	for _, label := range labels {
		require.NoError(t, s.Add(label, entries[label]))
	}
	require.NoError(t, s.Save())
	assert.False(t, s.Changed())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(storage.FilePerm), info.Mode().Perm())

	// Simulated restart
	reloaded := openTestStore(t, path)
	assert.False(t, reloaded.Changed())
	require.Equal(t, len(labels), reloaded.Len())
	for i, l := range reloaded.List() {
		assert.Equal(t, labels[i], l.Label)
		got, err := reloaded.Reveal(l.Label)
		require.NoError(t, err)
		assert.Equal(t, entries[l.Label], got)
	}
}

func TestSaveReplacesFileContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")

	s := openTestStore(t, path)
	require.NoError(t, s.Add("bank", "one"))
	require.NoError(t, s.Add("mail", "two"))
	require.NoError(t, s.Save())

	require.NoError(t, s.Remove("bank"))
	require.NoError(t, s.Modify("mail", "three"))
	require.NoError(t, s.Save())

	reloaded := openTestStore(t, path)
	assert.Equal(t, []Listing{{1, "mail"}}, reloaded.List())
	got, err := reloaded.Reveal("mail")
	require.NoError(t, err)
	assert.Equal(t, "three", got)
}

func TestLoadDiscardsUnsavedChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	s := openTestStore(t, path)
	require.NoError(t, s.Add("bank", "one"))
	require.NoError(t, s.Save())

	require.NoError(t, s.Add("mail", "two"))
	require.NoError(t, s.Load())

	assert.False(t, s.Changed())
	assert.Equal(t, []Listing{{1, "bank"}}, s.List())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	require.NoError(t, os.WriteFile(path, []byte("this is not a vault file at all, not even close"), 0600))

	_, err := Open(path, keywrap.None{})
	require.ErrorIs(t, err, ErrStorage)
}

func TestLoadDirectory(t *testing.T) {
	_, err := Open(t.TempDir(), keywrap.None{})
	require.ErrorIs(t, err, ErrStorage)
}

func TestSaveFailureKeepsChanged(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "sub")
	s := openTestStore(t, filepath.Join(blocker, "vault"))
	require.NoError(t, s.Add("bank", "pw"))

	// Parent of the vault path becomes a regular file
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	err := s.Save()
	require.ErrorIs(t, err, ErrStorage)
	assert.True(t, s.Changed())
}

func TestPassphraseProtectedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")

	s, err := Open(path, keywrap.NewPassphrase([]byte("master pw"), keywrap.WithIterations(1000)))
	require.NoError(t, err)
	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	memKey := append([]byte(nil), s.entries["bank"].key...)
	require.NoError(t, s.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, memKey), "entry key must not be stored in the clear")

	_, err = Open(path, keywrap.NewPassphrase([]byte("wrong pw")))
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, keywrap.ErrWrongPassphrase)

	_, err = Open(path, keywrap.None{})
	require.ErrorIs(t, err, keywrap.ErrSchemeMismatch)

	reloaded, err := Open(path, keywrap.NewPassphrase([]byte("master pw")))
	require.NoError(t, err)
	got, err := reloaded.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "p4ssw0rd", got)
}

func TestKeyringProtectedFile(t *testing.T) {
	gokeyring.MockInit()
	path := filepath.Join(t.TempDir(), "vault")

	s, err := Open(path, keywrap.NewKeyring())
	require.NoError(t, err)
	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	require.NoError(t, s.Save())

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, keywrap.SchemeKeyring, info.Header.Scheme)

	reloaded, err := Open(path, keywrap.NewKeyring())
	require.NoError(t, err)
	got, err := reloaded.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "p4ssw0rd", got)
}

func TestTamperedKeyFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	s, err := Open(path, keywrap.NewPassphrase([]byte("master pw"), keywrap.WithIterations(1000)))
	require.NoError(t, err)
	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	require.NoError(t, s.Save())

	db, err := storage.Open(path)
	require.NoError(t, err)
	h, err := db.Header()
	require.NoError(t, err)
	records, err := db.Entries()
	require.NoError(t, err)
	records[0].Key[len(records[0].Key)-1] ^= 0xff
	require.NoError(t, db.Replace(h, records))
	require.NoError(t, db.Close())

	_, err = Open(path, keywrap.NewPassphrase([]byte("master pw")))
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.False(t, info.Exists)

	s := openTestStore(t, path)
	require.NoError(t, s.Add("a", "1"))
	require.NoError(t, s.Add("b", "2"))
	require.NoError(t, s.Save())

	info, err = Inspect(path)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, 2, info.Entries)
	assert.Equal(t, keywrap.SchemeNone, info.Header.Scheme)
	assert.NotEmpty(t, info.Header.VaultID)
}

func TestCompact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault")
	s := openTestStore(t, path)
	require.NoError(t, s.Add("bank", "p4ssw0rd"))
	require.NoError(t, s.Save())

	require.NoError(t, Compact(path))

	reloaded := openTestStore(t, path)
	got, err := reloaded.Reveal("bank")
	require.NoError(t, err)
	assert.Equal(t, "p4ssw0rd", got)
}

package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/keywrap"
	"github.com/illarion/pwvault/internal/storage"
)

// DirPermSecure is used when Save has to create the vault directory
const DirPermSecure = 0700

// Listing is one line of the label list, numbered from 1
type Listing struct {
	Index int
	Label string
}

// Store maps labels to encrypted entries and persists them to a file.
// It is not safe for concurrent use.
type Store struct {
	path      string
	protector keywrap.Protector
	header    *storage.Header

	entries map[string]*Entry
	order   []string
	changed bool

	// State of the file as of the last Load or Save, for Pending
	saved   []string
	touched map[string]struct{}
}

// Open creates a store for the vault file at path and loads it.
// A missing file yields an empty store; the file is created on Save.
func Open(path string, protector keywrap.Protector) (*Store, error) {
	s := &Store{
		path:      path,
		protector: protector,
		entries:   make(map[string]*Entry),
		touched:   make(map[string]struct{}),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the vault file path
func (s *Store) Path() string {
	return s.path
}

// Add creates a new entry
func (s *Store) Add(label, password string) error {
	if _, ok := s.entries[label]; ok {
		return &EntryError{Label: label, Err: ErrEntryAlreadyExists}
	}

	entry, err := newEntry(label, password)
	if err != nil {
		return fmt.Errorf("failed to create entry %q: %w", label, err)
	}

	s.entries[label] = entry
	s.order = append(s.order, label)
	s.markChanged(label)
	return nil
}

// Modify replaces the password of an existing entry
func (s *Store) Modify(label, password string) error {
	entry, ok := s.entries[label]
	if !ok {
		return &EntryError{Label: label, Err: ErrEntryNotFound}
	}
	if err := entry.Replace(password); err != nil {
		return fmt.Errorf("failed to update entry %q: %w", label, err)
	}
	s.markChanged(label)
	return nil
}

// Remove deletes an entry
func (s *Store) Remove(label string) error {
	entry, ok := s.entries[label]
	if !ok {
		return &EntryError{Label: label, Err: ErrEntryNotFound}
	}

	entry.destroy()
	delete(s.entries, label)
	for i, l := range s.order {
		if l == label {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.touched, label)
	// Removing an entry added since the last save can undo every edit
	s.changed = len(s.diff()) > 0
	return nil
}

// Reveal returns the plaintext password of an entry
func (s *Store) Reveal(label string) (string, error) {
	entry, ok := s.entries[label]
	if !ok {
		return "", &EntryError{Label: label, Err: ErrEntryNotFound}
	}
	return entry.Reveal()
}

// List returns the labels in insertion order
func (s *Store) List() []Listing {
	listing := make([]Listing, len(s.order))
	for i, label := range s.order {
		listing[i] = Listing{Index: i + 1, Label: label}
	}
	return listing
}

// Len returns the number of entries
func (s *Store) Len() int {
	return len(s.order)
}

// Changed reports whether the store differs from the last saved state
func (s *Store) Changed() bool {
	return s.changed
}

func (s *Store) markChanged(label string) {
	s.touched[label] = struct{}{}
	s.changed = true
}

// Load replaces the in-memory entries with the content of the vault file.
// On error the store is left unchanged.
func (s *Store) Load() error {
	exists, err := storage.Exists(s.path)
	if err != nil {
		return storageError("failed to stat vault file", err)
	}
	if !exists {
		s.reset(nil, make(map[string]*Entry), nil)
		return nil
	}

	db, err := storage.Open(s.path)
	if err != nil {
		return storageError("failed to open vault file", err)
	}
	defer db.Close()

	header, err := db.Header()
	if errors.Is(err, storage.ErrNotInitialized) {
		// Left behind by a save that never committed
		s.reset(nil, make(map[string]*Entry), nil)
		return nil
	}
	if err != nil {
		return storageError("failed to read vault header", err)
	}
	if err := s.protector.Bind(header); err != nil {
		return storageError("failed to unlock vault", err)
	}

	records, err := db.Entries()
	if err != nil {
		return storageError("failed to read entries", err)
	}

	entries := make(map[string]*Entry, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		key, err := s.protector.Unwrap(rec.Label, rec.Key)
		if err != nil {
			for _, e := range entries {
				e.destroy()
			}
			return storageError("failed to unwrap entry key", &EntryError{Label: rec.Label, Err: ErrDecryptionFailed})
		}
		entries[rec.Label] = &Entry{label: rec.Label, key: key, ciphertext: rec.Ciphertext}
		order = append(order, rec.Label)
	}

	s.reset(header, entries, order)
	return nil
}

func (s *Store) reset(header *storage.Header, entries map[string]*Entry, order []string) {
	for _, e := range s.entries {
		e.destroy()
	}
	s.header = header
	s.entries = entries
	s.order = order
	s.saved = append([]string(nil), order...)
	s.touched = make(map[string]struct{})
	s.changed = false
}

// Save writes every entry to the vault file, replacing its content, and
// clears the changed flag. On error the flag is left set.
func (s *Store) Save() error {
	header := s.header
	if header == nil {
		header = storage.NewHeader()
		if err := s.protector.Bind(header); err != nil {
			return storageError("failed to protect vault", err)
		}
		s.header = header
	}

	records := make([]storage.Record, 0, len(s.order))
	defer func() {
		for _, rec := range records {
			crypto.ClearBytes(rec.Key)
		}
	}()
	for i, label := range s.order {
		entry := s.entries[label]
		wrapped, err := s.protector.Wrap(label, entry.key)
		if err != nil {
			return storageError("failed to wrap entry key", &EntryError{Label: label, Err: err})
		}
		records = append(records, storage.Record{
			Label:      label,
			Seq:        uint64(i + 1),
			Key:        wrapped,
			Ciphertext: entry.ciphertext,
		})
	}

	if err := os.MkdirAll(filepath.Dir(s.path), DirPermSecure); err != nil {
		return storageError("failed to create vault directory", err)
	}
	db, err := storage.Open(s.path)
	if err != nil {
		return storageError("failed to open vault file", err)
	}

	header.Modified = time.Now()
	if err := db.Replace(header, records); err != nil {
		db.Close()
		return storageError("failed to write vault file", err)
	}
	if err := db.Close(); err != nil {
		return storageError("failed to close vault file", err)
	}

	s.saved = append([]string(nil), s.order...)
	s.touched = make(map[string]struct{})
	s.changed = false
	return nil
}

// Scheme returns the key protection scheme of the store
func (s *Store) Scheme() string {
	return s.protector.Scheme()
}

// Close clears key material held by the store. Unsaved changes are lost.
func (s *Store) Close() {
	for _, e := range s.entries {
		e.destroy()
	}
	s.entries = make(map[string]*Entry)
	s.order = nil
	s.protector.Destroy()
}

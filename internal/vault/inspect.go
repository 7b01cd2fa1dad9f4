package vault

import (
	"errors"

	"github.com/illarion/pwvault/internal/storage"
)

// Info describes a vault file without unlocking it
type Info struct {
	Path    string
	Exists  bool
	Header  *storage.Header
	Entries int
}

// Inspect reads the header and entry count of the vault file at path.
// No key material is needed; a missing file is reported with Exists false.
func Inspect(path string) (*Info, error) {
	info := &Info{Path: path}

	exists, err := storage.Exists(path)
	if err != nil {
		return nil, storageError("failed to stat vault file", err)
	}
	if !exists {
		return info, nil
	}
	info.Exists = true

	db, err := storage.Open(path)
	if err != nil {
		return nil, storageError("failed to open vault file", err)
	}
	defer db.Close()

	info.Header, err = db.Header()
	if errors.Is(err, storage.ErrNotInitialized) {
		return info, nil
	}
	if err != nil {
		return nil, storageError("failed to read vault header", err)
	}
	if info.Entries, err = db.EntryCount(); err != nil {
		return nil, storageError("failed to count entries", err)
	}
	return info, nil
}

// Compact rewrites the vault file to reclaim space left by earlier saves
func Compact(path string) error {
	db, err := storage.Open(path)
	if err != nil {
		return storageError("failed to open vault file", err)
	}
	defer db.Close()

	if ok, err := db.IsInitialized(); err != nil || !ok {
		if err == nil {
			err = storage.ErrNotInitialized
		}
		return storageError("failed to compact vault", err)
	}
	if err := db.Compact(); err != nil {
		return storageError("failed to compact vault", err)
	}
	return nil
}

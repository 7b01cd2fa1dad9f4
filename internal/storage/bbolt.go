package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket  = []byte("config")  // Header fields - unencrypted
	EntriesBucket = []byte("entries") // seq -> Record (JSON)
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
	ConfigScheme   = []byte("scheme")
	ConfigSalt     = []byte("salt")
	ConfigIters    = []byte("iterations")
	ConfigCheck    = []byte("check")
)

const (
	FilePerm    = 0600
	openTimeout = time.Second
)

var (
	ErrNotInitialized = errors.New("vault file not initialized")
	ErrLocked         = errors.New("vault file is in use by another process")
)

// Storage provides BBolt-based storage for a vault file
type Storage struct {
	db *bolt.DB
}

// Exists reports whether a vault file is present at path
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return false, fmt.Errorf("%s is a directory", path)
		}
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Open opens or creates a vault database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, FilePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// IsInitialized checks if a header has been written
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Header reads the vault header
func (s *Storage) Header() (*Header, error) {
	h := &Header{}
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil || config.Get(ConfigVersion) == nil {
			return ErrNotInitialized
		}

		version, err := strconv.Atoi(string(config.Get(ConfigVersion)))
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		h.Version = version

		if data := config.Get(ConfigCreated); data != nil {
			if err := h.Created.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("invalid created time: %w", err)
			}
		}
		if data := config.Get(ConfigModified); data != nil {
			if err := h.Modified.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("invalid modified time: %w", err)
			}
		}

		h.VaultID = string(config.Get(ConfigVaultID))
		h.Scheme = string(config.Get(ConfigScheme))

		// Make copies since the slices are only valid during the transaction
		h.Salt = cloneBytes(config.Get(ConfigSalt))
		h.Check = cloneBytes(config.Get(ConfigCheck))

		if iters := config.Get(ConfigIters); iters != nil {
			if len(iters) != 4 {
				return fmt.Errorf("invalid iterations")
			}
			h.Iterations = binary.BigEndian.Uint32(iters)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Entries returns all entry records in insertion order
func (s *Storage) Entries() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		entries := tx.Bucket(EntriesBucket)
		if entries == nil {
			return ErrNotInitialized
		}
		return entries.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("invalid record %x: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRecords(records)
	return records, nil
}

// EntryCount returns the number of stored entries
func (s *Storage) EntryCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		entries := tx.Bucket(EntriesBucket)
		if entries == nil {
			return ErrNotInitialized
		}
		n = entries.Stats().KeyN
		return nil
	})
	return n, err
}

// Replace writes the header and replaces every entry record in a single
// transaction. Either all of it is persisted or none of it is.
func (s *Storage) Replace(h *Header, records []Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		config, err := tx.CreateBucketIfNotExists(ConfigBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ConfigBucket, err)
		}
		if err := putHeader(config, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}

		if tx.Bucket(EntriesBucket) != nil {
			if err := tx.DeleteBucket(EntriesBucket); err != nil {
				return fmt.Errorf("failed to clear entries: %w", err)
			}
		}
		entries, err := tx.CreateBucket(EntriesBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", EntriesBucket, err)
		}

		// Labels may be empty, so records are keyed by their sequence number
		for _, rec := range records {
			key := seqKey(rec.Seq)
			if entries.Get(key) != nil {
				return fmt.Errorf("duplicate sequence %d for %q", rec.Seq, rec.Label)
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := entries.Put(key, data); err != nil {
				return fmt.Errorf("failed to store %q: %w", rec.Label, err)
			}
		}
		return nil
	})
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func putHeader(config *bolt.Bucket, h *Header) error {
	version := h.Version
	if version == 0 {
		version = FormatVersion
	}
	if err := config.Put(ConfigVersion, []byte(strconv.Itoa(version))); err != nil {
		return err
	}

	created, err := h.Created.MarshalBinary()
	if err != nil {
		return err
	}
	if err := config.Put(ConfigCreated, created); err != nil {
		return err
	}
	modified, err := h.Modified.MarshalBinary()
	if err != nil {
		return err
	}
	if err := config.Put(ConfigModified, modified); err != nil {
		return err
	}

	iters := make([]byte, 4)
	binary.BigEndian.PutUint32(iters, h.Iterations)

	fields := []struct {
		key   []byte
		value []byte
	}{
		{ConfigVaultID, []byte(h.VaultID)},
		{ConfigScheme, []byte(h.Scheme)},
		{ConfigSalt, h.Salt},
		{ConfigIters, iters},
		{ConfigCheck, h.Check},
	}
	for _, f := range fields {
		if len(f.value) == 0 {
			if err := config.Delete(f.key); err != nil {
				return err
			}
			continue
		}
		if err := config.Put(f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Compact creates a compacted copy of the database, removing unused space.
// Saving rewrites the whole entry bucket, so freed pages accumulate over time.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, FilePerm, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = bolt.Compact(dst, s.db, 0)
	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, FilePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}

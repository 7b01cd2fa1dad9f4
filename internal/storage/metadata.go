package storage

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FormatVersion is the vault file format written by this package
const FormatVersion = 1

// Header describes a vault file. It is stored unencrypted in the config bucket.
type Header struct {
	Version  int
	Created  time.Time
	Modified time.Time
	VaultID  string

	// Key protection scheme and its parameters
	Scheme     string
	Salt       []byte
	Iterations uint32
	Check      []byte
}

// NewHeader creates the header for a vault that has never been saved
func NewHeader() *Header {
	now := time.Now()
	return &Header{
		Version:  FormatVersion,
		Created:  now,
		Modified: now,
		VaultID:  uuid.NewString(),
	}
}

// Record is one persisted secret entry.
// Key is the entry key as handed over by the key protector.
type Record struct {
	Label      string `json:"label"`
	Seq        uint64 `json:"seq"`
	Key        []byte `json:"key"`
	Ciphertext []byte `json:"ciphertext"`
}

// sortRecords orders records by insertion sequence
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})
}

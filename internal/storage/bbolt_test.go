package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenEmpty(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// A fresh file has no header
	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Database without header should not be initialized")
	}

	if _, err := db.Header(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	exists, err := Exists(dbPath)
	if err != nil || exists {
		t.Fatalf("Exists = %v, %v; want false, nil", exists, err)
	}

	if err := os.WriteFile(dbPath, nil, 0600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	exists, err = Exists(dbPath)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true, nil", exists, err)
	}

	if _, err := Exists(dir); err == nil {
		t.Error("Expected error for directory")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	h := NewHeader()
	h.Scheme = "passphrase"
	h.Salt = []byte("test-salt-32-bytes-long-exactly!")
	h.Iterations = 100000
	h.Check = []byte("check-value")

	if err := db.Replace(h, nil); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}

	got, err := db.Header()
	if err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}

	if got.Version != FormatVersion {
		t.Errorf("Version mismatch: got %d, want %d", got.Version, FormatVersion)
	}
	if got.VaultID != h.VaultID || got.VaultID == "" {
		t.Errorf("VaultID mismatch: got %q, want %q", got.VaultID, h.VaultID)
	}
	if got.Scheme != "passphrase" {
		t.Errorf("Scheme mismatch: got %q", got.Scheme)
	}
	if string(got.Salt) != string(h.Salt) {
		t.Errorf("Salt mismatch: got %v, want %v", got.Salt, h.Salt)
	}
	if got.Iterations != h.Iterations {
		t.Errorf("Iterations mismatch: got %d, want %d", got.Iterations, h.Iterations)
	}
	if string(got.Check) != "check-value" {
		t.Errorf("Check mismatch: got %q", got.Check)
	}
	if !got.Created.Equal(h.Created) || !got.Modified.Equal(h.Modified) {
		t.Errorf("Timestamps mismatch: got %v/%v, want %v/%v", got.Created, got.Modified, h.Created, h.Modified)
	}
}

func TestHeaderClearsUnusedFields(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.pwvault"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	h := NewHeader()
	h.Scheme = "passphrase"
	h.Salt = []byte("salt")
	if err := db.Replace(h, nil); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	h.Scheme = "none"
	h.Salt = nil
	if err := db.Replace(h, nil); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := db.Header()
	if err != nil {
		t.Fatalf("Header failed: %v", err)
	}
	if got.Salt != nil {
		t.Errorf("Salt should be cleared, got %v", got.Salt)
	}
}

func TestReplaceEntries(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	h := NewHeader()
	records := []Record{
		{Label: "zeta", Seq: 1, Key: []byte("k1"), Ciphertext: []byte("c1")},
		{Label: "alpha", Seq: 2, Key: []byte("k2"), Ciphertext: []byte("c2")},
		{Label: "mid", Seq: 3, Key: []byte("k3"), Ciphertext: []byte("c3")},
	}
	if err := db.Replace(h, records); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	got, err := db.Entries()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}
	// Insertion order, not key order
	for i, want := range []string{"zeta", "alpha", "mid"} {
		if got[i].Label != want {
			t.Errorf("Entry %d: got %s, want %s", i, got[i].Label, want)
		}
	}
	if string(got[1].Key) != "k2" || string(got[1].Ciphertext) != "c2" {
		t.Errorf("Record content mismatch: %+v", got[1])
	}

	// A second replace drops entries that are not listed
	if err := db.Replace(h, records[:1]); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}
	n, err := db.EntryCount()
	if err != nil {
		t.Fatalf("Failed to count entries: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 entry, got %d", n)
	}
}

func TestReplaceIsAtomic(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.pwvault"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	h := NewHeader()
	if err := db.Replace(h, []Record{{Label: "keep", Seq: 1, Key: []byte("k"), Ciphertext: []byte("c")}}); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	// Duplicate sequence aborts the transaction
	bad := []Record{
		{Label: "new", Seq: 1, Key: []byte("k"), Ciphertext: []byte("c")},
		{Label: "other", Seq: 1},
	}
	if err := db.Replace(h, bad); err == nil {
		t.Fatal("Expected error for duplicate sequence")
	}

	got, err := db.Entries()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != 1 || got[0].Label != "keep" {
		t.Errorf("Failed transaction should leave previous entries, got %+v", got)
	}
}

func TestEmptyLabel(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.pwvault"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	records := []Record{
		{Label: "", Seq: 1, Key: []byte("k1"), Ciphertext: []byte("c1")},
		{Label: "bank", Seq: 2, Key: []byte("k2"), Ciphertext: []byte("c2")},
	}
	if err := db.Replace(NewHeader(), records); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	got, err := db.Entries()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Label != "" || string(got[0].Ciphertext) != "c1" {
		t.Errorf("Entry 0: got %+v", got[0])
	}
	if got[1].Label != "bank" {
		t.Errorf("Entry 1: got %s, want bank", got[1].Label)
	}
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	h := NewHeader()
	if err := db.Replace(h, []Record{{Label: "bank", Seq: 1, Key: []byte("key"), Ciphertext: []byte("data")}}); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}
	db.Close()

	// Reopen and verify
	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db2.Close()

	got, err := db2.Header()
	if err != nil {
		t.Fatalf("Failed to get header: %v", err)
	}
	if got.VaultID != h.VaultID {
		t.Errorf("VaultID not persisted")
	}

	entries, err := db2.Entries()
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 || string(entries[0].Ciphertext) != "data" {
		t.Error("Entry not persisted correctly")
	}
}

func TestOpenLockedFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := Open(dbPath); !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}
}

func TestCompact(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.pwvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	h := NewHeader()
	var records []Record
	for i := 0; i < 50; i++ {
		records = append(records, Record{
			Label:      "entry-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Seq:        uint64(i + 1),
			Key:        make([]byte, 64),
			Ciphertext: make([]byte, 512),
		})
	}
	if err := db.Replace(h, records); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}
	if err := db.Replace(h, records[:2]); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	entries, err := db.Entries()
	if err != nil {
		t.Fatalf("Failed to read entries after compact: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries after compact, got %d", len(entries))
	}
	if _, err := os.Stat(dbPath + ".backup"); !os.IsNotExist(err) {
		t.Error("Backup file should be removed")
	}
}

// Package store implements the durable record tables backing the chord-sheet
// and search-result caches. One BoltDB file holds every namespace: the sheet
// table with its saved-flag index, the two result-cache tables, and a meta
// bucket tracking the schema version.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/capoapp/capo/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSheets   = []byte("sheets")
	bucketSavedIdx = []byte("saved_idx")
	bucketSearches = []byte("searches")
	bucketArtists  = []byte("artists")
	bucketMeta     = []byte("meta")
)

var keySchemaVersion = []byte("schema_version")

// schemaVersion 2 added the saved-flag index bucket. Opening a v1 file
// rebuilds the index from the sheet rows without touching them.
const schemaVersion = 2

// SavedFlag partitions the sheet table into the user library and the
// transient fetch cache. The two values are deliberately distinct strings
// rather than booleans or adjacent integers so the index discriminates them
// unambiguously.
type SavedFlag string

const (
	FlagSaved   SavedFlag = "saved"
	FlagUnsaved SavedFlag = "unsaved"
)

// FlagFor translates the domain-level boolean into the indexed
// representation. The reverse direction is SavedFlag.Bool.
func FlagFor(saved bool) SavedFlag {
	if saved {
		return FlagSaved
	}
	return FlagUnsaved
}

// Bool reports whether the flag marks a saved (user library) record.
func (f SavedFlag) Bool() bool { return f == FlagSaved }

// SheetRecord is one row of the sheet table.
type SheetRecord struct {
	ID          string            `json:"id"`
	Artist      string            `json:"artist"`
	Title       string            `json:"title"`
	Saved       SavedFlag         `json:"saved"`
	Sheet       domain.ChordSheet `json:"chordSheet"`
	Timestamp   int64             `json:"timestamp"`   // Epoch millis, last write or touch
	AccessCount int               `json:"accessCount"` // Reads since insert
}

// ResultRecord is one row of a result-cache table (searches or artist song
// lists). Result rows have no saved partition; they are always transient.
type ResultRecord struct {
	Key         string               `json:"key"`
	Query       string               `json:"query"` // Original query text, for display
	Results     []domain.SongSummary `json:"results"`
	Timestamp   int64                `json:"timestamp"`
	AccessCount int                  `json:"accessCount"`
}

// Namespace selects one of the result-cache tables.
type Namespace string

const (
	NamespaceSearches Namespace = "searches"
	NamespaceArtists  Namespace = "artists"
)

func (n Namespace) bucket() []byte {
	if n == NamespaceArtists {
		return bucketArtists
	}
	return bucketSearches
}

// Store is the process-wide handle on the durable tables. Open one per
// database file and share it; bbolt serializes writers, so interleaved use
// from one process is safe.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures the schema is
// current. Failure to open maps to domain.ErrStorageUnavailable so callers
// can degrade to an empty, non-persistent session.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSheets, bucketSavedIdx, bucketSearches, bucketArtists, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return migrate(tx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return &Store{db: db}, nil
}

// migrate upgrades the on-disk schema in place. The only upgrade so far is
// rebuilding the saved index for files written before it existed.
func migrate(tx *bolt.Tx) error {
	meta := tx.Bucket(bucketMeta)
	if version := readVersion(meta); version >= schemaVersion {
		return nil
	}

	idx := tx.Bucket(bucketSavedIdx)
	c := tx.Bucket(bucketSheets).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var rec SheetRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			continue // Corrupt rows are cleaned lazily on read
		}
		flag := rec.Saved
		if flag != FlagSaved {
			flag = FlagUnsaved
		}
		if err := idx.Put(indexKey(flag, rec.ID), k); err != nil {
			return err
		}
	}

	return meta.Put(keySchemaVersion, encodeVersion(schemaVersion))
}

func readVersion(meta *bolt.Bucket) uint64 {
	v := meta.Get(keySchemaVersion)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func encodeVersion(version uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, version)
	return buf
}

func indexKey(flag SavedFlag, id string) []byte {
	return []byte(string(flag) + ":" + id)
}

// Close releases the database file.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Sheets ===

// PutSheet upserts a sheet row by ID and keeps the saved index in step.
// Nothing from any previous row survives except what the caller merged in.
func (s *Store) PutSheet(rec *SheetRecord) error {
	if rec.Saved != FlagSaved {
		rec.Saved = FlagUnsaved
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal sheet %s: %w", rec.ID, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		id := []byte(rec.ID)
		idx := tx.Bucket(bucketSavedIdx)
		// An upsert may flip the flag, so clear both index slots first
		if err := idx.Delete(indexKey(FlagSaved, rec.ID)); err != nil {
			return err
		}
		if err := idx.Delete(indexKey(FlagUnsaved, rec.ID)); err != nil {
			return err
		}
		if err := idx.Put(indexKey(rec.Saved, rec.ID), id); err != nil {
			return err
		}
		return tx.Bucket(bucketSheets).Put(id, data)
	})
	return writeError("put sheet", err)
}

// GetSheet returns the row for id, or nil without error on a miss. A row
// that no longer decodes is deleted and reported as a miss; corruption never
// propagates past the store boundary.
func (s *Store) GetSheet(id string) (*SheetRecord, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSheets).Get([]byte(id)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get sheet %s: %w", id, err)
	}
	if data == nil {
		return nil, nil
	}

	var rec SheetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt entry: drop it and treat as a miss
		_ = s.DeleteSheet(id)
		return nil, nil
	}
	return &rec, nil
}

// DeleteSheet removes a row and its index entries. Deleting an absent row
// is not an error.
func (s *Store) DeleteSheet(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketSavedIdx)
		if err := idx.Delete(indexKey(FlagSaved, id)); err != nil {
			return err
		}
		if err := idx.Delete(indexKey(FlagUnsaved, id)); err != nil {
			return err
		}
		return tx.Bucket(bucketSheets).Delete([]byte(id))
	})
	return writeError("delete sheet", err)
}

// SheetsBySaved returns every row in one partition via the saved index.
// Dangling or corrupt index targets are repaired in the same transaction.
func (s *Store) SheetsBySaved(flag SavedFlag) ([]*SheetRecord, error) {
	var records []*SheetRecord
	err := s.db.Update(func(tx *bolt.Tx) error {
		sheets := tx.Bucket(bucketSheets)
		idx := tx.Bucket(bucketSavedIdx)
		prefix := []byte(string(flag) + ":")

		c := idx.Cursor()
		for k, id := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, id = c.Next() {
			v := sheets.Get(id)
			if v == nil {
				// Dangling index entry
				if err := idx.Delete(k); err != nil {
					return err
				}
				continue
			}
			var rec SheetRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				if err := sheets.Delete(id); err != nil {
					return err
				}
				if err := idx.Delete(k); err != nil {
					return err
				}
				continue
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query sheets by %s: %w", flag, err)
	}
	return records, nil
}

// AllSheets scans the whole sheet table. Maintenance and debugging only;
// the saved index is the query path for anything user-facing.
func (s *Store) AllSheets() ([]*SheetRecord, error) {
	var records []*SheetRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSheets).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec SheetRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sheets: %w", err)
	}
	return records, nil
}

// SheetCount returns the number of sheet rows across both partitions.
func (s *Store) SheetCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSheets).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count sheets: %w", err)
	}
	return n, nil
}

// === Result caches ===

// PutResult upserts a result row in the given namespace.
func (s *Store) PutResult(ns Namespace, rec *ResultRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", rec.Key, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ns.bucket()).Put([]byte(rec.Key), data)
	})
	return writeError("put result", err)
}

// GetResult returns the row for key, nil on a miss. Corrupt rows are
// deleted and reported as misses, matching GetSheet.
func (s *Store) GetResult(ns Namespace, key string) (*ResultRecord, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(ns.bucket()).Get([]byte(key)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}

	var rec ResultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = s.DeleteResult(ns, key)
		return nil, nil
	}
	return &rec, nil
}

// DeleteResult removes a result row; absent keys are not an error.
func (s *Store) DeleteResult(ns Namespace, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ns.bucket()).Delete([]byte(key))
	})
	return writeError("delete result", err)
}

// AllResults scans one result namespace, skipping rows that fail to decode.
func (s *Store) AllResults(ns Namespace) ([]*ResultRecord, error) {
	var records []*ResultRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(ns.bucket()).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec ResultRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", ns, err)
	}
	return records, nil
}

// ResultCount returns the number of rows in one result namespace.
func (s *Store) ResultCount(ns Namespace) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(ns.bucket()).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", ns, err)
	}
	return n, nil
}

// writeError maps storage-engine write failures onto the domain taxonomy.
// Out-of-space failures become ErrQuotaExceeded so the repository can run
// its sweep-and-retry; everything else passes through wrapped.
func writeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%s: %w", op, domain.ErrQuotaExceeded)
	}
	return fmt.Errorf("%s: %w", op, err)
}

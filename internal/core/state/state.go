// Package state manages speedbuild's persistent build history using BoltDB.
// All writes are transactional; reads use read-only transactions to minimise contention.
package state

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	v1 "github.com/f9-o/speedbuild/api/v1"
)

// Bucket names
var (
	bucketBuilds = []byte("builds")
)

// DB wraps a BoltDB instance with typed accessor methods.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the state database at the given path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state db %q: %w", path, err)
	}

	// Ensure all buckets exist
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketBuilds} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &DB{bolt: db}, nil
}

// Close closes the underlying BoltDB file.
func (db *DB) Close() error {
	return db.bolt.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Build history
// ─────────────────────────────────────────────────────────────────────────────

// PutBuild appends a build record to the history. Record IDs are
// timestamp-prefixed, so key order equals chronological order.
func (db *DB) PutBuild(rec v1.BuildRecord) error {
	return db.putJSON(bucketBuilds, rec.ID, rec)
}

// GetBuild retrieves a BuildRecord by ID. Returns nil, nil if not found.
func (db *DB) GetBuild(id string) (*v1.BuildRecord, error) {
	var rec v1.BuildRecord
	found, err := db.getJSON(bucketBuilds, id, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &rec, nil
}

// LatestBuild returns the most recent build record, or nil if history is empty.
func (db *DB) LatestBuild() (*v1.BuildRecord, error) {
	var rec *v1.BuildRecord
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketBuilds).Cursor()
		k, v := c.Last()
		if k == nil {
			return nil
		}
		var r v1.BuildRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("unmarshal build %q: %w", k, err)
		}
		rec = &r
		return nil
	})
	return rec, err
}

// ListBuilds returns build records newest-first. A limit of 0 returns all.
func (db *DB) ListBuilds(limit int) ([]v1.BuildRecord, error) {
	var recs []v1.BuildRecord
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketBuilds).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r v1.BuildRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal build %q: %w", k, err)
			}
			recs = append(recs, r)
			if limit > 0 && len(recs) >= limit {
				return nil
			}
		}
		return nil
	})
	return recs, err
}

// PruneBuilds removes all but the newest keep records and returns the
// removed ones so callers can clean up per-build log files.
func (db *DB) PruneBuilds(keep int) ([]v1.BuildRecord, error) {
	if keep <= 0 {
		return nil, nil
	}

	var removed []v1.BuildRecord
	err := db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketBuilds)
		total := b.Stats().KeyN
		excess := total - keep
		if excess <= 0 {
			return nil
		}

		c := b.Cursor()
		for k, v := c.First(); k != nil && excess > 0; k, v = c.Next() {
			var r v1.BuildRecord
			if err := json.Unmarshal(v, &r); err == nil {
				removed = append(removed, r)
			}
			if err := c.Delete(); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Generic helpers
// ─────────────────────────────────────────────────────────────────────────────

func (db *DB) putJSON(bucket []byte, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (db *DB) getJSON(bucket []byte, key string, out any) (bool, error) {
	var found bool
	err := db.bolt.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, out)
	})
	return found, err
}

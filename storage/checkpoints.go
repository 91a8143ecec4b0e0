package storage

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

// CheckpointStore persists the last applied push sequence number per
// collection, so a restarted gateway does not re-apply events it already
// reconciled.
type CheckpointStore struct {
	db *bbolt.DB
}

// NewCheckpointStore wraps the database's checkpoint bucket.
func NewCheckpointStore(db *bbolt.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// LoadCheckpoint returns the stored sequence for the collection, or zero when
// none has been saved yet.
func (cs *CheckpointStore) LoadCheckpoint(collection string) (int64, error) {
	var seq int64
	err := cs.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketCheckpoints)).Get([]byte(collection))
		if len(v) == 8 {
			seq = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint for %s: %w", collection, err)
	}
	return seq, nil
}

// SaveCheckpoint stores the sequence for the collection.
func (cs *CheckpointStore) SaveCheckpoint(collection string, seq int64) error {
	err := cs.db.Update(func(tx *bbolt.Tx) error {
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, uint64(seq))
		return tx.Bucket([]byte(bucketCheckpoints)).Put([]byte(collection), v)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint for %s: %w", collection, err)
	}
	return nil
}

package storage

import (
	"encoding/binary"
	"time"

	"go.etcd.io/bbolt"
)

// SessionStorage is a bbolt-backed implementation of fiber.Storage used by
// the session middleware. Each value carries its expiry as an 8-byte unix
// nanosecond prefix; expired entries are dropped lazily on read.
type SessionStorage struct {
	db *bbolt.DB
}

// NewSessionStorage wraps the database's session bucket.
func NewSessionStorage(db *bbolt.DB) *SessionStorage {
	return &SessionStorage{db: db}
}

// Get returns the value for the key, or nil when missing or expired.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	var out []byte
	expired := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketSessions)).Get([]byte(key))
		if len(v) < 8 {
			return nil
		}
		exp := int64(binary.BigEndian.Uint64(v[:8]))
		if exp != 0 && exp < time.Now().UnixNano() {
			expired = true
			return nil
		}
		out = append([]byte(nil), v[8:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		_ = s.Delete(key)
	}
	return out, nil
}

// Set stores the value; a zero expiry means the entry never expires.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		v := make([]byte, 8+len(val))
		if exp > 0 {
			binary.BigEndian.PutUint64(v[:8], uint64(time.Now().Add(exp).UnixNano()))
		}
		copy(v[8:], val)
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(key), v)
	})
}

// Delete removes the key.
func (s *SessionStorage) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).Delete([]byte(key))
	})
}

// Reset drops all sessions.
func (s *SessionStorage) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketSessions)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketSessions))
		return err
	})
}

// Close is a no-op; the shared database is closed by its owner.
func (s *SessionStorage) Close() error { return nil }

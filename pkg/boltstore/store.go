// Package boltstore is a thin bucketed key-value store on top of bbolt.
package boltstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultDBTimeout is how long Open waits for the file lock.
const DefaultDBTimeout = 5 * time.Second

// Store ...
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bolt file datadir/filename and makes sure all
// the given buckets exist.
func Open(datadir, filename string, buckets ...[]byte) (*Store, error) {
	if err := os.MkdirAll(datadir, 0755); err != nil {
		return nil, fmt.Errorf("create datadir: %w", err)
	}

	db, err := bolt.Open(
		filepath.Join(datadir, filename), 0600,
		&bolt.Options{Timeout: DefaultDBTimeout},
	)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// Get returns a copy of the value stored for key, or nil if not found.
func (s *Store) Get(bucket, key []byte) ([]byte, error) {
	if len(key) <= 0 {
		return nil, ErrMissingKey
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		if v := b.Get(key); v != nil {
			value = append([]byte{}, v...)
		}
		return nil
	})
	return value, err
}

// GetAll returns all the key-value pairs of the bucket.
func (s *Store) GetAll(bucket []byte) (map[string][]byte, error) {
	values := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		return b.ForEach(func(k, v []byte) error {
			values[string(k)] = append([]byte{}, v...)
			return nil
		})
	})
	return values, err
}

// Put ...
func (s *Store) Put(bucket, key, value []byte) error {
	if len(key) <= 0 {
		return ErrMissingKey
	}
	if len(value) <= 0 {
		return ErrMissingData
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		return b.Put(key, value)
	})
}

// PutIfAbsent stores value for key unless a value is already stored. It
// returns the value stored after the call and whether it was added.
func (s *Store) PutIfAbsent(bucket, key, value []byte) ([]byte, bool, error) {
	if len(key) <= 0 {
		return nil, false, ErrMissingKey
	}
	if len(value) <= 0 {
		return nil, false, ErrMissingData
	}

	var stored []byte
	var added bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		if v := b.Get(key); v != nil {
			stored = append([]byte{}, v...)
			return nil
		}
		stored, added = value, true
		return b.Put(key, value)
	})
	if err != nil {
		return nil, false, err
	}
	return stored, added, nil
}

// Delete removes key from the bucket. Deleting a missing key is a no-op.
func (s *Store) Delete(bucket, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		return b.Delete(key)
	})
}

// Update runs fn in a read-write transaction, for changes that must span
// several keys or buckets atomically.
func (s *Store) Update(fn func(tx *bolt.Tx) error) error {
	return s.db.Update(fn)
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(tx *bolt.Tx) error) error {
	return s.db.View(fn)
}

// Close ...
func (s *Store) Close() error {
	return s.db.Close()
}

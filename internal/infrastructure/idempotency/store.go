// Package idempotency persists the ids of the resources created on behalf of
// client supplied idempotency keys.
package idempotency

import (
	"fmt"
	"strings"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/pkg/boltstore"
)

const (
	storeFilename = "idempotency.db"
	maxKeyLen     = 255
)

var keysBucket = []byte("keys")

type store struct {
	db *boltstore.Store
}

// NewStore opens the bolt backed key store in datadir.
func NewStore(datadir string) (ports.IdempotencyStore, error) {
	db, err := boltstore.Open(datadir, storeFilename, keysBucket)
	if err != nil {
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) Get(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	buf, err := s.db.Get(keysBucket, []byte(key))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (s *store) PutIfAbsent(key, id string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: missing resource id", domain.ErrInvalidArgument)
	}
	stored, _, err := s.db.PutIfAbsent(keysBucket, []byte(key), []byte(id))
	if err != nil {
		return "", err
	}
	return string(stored), nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: missing idempotency key", domain.ErrInvalidArgument)
	}
	if len(key) > maxKeyLen {
		return fmt.Errorf(
			"%w: idempotency key exceeds %d chars", domain.ErrInvalidArgument, maxKeyLen,
		)
	}
	return nil
}

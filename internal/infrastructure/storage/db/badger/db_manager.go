package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	exchangeDir    = "exchanges"
	reservationDir = "reservations"
	transitionDir  = "transitions"
)

type repoManager struct {
	exchangeStore    *badgerhold.Store
	reservationStore *badgerhold.Store
	transitionStore  *badgerhold.Store

	exchangeRepository    domain.ExchangeRepository
	reservationRepository domain.ReservationRepository
	transitionRepository  domain.TransitionRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger, each repository gets a
// dedicated directory. An empty base dir keeps everything in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var exchangeDb, reservationDb, transitionDb *badgerhold.Store
	var err error

	dbDir := func(name string) string {
		if len(baseDbDir) <= 0 {
			return ""
		}
		return filepath.Join(baseDbDir, name)
	}

	exchangeDb, err = createDb(dbDir(exchangeDir), logger)
	if err != nil {
		return nil, fmt.Errorf("opening exchange db: %w", err)
	}

	reservationDb, err = createDb(dbDir(reservationDir), logger)
	if err != nil {
		exchangeDb.Close()
		return nil, fmt.Errorf("opening reservation db: %w", err)
	}

	transitionDb, err = createDb(dbDir(transitionDir), logger)
	if err != nil {
		exchangeDb.Close()
		reservationDb.Close()
		return nil, fmt.Errorf("opening transition db: %w", err)
	}

	return &repoManager{
		exchangeStore:         exchangeDb,
		reservationStore:      reservationDb,
		transitionStore:       transitionDb,
		exchangeRepository:    NewExchangeRepositoryImpl(exchangeDb),
		reservationRepository: NewReservationRepositoryImpl(reservationDb),
		transitionRepository:  NewTransitionRepositoryImpl(transitionDb),
	}, nil
}

func (r *repoManager) ExchangeRepository() domain.ExchangeRepository {
	return r.exchangeRepository
}

func (r *repoManager) ReservationRepository() domain.ReservationRepository {
	return r.reservationRepository
}

func (r *repoManager) TransitionRepository() domain.TransitionRepository {
	return r.transitionRepository
}

func (r *repoManager) Close() {
	for _, store := range []*badgerhold.Store{
		r.exchangeStore, r.reservationStore, r.transitionStore,
	} {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("error while closing badger store")
		}
	}
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	var opts badger.Options
	if len(dbDir) <= 0 {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dbDir)
		opts.Compression = options.ZSTD
	}
	opts.Logger = logger

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

package pubsub

import (
	"sort"

	"github.com/barterbay/barterd/pkg/boltstore"
)

const storeFilename = "pubsub.db"

var subsBucket = []byte("subscriptions")

type store struct {
	db *boltstore.Store
}

func newStore(datadir string) (*store, error) {
	db, err := boltstore.Open(datadir, storeFilename, subsBucket)
	if err != nil {
		return nil, err
	}
	return &store{db}, nil
}

func (s *store) get(id string) (*Subscription, error) {
	buf, err := s.db.Get(subsBucket, []byte(id))
	if err != nil || buf == nil {
		return nil, err
	}
	return decodeSubscription(buf)
}

func (s *store) add(sub *Subscription) error {
	buf, err := sub.encode()
	if err != nil {
		return err
	}
	return s.db.Put(subsBucket, []byte(sub.ID), buf)
}

func (s *store) remove(id string) error {
	return s.db.Delete(subsBucket, []byte(id))
}

func (s *store) list() (subscriptions, error) {
	all, err := s.db.GetAll(subsBucket)
	if err != nil {
		return nil, err
	}

	subs := make(subscriptions, 0, len(all))
	for _, buf := range all {
		sub, err := decodeSubscription(buf)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

func (s *store) close() error {
	return s.db.Close()
}

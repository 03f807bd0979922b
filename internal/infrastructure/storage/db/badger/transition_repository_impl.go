package dbbadger

import (
	"context"
	"errors"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

type transitionRepositoryImpl struct {
	store *badgerhold.Store
}

func NewTransitionRepositoryImpl(store *badgerhold.Store) domain.TransitionRepository {
	return transitionRepositoryImpl{store}
}

func (r transitionRepositoryImpl) AppendTransitions(
	ctx context.Context, transitions ...domain.Transition,
) error {
	insert := func(tx *badger.Txn) error {
		for _, t := range transitions {
			err := r.store.TxInsert(tx, t.Id, t)
			if err != nil && !errors.Is(err, badgerhold.ErrKeyExists) {
				return err
			}
		}
		return nil
	}

	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		return insert(tx)
	}
	return r.store.Badger().Update(insert)
}

func (r transitionRepositoryImpl) ListTransitions(
	ctx context.Context, exchangeId string,
) ([]domain.Transition, error) {
	query := badgerhold.Where("ExchangeId").Eq(exchangeId).SortBy("Id")

	var transitions []domain.Transition
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = r.store.TxFind(tx, &transitions, query)
	} else {
		err = r.store.Find(&transitions, query)
	}
	if transitions == nil {
		transitions = make([]domain.Transition, 0)
	}
	return transitions, err
}

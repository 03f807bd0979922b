package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

var sortFieldNames = map[domain.SortField]string{
	domain.SortByCreatedAt:   "CreatedAt",
	domain.SortByUpdatedAt:   "UpdatedAt",
	domain.SortByCompletedAt: "CompletedAt",
	domain.SortByStatus:      "Status",
}

type exchangeRepositoryImpl struct {
	store *badgerhold.Store
}

func NewExchangeRepositoryImpl(store *badgerhold.Store) domain.ExchangeRepository {
	return exchangeRepositoryImpl{store}
}

func (r exchangeRepositoryImpl) AddExchange(
	ctx context.Context, exchange *domain.Exchange,
) error {
	if exchange.Version == 0 {
		exchange.Version = 1
	}

	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = r.store.TxInsert(tx, exchange.Id, *exchange)
	} else {
		err = r.store.Insert(exchange.Id, *exchange)
	}
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return ErrExchangeAlreadyExists
	}
	return err
}

func (r exchangeRepositoryImpl) GetExchange(
	ctx context.Context, id string,
) (*domain.Exchange, error) {
	return r.getExchange(ctx, id)
}

func (r exchangeRepositoryImpl) UpdateExchange(
	ctx context.Context,
	id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	current, err := r.getExchange(ctx, id)
	if err != nil {
		return err
	}
	readVersion := current.Version

	updated, err := updateFn(current)
	if err != nil {
		return err
	}
	updated.Version = readVersion + 1

	commit := func(tx *badger.Txn) error {
		var stored domain.Exchange
		if err := r.store.TxGet(tx, id, &stored); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if stored.Version != readVersion {
			return domain.ErrConcurrentModification
		}
		return r.store.TxUpdate(tx, id, *updated)
	}

	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		return commit(tx)
	}

	err = r.store.Badger().Update(commit)
	if errors.Is(err, badger.ErrConflict) {
		return domain.ErrConcurrentModification
	}
	return err
}

func (r exchangeRepositoryImpl) ListExchangesForUser(
	ctx context.Context, filter domain.ExchangeFilter, page domain.Page,
) ([]domain.Exchange, int, error) {
	query := badgerhold.Where("RequesterId").Eq(filter.UserId).
		Or(badgerhold.Where("ReceiverId").Eq(filter.UserId))

	exchanges, err := r.findExchanges(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	matches := make([]domain.Exchange, 0, len(exchanges))
	for _, e := range exchanges {
		if filter.Match(e) {
			matches = append(matches, e)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return domain.DefaultSort.Less(matches[i], matches[j])
	})

	start, end := page.Bounds(len(matches))
	return matches[start:end], len(matches), nil
}

func (r exchangeRepositoryImpl) ListExchanges(
	ctx context.Context, sortBy domain.ExchangeSort, page domain.Page,
) ([]domain.Exchange, int, error) {
	count, err := r.store.Count(&domain.Exchange{}, nil)
	if err != nil {
		return nil, 0, err
	}

	field, ok := sortFieldNames[sortBy.Field]
	if !ok {
		field = sortFieldNames[domain.SortByCreatedAt]
	}
	query := (&badgerhold.Query{}).SortBy(field, "Id")
	if sortBy.Desc {
		query = query.Reverse()
	}
	query = query.Skip(page.Offset()).Limit(page.Size)

	exchanges, err := r.findExchanges(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return exchanges, int(count), nil
}

func (r exchangeRepositoryImpl) ListExpiredExchanges(
	ctx context.Context, now int64,
) ([]domain.Exchange, error) {
	query := badgerhold.Where("Status").Eq(domain.StatusPending).
		And("ExpiresAt").Gt(int64(0)).
		And("ExpiresAt").Le(now).
		SortBy("ExpiresAt")

	return r.findExchanges(ctx, query)
}

func (r exchangeRepositoryImpl) getExchange(
	ctx context.Context, id string,
) (*domain.Exchange, error) {
	var exchange domain.Exchange
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = r.store.TxGet(tx, id, &exchange)
	} else {
		err = r.store.Get(id, &exchange)
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &exchange, nil
}

func (r exchangeRepositoryImpl) findExchanges(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Exchange, error) {
	var exchanges []domain.Exchange
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = r.store.TxFind(tx, &exchanges, query)
	} else {
		err = r.store.Find(&exchanges, query)
	}
	if exchanges == nil {
		exchanges = make([]domain.Exchange, 0)
	}
	return exchanges, err
}

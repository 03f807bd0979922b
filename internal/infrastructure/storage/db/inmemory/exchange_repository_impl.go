package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/barterbay/barterd/internal/core/domain"
)

type exchangeInmemoryStore struct {
	exchanges map[string]domain.Exchange
	locker    *sync.RWMutex
}

type exchangeRepositoryImpl struct {
	store *exchangeInmemoryStore
}

// NewExchangeRepositoryImpl returns a new inmemory ExchangeRepository
// implementation.
func NewExchangeRepositoryImpl() domain.ExchangeRepository {
	return &exchangeRepositoryImpl{&exchangeInmemoryStore{
		exchanges: map[string]domain.Exchange{},
		locker:    &sync.RWMutex{},
	}}
}

func (r *exchangeRepositoryImpl) AddExchange(
	_ context.Context, exchange *domain.Exchange,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.exchanges[exchange.Id]; ok {
		return ErrExchangeAlreadyExists
	}
	if exchange.Version == 0 {
		exchange.Version = 1
	}
	r.store.exchanges[exchange.Id] = *exchange
	return nil
}

func (r *exchangeRepositoryImpl) GetExchange(
	_ context.Context, id string,
) (*domain.Exchange, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	return r.getExchange(id)
}

func (r *exchangeRepositoryImpl) UpdateExchange(
	_ context.Context,
	id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	// The lock is not held while updateFn runs, the version check at commit
	// time detects concurrent writers.
	r.store.locker.RLock()
	current, err := r.getExchange(id)
	r.store.locker.RUnlock()
	if err != nil {
		return err
	}
	readVersion := current.Version

	updated, err := updateFn(current)
	if err != nil {
		return err
	}

	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	stored, ok := r.store.exchanges[id]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != readVersion {
		return domain.ErrConcurrentModification
	}

	updated.Version = readVersion + 1
	r.store.exchanges[id] = *updated
	return nil
}

func (r *exchangeRepositoryImpl) ListExchangesForUser(
	_ context.Context, filter domain.ExchangeFilter, page domain.Page,
) ([]domain.Exchange, int, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	matches := make([]domain.Exchange, 0)
	for _, e := range r.store.exchanges {
		if filter.Match(e) {
			matches = append(matches, e)
		}
	}
	return paginate(matches, domain.DefaultSort, page)
}

func (r *exchangeRepositoryImpl) ListExchanges(
	_ context.Context, sortBy domain.ExchangeSort, page domain.Page,
) ([]domain.Exchange, int, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	all := make([]domain.Exchange, 0, len(r.store.exchanges))
	for _, e := range r.store.exchanges {
		all = append(all, e)
	}
	return paginate(all, sortBy, page)
}

func (r *exchangeRepositoryImpl) ListExpiredExchanges(
	_ context.Context, now int64,
) ([]domain.Exchange, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	expired := make([]domain.Exchange, 0)
	for _, e := range r.store.exchanges {
		if e.Status == domain.StatusPending && e.ExpiresAt > 0 && e.ExpiresAt <= now {
			expired = append(expired, e)
		}
	}
	sort.SliceStable(expired, func(i, j int) bool {
		return expired[i].ExpiresAt < expired[j].ExpiresAt
	})
	return expired, nil
}

func (r *exchangeRepositoryImpl) getExchange(id string) (*domain.Exchange, error) {
	exchange, ok := r.store.exchanges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &exchange, nil
}

func paginate(
	list []domain.Exchange, sortBy domain.ExchangeSort, page domain.Page,
) ([]domain.Exchange, int, error) {
	sort.SliceStable(list, func(i, j int) bool {
		return sortBy.Less(list[i], list[j])
	})
	start, end := page.Bounds(len(list))
	return list[start:end], len(list), nil
}

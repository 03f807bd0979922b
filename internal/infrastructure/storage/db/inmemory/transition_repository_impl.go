package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/barterbay/barterd/internal/core/domain"
)

type transitionRepositoryImpl struct {
	transitions map[string][]domain.Transition
	locker      *sync.RWMutex
}

// NewTransitionRepositoryImpl returns a new inmemory TransitionRepository
// implementation.
func NewTransitionRepositoryImpl() domain.TransitionRepository {
	return &transitionRepositoryImpl{
		transitions: map[string][]domain.Transition{},
		locker:      &sync.RWMutex{},
	}
}

func (r *transitionRepositoryImpl) AppendTransitions(
	_ context.Context, transitions ...domain.Transition,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	for _, t := range transitions {
		r.transitions[t.ExchangeId] = append(r.transitions[t.ExchangeId], t)
	}
	return nil
}

func (r *transitionRepositoryImpl) ListTransitions(
	_ context.Context, exchangeId string,
) ([]domain.Transition, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	list := make([]domain.Transition, len(r.transitions[exchangeId]))
	copy(list, r.transitions[exchangeId])
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Id < list[j].Id
	})
	return list, nil
}

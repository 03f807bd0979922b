package inmemory

import (
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
)

type RepoManager struct {
	exchangeRepository    domain.ExchangeRepository
	reservationRepository domain.ReservationRepository
	transitionRepository  domain.TransitionRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		exchangeRepository:    NewExchangeRepositoryImpl(),
		reservationRepository: NewReservationRepositoryImpl(),
		transitionRepository:  NewTransitionRepositoryImpl(),
	}
}

func (d *RepoManager) ExchangeRepository() domain.ExchangeRepository {
	return d.exchangeRepository
}

func (d *RepoManager) ReservationRepository() domain.ReservationRepository {
	return d.reservationRepository
}

func (d *RepoManager) TransitionRepository() domain.TransitionRepository {
	return d.transitionRepository
}

func (d *RepoManager) Close() {}

package ports

import (
	"github.com/barterbay/barterd/internal/core/domain"
)

// RepoManager gives access to the repositories of a storage backend.
type RepoManager interface {
	ExchangeRepository() domain.ExchangeRepository
	ReservationRepository() domain.ReservationRepository
	TransitionRepository() domain.TransitionRepository

	Close()
}

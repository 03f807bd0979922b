package inmemory

import (
	"context"
	"sync"

	"github.com/barterbay/barterd/internal/core/domain"
)

type reservationRepositoryImpl struct {
	reservations           map[string]domain.Reservation
	reservationsByExchange map[string][]string
	locker                 *sync.RWMutex
}

// NewReservationRepositoryImpl returns a new inmemory ReservationRepository
// implementation.
func NewReservationRepositoryImpl() domain.ReservationRepository {
	return &reservationRepositoryImpl{
		reservations:           map[string]domain.Reservation{},
		reservationsByExchange: map[string][]string{},
		locker:                 &sync.RWMutex{},
	}
}

func (r *reservationRepositoryImpl) AddReservations(
	_ context.Context, reservations ...domain.Reservation,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	for _, res := range reservations {
		if _, ok := r.reservations[res.Id]; ok {
			continue
		}
		r.reservations[res.Id] = res
		r.reservationsByExchange[res.ExchangeId] = append(
			r.reservationsByExchange[res.ExchangeId], res.Id,
		)
	}
	return nil
}

func (r *reservationRepositoryImpl) GetReservationsForExchange(
	_ context.Context, exchangeId string,
) ([]domain.Reservation, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	ids := r.reservationsByExchange[exchangeId]
	list := make([]domain.Reservation, 0, len(ids))
	for _, id := range ids {
		list = append(list, r.reservations[id])
	}
	return list, nil
}

func (r *reservationRepositoryImpl) ReservedAmount(
	_ context.Context, productId, size, color string,
) (uint64, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	key := domain.SliceKey(productId, size, color)
	var amount uint64
	for _, res := range r.reservations {
		if res.IsActive() && res.SliceKey() == key {
			amount += res.Amount
		}
	}
	return amount, nil
}

func (r *reservationRepositoryImpl) ResolveReservations(
	_ context.Context, exchangeId string, status domain.ReservationStatus, at int64,
) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	count := 0
	for _, id := range r.reservationsByExchange[exchangeId] {
		res := r.reservations[id]
		ok, err := res.Resolve(status, at)
		if err != nil {
			return count, err
		}
		if ok {
			r.reservations[id] = res
			count++
		}
	}
	return count, nil
}

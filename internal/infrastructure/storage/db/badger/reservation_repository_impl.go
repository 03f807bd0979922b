package dbbadger

import (
	"context"
	"errors"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

type reservationRepositoryImpl struct {
	store *badgerhold.Store
}

func NewReservationRepositoryImpl(store *badgerhold.Store) domain.ReservationRepository {
	return reservationRepositoryImpl{store}
}

func (r reservationRepositoryImpl) AddReservations(
	ctx context.Context, reservations ...domain.Reservation,
) error {
	insert := func(tx *badger.Txn) error {
		for _, res := range reservations {
			err := r.store.TxInsert(tx, res.Id, res)
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

func (r reservationRepositoryImpl) GetReservationsForExchange(
	ctx context.Context, exchangeId string,
) ([]domain.Reservation, error) {
	query := badgerhold.Where("ExchangeId").Eq(exchangeId).SortBy("Id")
	return r.findReservations(ctx, query)
}

func (r reservationRepositoryImpl) ReservedAmount(
	ctx context.Context, productId, size, color string,
) (uint64, error) {
	query := badgerhold.Where("ProductId").Eq(productId).
		And("Size").Eq(size).
		And("Color").Eq(color).
		And("Status").Eq(domain.ReservationActive)

	reservations, err := r.findReservations(ctx, query)
	if err != nil {
		return 0, err
	}

	var amount uint64
	for _, res := range reservations {
		amount += res.Amount
	}
	return amount, nil
}

func (r reservationRepositoryImpl) ResolveReservations(
	ctx context.Context, exchangeId string, status domain.ReservationStatus, at int64,
) (int, error) {
	count := 0
	resolve := func(tx *badger.Txn) error {
		var reservations []domain.Reservation
		query := badgerhold.Where("ExchangeId").Eq(exchangeId).
			And("Status").Eq(domain.ReservationActive)
		if err := r.store.TxFind(tx, &reservations, query); err != nil {
			return err
		}

		for i := range reservations {
			res := reservations[i]
			ok, err := res.Resolve(status, at)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := r.store.TxUpdate(tx, res.Id, res); err != nil {
				return err
			}
			count++
		}
		return nil
	}

	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = resolve(tx)
	} else {
		err = r.store.Badger().Update(resolve)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r reservationRepositoryImpl) findReservations(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	var err error
	if tx, ok := ctx.Value("tx").(*badger.Txn); ok {
		err = r.store.TxFind(tx, &reservations, query)
	} else {
		err = r.store.Find(&reservations, query)
	}
	if reservations == nil {
		reservations = make([]domain.Reservation, 0)
	}
	return reservations, err
}

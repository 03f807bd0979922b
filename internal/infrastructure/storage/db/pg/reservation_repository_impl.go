package postgresdb

import (
	"context"
	"fmt"

	"github.com/barterbay/barterd/internal/core/domain"
)

type reservationRepositoryImpl struct {
	db     querier
	execTx execTxFn
}

func newReservationRepositoryImpl(
	db querier, execTx execTxFn,
) domain.ReservationRepository {
	return &reservationRepositoryImpl{db, execTx}
}

func (r *reservationRepositoryImpl) AddReservations(
	ctx context.Context, reservations ...domain.Reservation,
) error {
	return r.execTx(ctx, func(q querier) error {
		for _, res := range reservations {
			if _, err := q.Exec(
				ctx,
				`INSERT INTO reservation (
				   id, fk_exchange_id, user_id, product_id, size, color, amount,
				   status, created_at, resolved_at
				 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				 ON CONFLICT (id) DO NOTHING`,
				res.Id, res.ExchangeId, res.UserId, res.ProductId, res.Size,
				res.Color, int64(res.Amount), string(res.Status), res.CreatedAt,
				res.ResolvedAt,
			); err != nil {
				return fmt.Errorf("insert reservation: %w", err)
			}
		}
		return nil
	})
}

func (r *reservationRepositoryImpl) GetReservationsForExchange(
	ctx context.Context, exchangeId string,
) ([]domain.Reservation, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, fk_exchange_id, user_id, product_id, size, color, amount,
		   status, created_at, resolved_at
		 FROM reservation WHERE fk_exchange_id = $1 ORDER BY id`,
		exchangeId,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var res domain.Reservation
		var amount int64
		var status string
		if err := rows.Scan(
			&res.Id, &res.ExchangeId, &res.UserId, &res.ProductId, &res.Size,
			&res.Color, &amount, &status, &res.CreatedAt, &res.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res.Amount = uint64(amount)
		res.Status = domain.ReservationStatus(status)
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *reservationRepositoryImpl) ReservedAmount(
	ctx context.Context, productId, size, color string,
) (uint64, error) {
	var amount int64
	if err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(amount), 0)::BIGINT FROM reservation
		 WHERE product_id = $1 AND size = $2 AND color = $3 AND status = $4`,
		productId, size, color, string(domain.ReservationActive),
	).Scan(&amount); err != nil {
		return 0, fmt.Errorf("sum reservations: %w", err)
	}
	return uint64(amount), nil
}

func (r *reservationRepositoryImpl) ResolveReservations(
	ctx context.Context, exchangeId string, status domain.ReservationStatus, at int64,
) (int, error) {
	if status != domain.ReservationConsumed && status != domain.ReservationReleased {
		return 0, fmt.Errorf(
			"%w: unknown reservation status %q", domain.ErrInvalidArgument, status,
		)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE reservation SET status = $1, resolved_at = $2
		 WHERE fk_exchange_id = $3 AND status = $4`,
		string(status), at, exchangeId, string(domain.ReservationActive),
	)
	if err != nil {
		return 0, fmt.Errorf("resolve reservations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

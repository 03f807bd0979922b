package postgresdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ErrExchangeAlreadyExists ...
var ErrExchangeAlreadyExists = errors.New("exchange already exists")

const exchangeColumns = `id, version, requester_id, receiver_id,
	request_product_id, request_size, request_color, request_amount,
	receive_product_id, receive_size, receive_color, receive_amount,
	requester_shipping, requester_confirm, requester_shipped_at, requester_delivered_at, requester_decided_at,
	receiver_shipping, receiver_confirm, receiver_shipped_at, receiver_delivered_at, receiver_decided_at,
	status, canceled, cancel_reason, shipping_method, note,
	created_at, updated_at, completed_at, canceled_at, expires_at`

var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt:   "created_at",
	domain.SortByUpdatedAt:   "updated_at",
	domain.SortByCompletedAt: "completed_at",
	domain.SortByStatus:      "status",
}

type exchangeRepositoryImpl struct {
	db     querier
	execTx execTxFn
}

func newExchangeRepositoryImpl(db querier, execTx execTxFn) domain.ExchangeRepository {
	return &exchangeRepositoryImpl{db, execTx}
}

func (r *exchangeRepositoryImpl) AddExchange(
	ctx context.Context, e *domain.Exchange,
) error {
	if e.Version == 0 {
		e.Version = 1
	}

	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO exchange (`+exchangeColumns+`) VALUES (
		   $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		   $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
		 )`,
		exchangeArgs(e)...,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrExchangeAlreadyExists
		}
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (r *exchangeRepositoryImpl) GetExchange(
	ctx context.Context, id string,
) (*domain.Exchange, error) {
	e, err := scanExchange(r.db.QueryRow(
		ctx, `SELECT `+exchangeColumns+` FROM exchange WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get exchange: %w", err)
	}
	return e, nil
}

func (r *exchangeRepositoryImpl) UpdateExchange(
	ctx context.Context,
	id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	current, err := r.GetExchange(ctx, id)
	if err != nil {
		return err
	}
	readVersion := current.Version

	updated, err := updateFn(current)
	if err != nil {
		return err
	}
	updated.Version = readVersion + 1

	tag, err := r.db.Exec(
		ctx,
		`UPDATE exchange SET
		   version = $1,
		   requester_shipping = $2, requester_confirm = $3,
		   requester_shipped_at = $4, requester_delivered_at = $5, requester_decided_at = $6,
		   receiver_shipping = $7, receiver_confirm = $8,
		   receiver_shipped_at = $9, receiver_delivered_at = $10, receiver_decided_at = $11,
		   status = $12, canceled = $13, cancel_reason = $14,
		   updated_at = $15, completed_at = $16, canceled_at = $17, expires_at = $18
		 WHERE id = $19 AND version = $20`,
		int64(updated.Version),
		string(updated.RequesterTrack.Shipping), string(updated.RequesterTrack.Confirm),
		updated.RequesterTrack.ShippedAt, updated.RequesterTrack.DeliveredAt, updated.RequesterTrack.DecidedAt,
		string(updated.ReceiverTrack.Shipping), string(updated.ReceiverTrack.Confirm),
		updated.ReceiverTrack.ShippedAt, updated.ReceiverTrack.DeliveredAt, updated.ReceiverTrack.DecidedAt,
		string(updated.Status), updated.Canceled, updated.CancelReason,
		updated.UpdatedAt, updated.CompletedAt, updated.CanceledAt, updated.ExpiresAt,
		id, int64(readVersion),
	)
	if err != nil {
		return fmt.Errorf("update exchange: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *exchangeRepositoryImpl) ListExchangesForUser(
	ctx context.Context, filter domain.ExchangeFilter, page domain.Page,
) ([]domain.Exchange, int, error) {
	where, args := userFilterClause(filter)

	var exchanges []domain.Exchange
	var total int
	// Count and page in the same snapshot.
	err := r.execTx(ctx, func(q querier) error {
		if err := q.QueryRow(
			ctx, `SELECT COUNT(1) FROM exchange WHERE `+where, args...,
		).Scan(&total); err != nil {
			return fmt.Errorf("count exchanges: %w", err)
		}

		n := len(args)
		list, err := queryExchanges(
			ctx, q,
			fmt.Sprintf(
				`SELECT %s FROM exchange WHERE %s ORDER BY created_at DESC, id COLLATE "C" DESC LIMIT $%d OFFSET $%d`,
				exchangeColumns, where, n+1, n+2,
			),
			append(args, page.Size, page.Offset())...,
		)
		exchanges = list
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return exchanges, total, nil
}

func (r *exchangeRepositoryImpl) ListExchanges(
	ctx context.Context, sortBy domain.ExchangeSort, page domain.Page,
) ([]domain.Exchange, int, error) {
	var exchanges []domain.Exchange
	var total int
	err := r.execTx(ctx, func(q querier) error {
		if err := q.QueryRow(
			ctx, `SELECT COUNT(1) FROM exchange`,
		).Scan(&total); err != nil {
			return fmt.Errorf("count exchanges: %w", err)
		}

		list, err := queryExchanges(
			ctx, q,
			`SELECT `+exchangeColumns+` FROM exchange ORDER BY `+orderClause(sortBy)+
				` LIMIT $1 OFFSET $2`,
			page.Size, page.Offset(),
		)
		exchanges = list
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return exchanges, total, nil
}

func (r *exchangeRepositoryImpl) ListExpiredExchanges(
	ctx context.Context, now int64,
) ([]domain.Exchange, error) {
	return queryExchanges(
		ctx, r.db,
		`SELECT `+exchangeColumns+` FROM exchange
		 WHERE status = $1 AND expires_at > 0 AND expires_at <= $2
		 ORDER BY expires_at ASC`,
		string(domain.StatusPending), now,
	)
}

func queryExchanges(
	ctx context.Context, q querier, query string, args ...any,
) ([]domain.Exchange, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := make([]domain.Exchange, 0)
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		exchanges = append(exchanges, *e)
	}
	return exchanges, rows.Err()
}

func scanExchange(row pgx.Row) (*domain.Exchange, error) {
	var e domain.Exchange
	var version, requestAmount, receiveAmount int64
	var reqShipping, reqConfirm, recShipping, recConfirm, status string
	if err := row.Scan(
		&e.Id, &version, &e.RequesterId, &e.ReceiverId,
		&e.RequestOffer.ProductId, &e.RequestOffer.Size, &e.RequestOffer.Color, &requestAmount,
		&e.ReceiveOffer.ProductId, &e.ReceiveOffer.Size, &e.ReceiveOffer.Color, &receiveAmount,
		&reqShipping, &reqConfirm,
		&e.RequesterTrack.ShippedAt, &e.RequesterTrack.DeliveredAt, &e.RequesterTrack.DecidedAt,
		&recShipping, &recConfirm,
		&e.ReceiverTrack.ShippedAt, &e.ReceiverTrack.DeliveredAt, &e.ReceiverTrack.DecidedAt,
		&status, &e.Canceled, &e.CancelReason, &e.ShippingMethod, &e.Note,
		&e.CreatedAt, &e.UpdatedAt, &e.CompletedAt, &e.CanceledAt, &e.ExpiresAt,
	); err != nil {
		return nil, err
	}
	e.Version = uint64(version)
	e.RequestOffer.Amount = uint64(requestAmount)
	e.ReceiveOffer.Amount = uint64(receiveAmount)
	e.RequesterTrack.Shipping = domain.ShippingStatus(reqShipping)
	e.RequesterTrack.Confirm = domain.ConfirmStatus(reqConfirm)
	e.ReceiverTrack.Shipping = domain.ShippingStatus(recShipping)
	e.ReceiverTrack.Confirm = domain.ConfirmStatus(recConfirm)
	e.Status = domain.ExchangeStatus(status)
	return &e, nil
}

func exchangeArgs(e *domain.Exchange) []any {
	return []any{
		e.Id, int64(e.Version), e.RequesterId, e.ReceiverId,
		e.RequestOffer.ProductId, e.RequestOffer.Size, e.RequestOffer.Color, int64(e.RequestOffer.Amount),
		e.ReceiveOffer.ProductId, e.ReceiveOffer.Size, e.ReceiveOffer.Color, int64(e.ReceiveOffer.Amount),
		string(e.RequesterTrack.Shipping), string(e.RequesterTrack.Confirm),
		e.RequesterTrack.ShippedAt, e.RequesterTrack.DeliveredAt, e.RequesterTrack.DecidedAt,
		string(e.ReceiverTrack.Shipping), string(e.ReceiverTrack.Confirm),
		e.ReceiverTrack.ShippedAt, e.ReceiverTrack.DeliveredAt, e.ReceiverTrack.DecidedAt,
		string(e.Status), e.Canceled, e.CancelReason, e.ShippingMethod, e.Note,
		e.CreatedAt, e.UpdatedAt, e.CompletedAt, e.CanceledAt, e.ExpiresAt,
	}
}

func userFilterClause(filter domain.ExchangeFilter) (string, []any) {
	switch filter.Role {
	case domain.RoleRequester:
		if filter.CounterpartyId != "" {
			return "requester_id = $1 AND receiver_id = $2",
				[]any{filter.UserId, filter.CounterpartyId}
		}
		return "requester_id = $1", []any{filter.UserId}
	case domain.RoleReceiver:
		if filter.CounterpartyId != "" {
			return "receiver_id = $1 AND requester_id = $2",
				[]any{filter.UserId, filter.CounterpartyId}
		}
		return "receiver_id = $1", []any{filter.UserId}
	default:
		if filter.CounterpartyId != "" {
			return "((requester_id = $1 AND receiver_id = $2) OR (receiver_id = $1 AND requester_id = $2))",
				[]any{filter.UserId, filter.CounterpartyId}
		}
		return "(requester_id = $1 OR receiver_id = $1)", []any{filter.UserId}
	}
}

func orderClause(sortBy domain.ExchangeSort) string {
	column, ok := sortColumns[sortBy.Field]
	if !ok {
		column = sortColumns[domain.SortByCreatedAt]
	}
	direction := "ASC"
	if sortBy.Desc {
		direction = "DESC"
	}
	if sortBy.Field == domain.SortByStatus {
		column += ` COLLATE "C"`
	}
	return fmt.Sprintf(`%s %s, id COLLATE "C" %s`, column, direction, direction)
}

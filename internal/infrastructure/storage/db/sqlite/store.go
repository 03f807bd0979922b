// Package sqlite provides a SQLite-backed exchange storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	log "github.com/sirupsen/logrus"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrExchangeAlreadyExists ...
var ErrExchangeAlreadyExists = errors.New("exchange already exists")

// Store persists exchanges, reservations and transitions in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrateDb(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// NewRepoManager opens the store at path and exposes it as a RepoManager.
func NewRepoManager(path string) (ports.RepoManager, error) {
	return Open(path)
}

func (s *Store) ExchangeRepository() domain.ExchangeRepository {
	return s
}

func (s *Store) ReservationRepository() domain.ReservationRepository {
	return s
}

func (s *Store) TransitionRepository() domain.TransitionRepository {
	return s
}

// Close closes the SQLite handle.
func (s *Store) Close() {
	if s == nil || s.sqlDB == nil {
		return
	}
	if err := s.sqlDB.Close(); err != nil {
		log.WithError(err).Warn("error while closing sqlite db")
	}
}

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

// AddExchange inserts one exchange record.
func (s *Store) AddExchange(ctx context.Context, e *domain.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Version == 0 {
		e.Version = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO exchanges (`+exchangeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exchangeArgs(e)...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExchangeAlreadyExists
		}
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// GetExchange fetches one exchange by id.
func (s *Store) GetExchange(ctx context.Context, id string) (*domain.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = ?`, id,
	)
	e, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get exchange: %w", err)
	}
	return e, nil
}

// UpdateExchange commits the result of updateFn with a conditional update on
// the version read.
func (s *Store) UpdateExchange(
	ctx context.Context,
	id string,
	updateFn func(e *domain.Exchange) (*domain.Exchange, error),
) error {
	current, err := s.GetExchange(ctx, id)
	if err != nil {
		return err
	}
	readVersion := current.Version

	updated, err := updateFn(current)
	if err != nil {
		return err
	}
	updated.Version = readVersion + 1

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE exchanges SET
		   version = ?,
		   requester_shipping = ?, requester_confirm = ?,
		   requester_shipped_at = ?, requester_delivered_at = ?, requester_decided_at = ?,
		   receiver_shipping = ?, receiver_confirm = ?,
		   receiver_shipped_at = ?, receiver_delivered_at = ?, receiver_decided_at = ?,
		   status = ?, canceled = ?, cancel_reason = ?,
		   updated_at = ?, completed_at = ?, canceled_at = ?, expires_at = ?
		 WHERE id = ? AND version = ?`,
		updated.Version,
		string(updated.RequesterTrack.Shipping), string(updated.RequesterTrack.Confirm),
		updated.RequesterTrack.ShippedAt, updated.RequesterTrack.DeliveredAt, updated.RequesterTrack.DecidedAt,
		string(updated.ReceiverTrack.Shipping), string(updated.ReceiverTrack.Confirm),
		updated.ReceiverTrack.ShippedAt, updated.ReceiverTrack.DeliveredAt, updated.ReceiverTrack.DecidedAt,
		string(updated.Status), updated.Canceled, updated.CancelReason,
		updated.UpdatedAt, updated.CompletedAt, updated.CanceledAt, updated.ExpiresAt,
		id, readVersion,
	)
	if err != nil {
		return fmt.Errorf("update exchange: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exchange: %w", err)
	}
	if affected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// ListExchangesForUser ...
func (s *Store) ListExchangesForUser(
	ctx context.Context, filter domain.ExchangeFilter, page domain.Page,
) ([]domain.Exchange, int, error) {
	where, args := userFilterClause(filter)

	var total int
	if err := s.sqlDB.QueryRowContext(
		ctx, `SELECT COUNT(1) FROM exchanges WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exchanges: %w", err)
	}

	exchanges, err := s.queryExchanges(
		ctx,
		`SELECT `+exchangeColumns+` FROM exchanges WHERE `+where+
			` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...,
	)
	if err != nil {
		return nil, 0, err
	}
	return exchanges, total, nil
}

// ListExchanges ...
func (s *Store) ListExchanges(
	ctx context.Context, sortBy domain.ExchangeSort, page domain.Page,
) ([]domain.Exchange, int, error) {
	var total int
	if err := s.sqlDB.QueryRowContext(
		ctx, `SELECT COUNT(1) FROM exchanges`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exchanges: %w", err)
	}

	exchanges, err := s.queryExchanges(
		ctx,
		`SELECT `+exchangeColumns+` FROM exchanges ORDER BY `+orderClause(sortBy)+
			` LIMIT ? OFFSET ?`,
		page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	return exchanges, total, nil
}

// ListExpiredExchanges ...
func (s *Store) ListExpiredExchanges(
	ctx context.Context, now int64,
) ([]domain.Exchange, error) {
	return s.queryExchanges(
		ctx,
		`SELECT `+exchangeColumns+` FROM exchanges
		 WHERE status = ? AND expires_at > 0 AND expires_at <= ?
		 ORDER BY expires_at ASC`,
		string(domain.StatusPending), now,
	)
}

// AddReservations ...
func (s *Store) AddReservations(
	ctx context.Context, reservations ...domain.Reservation,
) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range reservations {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO reservations (
			   id, exchange_id, user_id, product_id, size, color, amount, status, created_at, resolved_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			r.Id, r.ExchangeId, r.UserId, r.ProductId, r.Size, r.Color,
			r.Amount, string(r.Status), r.CreatedAt, r.ResolvedAt,
		); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
	}
	return tx.Commit()
}

// GetReservationsForExchange ...
func (s *Store) GetReservationsForExchange(
	ctx context.Context, exchangeId string,
) ([]domain.Reservation, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, exchange_id, user_id, product_id, size, color, amount, status, created_at, resolved_at
		 FROM reservations WHERE exchange_id = ? ORDER BY id`,
		exchangeId,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var r domain.Reservation
		var status string
		if err := rows.Scan(
			&r.Id, &r.ExchangeId, &r.UserId, &r.ProductId, &r.Size, &r.Color,
			&r.Amount, &status, &r.CreatedAt, &r.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		r.Status = domain.ReservationStatus(status)
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

// ReservedAmount ...
func (s *Store) ReservedAmount(
	ctx context.Context, productId, size, color string,
) (uint64, error) {
	var amount int64
	if err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM reservations
		 WHERE product_id = ? AND size = ? AND color = ? AND status = ?`,
		productId, size, color, string(domain.ReservationActive),
	).Scan(&amount); err != nil {
		return 0, fmt.Errorf("sum reservations: %w", err)
	}
	return uint64(amount), nil
}

// ResolveReservations ...
func (s *Store) ResolveReservations(
	ctx context.Context, exchangeId string, status domain.ReservationStatus, at int64,
) (int, error) {
	if status != domain.ReservationConsumed && status != domain.ReservationReleased {
		return 0, fmt.Errorf("%w: unknown reservation status %q", domain.ErrInvalidArgument, status)
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE reservations SET status = ?, resolved_at = ?
		 WHERE exchange_id = ? AND status = ?`,
		string(status), at, exchangeId, string(domain.ReservationActive),
	)
	if err != nil {
		return 0, fmt.Errorf("resolve reservations: %w", err)
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

// AppendTransitions ...
func (s *Store) AppendTransitions(
	ctx context.Context, transitions ...domain.Transition,
) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range transitions {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO transitions (
			   id, exchange_id, actor_id, party, kind, from_status, to_status, status_after, at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			t.Id, t.ExchangeId, t.ActorId, t.Party, string(t.Kind),
			t.From, t.To, string(t.StatusAfter), t.At,
		); err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
	}
	return tx.Commit()
}

// ListTransitions ...
func (s *Store) ListTransitions(
	ctx context.Context, exchangeId string,
) ([]domain.Transition, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, exchange_id, actor_id, party, kind, from_status, to_status, status_after, at
		 FROM transitions WHERE exchange_id = ? ORDER BY id`,
		exchangeId,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	transitions := make([]domain.Transition, 0)
	for rows.Next() {
		var t domain.Transition
		var kind, statusAfter string
		if err := rows.Scan(
			&t.Id, &t.ExchangeId, &t.ActorId, &t.Party, &kind,
			&t.From, &t.To, &statusAfter, &t.At,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Kind = domain.TransitionKind(kind)
		t.StatusAfter = domain.ExchangeStatus(statusAfter)
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

func (s *Store) queryExchanges(
	ctx context.Context, query string, args ...interface{},
) ([]domain.Exchange, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExchange(row scanner) (*domain.Exchange, error) {
	var e domain.Exchange
	var reqShipping, reqConfirm, recShipping, recConfirm, status string
	if err := row.Scan(
		&e.Id, &e.Version, &e.RequesterId, &e.ReceiverId,
		&e.RequestOffer.ProductId, &e.RequestOffer.Size, &e.RequestOffer.Color, &e.RequestOffer.Amount,
		&e.ReceiveOffer.ProductId, &e.ReceiveOffer.Size, &e.ReceiveOffer.Color, &e.ReceiveOffer.Amount,
		&reqShipping, &reqConfirm,
		&e.RequesterTrack.ShippedAt, &e.RequesterTrack.DeliveredAt, &e.RequesterTrack.DecidedAt,
		&recShipping, &recConfirm,
		&e.ReceiverTrack.ShippedAt, &e.ReceiverTrack.DeliveredAt, &e.ReceiverTrack.DecidedAt,
		&status, &e.Canceled, &e.CancelReason, &e.ShippingMethod, &e.Note,
		&e.CreatedAt, &e.UpdatedAt, &e.CompletedAt, &e.CanceledAt, &e.ExpiresAt,
	); err != nil {
		return nil, err
	}
	e.RequesterTrack.Shipping = domain.ShippingStatus(reqShipping)
	e.RequesterTrack.Confirm = domain.ConfirmStatus(reqConfirm)
	e.ReceiverTrack.Shipping = domain.ShippingStatus(recShipping)
	e.ReceiverTrack.Confirm = domain.ConfirmStatus(recConfirm)
	e.Status = domain.ExchangeStatus(status)
	return &e, nil
}

func exchangeArgs(e *domain.Exchange) []interface{} {
	return []interface{}{
		e.Id, e.Version, e.RequesterId, e.ReceiverId,
		e.RequestOffer.ProductId, e.RequestOffer.Size, e.RequestOffer.Color, e.RequestOffer.Amount,
		e.ReceiveOffer.ProductId, e.ReceiveOffer.Size, e.ReceiveOffer.Color, e.ReceiveOffer.Amount,
		string(e.RequesterTrack.Shipping), string(e.RequesterTrack.Confirm),
		e.RequesterTrack.ShippedAt, e.RequesterTrack.DeliveredAt, e.RequesterTrack.DecidedAt,
		string(e.ReceiverTrack.Shipping), string(e.ReceiverTrack.Confirm),
		e.ReceiverTrack.ShippedAt, e.ReceiverTrack.DeliveredAt, e.ReceiverTrack.DecidedAt,
		string(e.Status), e.Canceled, e.CancelReason, e.ShippingMethod, e.Note,
		e.CreatedAt, e.UpdatedAt, e.CompletedAt, e.CanceledAt, e.ExpiresAt,
	}
}

func userFilterClause(filter domain.ExchangeFilter) (string, []interface{}) {
	var where string
	var args []interface{}
	switch filter.Role {
	case domain.RoleRequester:
		where, args = "requester_id = ?", []interface{}{filter.UserId}
		if filter.CounterpartyId != "" {
			where += " AND receiver_id = ?"
			args = append(args, filter.CounterpartyId)
		}
	case domain.RoleReceiver:
		where, args = "receiver_id = ?", []interface{}{filter.UserId}
		if filter.CounterpartyId != "" {
			where += " AND requester_id = ?"
			args = append(args, filter.CounterpartyId)
		}
	default:
		if filter.CounterpartyId != "" {
			where = "((requester_id = ? AND receiver_id = ?) OR (receiver_id = ? AND requester_id = ?))"
			args = []interface{}{
				filter.UserId, filter.CounterpartyId, filter.UserId, filter.CounterpartyId,
			}
		} else {
			where = "(requester_id = ? OR receiver_id = ?)"
			args = []interface{}{filter.UserId, filter.UserId}
		}
	}
	return where, args
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
	return fmt.Sprintf("%s %s, id %s", column, direction, direction)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ ports.RepoManager = (*Store)(nil)
var _ domain.ExchangeRepository = (*Store)(nil)
var _ domain.ReservationRepository = (*Store)(nil)
var _ domain.TransitionRepository = (*Store)(nil)

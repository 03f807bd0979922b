package domain

import (
	"context"
	"fmt"
)

// Role narrows the participant listing to one side of the exchanges.
type Role string

const (
	RoleAny       Role = "all"
	RoleRequester Role = "requester"
	RoleReceiver  Role = "receiver"
)

// ParseRole accepts requester, receiver, all or the empty string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleAny:
		return RoleAny, nil
	case RoleRequester, RoleReceiver:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, s)
	}
}

// ExchangeFilter selects the exchanges visible to a participant.
type ExchangeFilter struct {
	UserId         string
	Role           Role
	CounterpartyId string
}

// Match ...
func (f ExchangeFilter) Match(e Exchange) bool {
	var counterparty string
	switch {
	case e.RequesterId == f.UserId && f.Role != RoleReceiver:
		counterparty = e.ReceiverId
	case e.ReceiverId == f.UserId && f.Role != RoleRequester:
		counterparty = e.RequesterId
	default:
		return false
	}
	return f.CounterpartyId == "" || f.CounterpartyId == counterparty
}

// SortField is a sortable attribute of the admin listing.
type SortField string

const (
	SortByCreatedAt   SortField = "created_at"
	SortByUpdatedAt   SortField = "updated_at"
	SortByCompletedAt SortField = "completed_at"
	SortByStatus      SortField = "status"
)

// SortFields lists the accepted sort fields.
var SortFields = []string{
	string(SortByCreatedAt),
	string(SortByUpdatedAt),
	string(SortByCompletedAt),
	string(SortByStatus),
}

// ExchangeSort ...
type ExchangeSort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is newest first.
var DefaultSort = ExchangeSort{Field: SortByCreatedAt, Desc: true}

// Less orders a before b, ties are broken by id to keep pages stable.
func (s ExchangeSort) Less(a, b Exchange) bool {
	var cmp int
	switch s.Field {
	case SortByUpdatedAt:
		cmp = compareInt(a.UpdatedAt, b.UpdatedAt)
	case SortByCompletedAt:
		cmp = compareInt(a.CompletedAt, b.CompletedAt)
	case SortByStatus:
		cmp = compareString(string(a.Status), string(b.Status))
	default:
		cmp = compareInt(a.CreatedAt, b.CreatedAt)
	}
	if cmp == 0 {
		cmp = compareString(a.Id, b.Id)
	}
	if s.Desc {
		return cmp > 0
	}
	return cmp < 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ExchangeRepository is the abstraction for any kind of database intended to
// persist Exchanges.
type ExchangeRepository interface {
	// AddExchange stores a new exchange.
	AddExchange(ctx context.Context, exchange *Exchange) error
	// GetExchange returns the exchange with the given id or ErrNotFound.
	GetExchange(ctx context.Context, id string) (*Exchange, error)
	// UpdateExchange reads the exchange, applies updateFn and commits the
	// result only if the stored version did not change meanwhile. The loser
	// of a race gets ErrConcurrentModification. On success the stored
	// version is incremented.
	UpdateExchange(
		ctx context.Context,
		id string,
		updateFn func(e *Exchange) (*Exchange, error),
	) error
	// ListExchangesForUser returns the page of exchanges matching the filter,
	// newest first, together with the total number of matches.
	ListExchangesForUser(
		ctx context.Context, filter ExchangeFilter, page Page,
	) ([]Exchange, int, error)
	// ListExchanges returns a page of all exchanges with the given ordering,
	// together with the total number of exchanges.
	ListExchanges(
		ctx context.Context, sort ExchangeSort, page Page,
	) ([]Exchange, int, error)
	// ListExpiredExchanges returns the pending exchanges whose deadline is
	// not after now (unix seconds).
	ListExpiredExchanges(ctx context.Context, now int64) ([]Exchange, error)
}

// ReservationRepository persists inventory holds.
type ReservationRepository interface {
	// AddReservations stores the given holds.
	AddReservations(ctx context.Context, reservations ...Reservation) error
	// GetReservationsForExchange ...
	GetReservationsForExchange(
		ctx context.Context, exchangeId string,
	) ([]Reservation, error)
	// ReservedAmount returns the sum of the active holds for a product slice.
	ReservedAmount(
		ctx context.Context, productId, size, color string,
	) (uint64, error)
	// ResolveReservations moves all active holds of the exchange to the
	// given status and returns how many were resolved.
	ResolveReservations(
		ctx context.Context, exchangeId string, status ReservationStatus, at int64,
	) (int, error)
}

// TransitionRepository is the append-only log of exchange transitions.
type TransitionRepository interface {
	// AppendTransitions ...
	AppendTransitions(ctx context.Context, transitions ...Transition) error
	// ListTransitions returns the history of the exchange, oldest first.
	ListTransitions(ctx context.Context, exchangeId string) ([]Transition, error)
}

package domain

import (
	"fmt"
	"time"
)

// ReservationStatus ...
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationConsumed ReservationStatus = "consumed"
	ReservationReleased ReservationStatus = "released"
)

// Reservation is a hold on an amount of a product slice, committed to a
// non-terminal exchange.
type Reservation struct {
	Id         string
	ExchangeId string
	UserId     string
	ProductId  string
	Size       string
	Color      string
	Amount     uint64
	Status     ReservationStatus
	CreatedAt  int64
	ResolvedAt int64
}

// NewReservations returns one active hold per offer of the exchange.
func NewReservations(e *Exchange) []Reservation {
	now := time.Now()
	hold := func(userId string, o Offer) Reservation {
		return Reservation{
			Id:         newSortableID(now),
			ExchangeId: e.Id,
			UserId:     userId,
			ProductId:  o.ProductId,
			Size:       o.Size,
			Color:      o.Color,
			Amount:     o.Amount,
			Status:     ReservationActive,
			CreatedAt:  now.Unix(),
		}
	}
	return []Reservation{
		hold(e.RequesterId, e.RequestOffer),
		hold(e.ReceiverId, e.ReceiveOffer),
	}
}

// SliceKey identifies the product/size/color slice a hold applies to.
func (r Reservation) SliceKey() string {
	return SliceKey(r.ProductId, r.Size, r.Color)
}

// IsActive ...
func (r Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

// Resolve moves an active hold to consumed or released. Resolving an already
// resolved hold is a no-op.
func (r *Reservation) Resolve(status ReservationStatus, at int64) (bool, error) {
	if status != ReservationConsumed && status != ReservationReleased {
		return false, fmt.Errorf("%w: unknown reservation status %q", ErrInvalidArgument, status)
	}
	if !r.IsActive() {
		return false, nil
	}
	r.Status = status
	r.ResolvedAt = at
	return true, nil
}

// ResolutionFor returns how the holds of an exchange in the given status
// must be resolved, or an empty status if they stay active.
func ResolutionFor(status ExchangeStatus) ReservationStatus {
	switch status {
	case StatusCompleted:
		return ReservationConsumed
	case StatusRejected, StatusCanceled:
		return ReservationReleased
	default:
		return ""
	}
}

// SliceKey ...
func SliceKey(productId, size, color string) string {
	return fmt.Sprintf("%s/%s/%s", productId, size, color)
}

package domain

import "fmt"

// ShippingStatus is the shipment sub-status of one party's track.
type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "pending"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
)

var shippingRank = map[ShippingStatus]int{
	ShippingPending:   0,
	ShippingShipped:   1,
	ShippingDelivered: 2,
}

// IsValid ...
func (s ShippingStatus) IsValid() bool {
	_, ok := shippingRank[s]
	return ok
}

// next returns whether target is exactly one step ahead of s.
func (s ShippingStatus) next(target ShippingStatus) bool {
	from, ok := shippingRank[s]
	if !ok {
		return false
	}
	to, ok := shippingRank[target]
	if !ok {
		return false
	}
	return to == from+1
}

// ParseShippingStatus ...
func ParseShippingStatus(s string) (ShippingStatus, error) {
	status := ShippingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown shipping status %q", ErrInvalidTransition, s)
	}
	return status, nil
}

// ConfirmStatus is the set-once confirmation sub-status of one party's track.
type ConfirmStatus string

const (
	ConfirmPending ConfirmStatus = "pending"
	Confirmed      ConfirmStatus = "confirmed"
	Rejected       ConfirmStatus = "rejected"
)

// IsDecision returns whether s is a valid decision a party can take.
func (s ConfirmStatus) IsDecision() bool {
	return s == Confirmed || s == Rejected
}

// ParseConfirmStatus parses a decision, pending is not accepted.
func ParseConfirmStatus(s string) (ConfirmStatus, error) {
	status := ConfirmStatus(s)
	if !status.IsDecision() {
		return "", fmt.Errorf("%w: unknown confirm decision %q", ErrInvalidTransition, s)
	}
	return status, nil
}

// ExchangeStatus is the aggregate status of an exchange.
type ExchangeStatus string

const (
	StatusPending    ExchangeStatus = "pending"
	StatusInProgress ExchangeStatus = "in_progress"
	StatusCompleted  ExchangeStatus = "completed"
	StatusRejected   ExchangeStatus = "rejected"
	StatusCanceled   ExchangeStatus = "canceled"
)

// IsTerminal returns whether no further mutation is allowed.
func (s ExchangeStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCanceled
}

// IsValid ...
func (s ExchangeStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// Track is the per-party sub-state, only its owning party may advance it.
type Track struct {
	Shipping    ShippingStatus
	Confirm     ConfirmStatus
	ShippedAt   int64
	DeliveredAt int64
	DecidedAt   int64
}

// NewTrack returns a track with both sub-statuses pending.
func NewTrack() Track {
	return Track{Shipping: ShippingPending, Confirm: ConfirmPending}
}

// DeriveStatus computes the aggregate status from the two tracks. Canceled is
// not derivable from tracks and is handled by the exchange itself.
func DeriveStatus(requester, receiver Track) ExchangeStatus {
	switch {
	case requester.Confirm == Rejected || receiver.Confirm == Rejected:
		return StatusRejected
	case requester.Confirm == Confirmed && receiver.Confirm == Confirmed:
		return StatusCompleted
	case requester.Shipping != ShippingPending || receiver.Shipping != ShippingPending:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// Party identifies one side of an exchange.
type Party int

const (
	PartyUnspecified Party = iota
	PartyRequester
	PartyReceiver
)

func (p Party) String() string {
	switch p {
	case PartyRequester:
		return "requester"
	case PartyReceiver:
		return "receiver"
	default:
		return ""
	}
}

// Other returns the counterparty.
func (p Party) Other() Party {
	switch p {
	case PartyRequester:
		return PartyReceiver
	case PartyReceiver:
		return PartyRequester
	default:
		return PartyUnspecified
	}
}

// ParseParty accepts "requester", "receiver" or the empty string.
func ParseParty(s string) (Party, error) {
	switch s {
	case "":
		return PartyUnspecified, nil
	case "requester":
		return PartyRequester, nil
	case "receiver":
		return PartyReceiver, nil
	default:
		return PartyUnspecified, fmt.Errorf("%w: unknown party %q", ErrInvalidArgument, s)
	}
}

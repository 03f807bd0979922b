package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Offer is the immutable snapshot of what one party puts on the table.
type Offer struct {
	ProductId string
	Size      string
	Color     string
	Amount    uint64
}

func (o Offer) validate() error {
	if strings.TrimSpace(o.ProductId) == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidArgument)
	}
	if o.Amount == 0 {
		return fmt.Errorf("%w: offered amount must be positive", ErrInvalidArgument)
	}
	return nil
}

// Proposal is the transient request to create a new exchange.
type Proposal struct {
	RequesterId    string
	ReceiverId     string
	RequesterOffer Offer
	ReceiverOffer  Offer
	ShippingMethod string
	Note           string
}

// Validate checks the proposal does not depend on any external state.
func (p Proposal) Validate() error {
	if strings.TrimSpace(p.RequesterId) == "" || strings.TrimSpace(p.ReceiverId) == "" {
		return fmt.Errorf("%w: missing participant", ErrInvalidArgument)
	}
	if p.RequesterId == p.ReceiverId {
		return ErrSelfTrade
	}
	if err := p.RequesterOffer.validate(); err != nil {
		return err
	}
	return p.ReceiverOffer.validate()
}

// Exchange is the aggregate representing a barter negotiation between two
// users.
type Exchange struct {
	Id             string
	Version        uint64
	RequesterId    string
	ReceiverId     string
	RequestOffer   Offer
	ReceiveOffer   Offer
	RequesterTrack Track
	ReceiverTrack  Track
	Status         ExchangeStatus
	Canceled       bool
	CancelReason   string
	ShippingMethod string
	Note           string
	CreatedAt      int64
	UpdatedAt      int64
	CompletedAt    int64
	CanceledAt     int64
	ExpiresAt      int64
}

// NewExchange returns a pending exchange for the given proposal along with
// its create transition. A zero ttl means the exchange never expires.
func NewExchange(p Proposal, ttl time.Duration) (*Exchange, *Transition, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	e := &Exchange{
		Id:             uuid.New().String(),
		Version:        1,
		RequesterId:    p.RequesterId,
		ReceiverId:     p.ReceiverId,
		RequestOffer:   p.RequesterOffer,
		ReceiveOffer:   p.ReceiverOffer,
		RequesterTrack: NewTrack(),
		ReceiverTrack:  NewTrack(),
		ShippingMethod: p.ShippingMethod,
		Note:           p.Note,
		CreatedAt:      now.Unix(),
		UpdatedAt:      now.Unix(),
	}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl).Unix()
	}
	e.refreshStatus(now)

	return e, newTransition(e, PartyRequester, TransitionCreate, "", string(e.Status), now), nil
}

// PartyOf resolves the side of the exchange the given user may write.
func (e *Exchange) PartyOf(userId string) (Party, error) {
	switch userId {
	case "":
		return PartyUnspecified, ErrNotParticipant
	case e.RequesterId:
		return PartyRequester, nil
	case e.ReceiverId:
		return PartyReceiver, nil
	default:
		return PartyUnspecified, ErrNotParticipant
	}
}

// Authorize resolves the acting user's party and makes sure the requested
// side, if any, is its own.
func (e *Exchange) Authorize(userId string, requested Party) (Party, error) {
	party, err := e.PartyOf(userId)
	if err != nil {
		return PartyUnspecified, err
	}
	if requested != PartyUnspecified && requested != party {
		return PartyUnspecified, ErrForbiddenTransition
	}
	return party, nil
}

// IsParticipant ...
func (e *Exchange) IsParticipant(userId string) bool {
	_, err := e.PartyOf(userId)
	return err == nil
}

// Counterparty returns the id of the other participant.
func (e *Exchange) Counterparty(userId string) string {
	party, err := e.PartyOf(userId)
	if err != nil {
		return ""
	}
	return e.participant(party.Other())
}

// TrackOf returns a copy of the given party's track.
func (e *Exchange) TrackOf(party Party) Track {
	if t := e.track(party); t != nil {
		return *t
	}
	return Track{}
}

// IsTerminal ...
func (e *Exchange) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// AdvanceShipping moves the party's shipment one step ahead. Only
// pending->shipped and shipped->delivered are allowed.
func (e *Exchange) AdvanceShipping(
	party Party, target ShippingStatus,
) (*Transition, error) {
	track := e.track(party)
	if track == nil {
		return nil, ErrNotParticipant
	}
	if e.IsTerminal() {
		return nil, fmt.Errorf("%w: exchange is %s", ErrInvalidTransition, e.Status)
	}
	if !track.Shipping.next(target) {
		return nil, fmt.Errorf(
			"%w: shipping %s -> %s", ErrInvalidTransition, track.Shipping, target,
		)
	}

	now := time.Now()
	from := track.Shipping
	track.Shipping = target
	switch target {
	case ShippingShipped:
		track.ShippedAt = now.Unix()
	case ShippingDelivered:
		track.DeliveredAt = now.Unix()
	}
	e.refreshStatus(now)

	return newTransition(
		e, party, TransitionShipping, string(from), string(target), now,
	), nil
}

// AdvanceConfirm sets the party's decision. The decision is set once and
// requires the party's own shipment to be delivered.
func (e *Exchange) AdvanceConfirm(
	party Party, decision ConfirmStatus,
) (*Transition, error) {
	track := e.track(party)
	if track == nil {
		return nil, ErrNotParticipant
	}
	if !decision.IsDecision() {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, decision)
	}
	if track.Confirm != ConfirmPending {
		return nil, ErrAlreadyDecided
	}
	if e.IsTerminal() {
		return nil, fmt.Errorf("%w: exchange is %s", ErrInvalidTransition, e.Status)
	}
	if track.Shipping != ShippingDelivered {
		return nil, ErrShippingNotComplete
	}

	now := time.Now()
	track.Confirm = decision
	track.DecidedAt = now.Unix()
	e.refreshStatus(now)

	return newTransition(
		e, party, TransitionConfirm, string(ConfirmPending), string(decision), now,
	), nil
}

// Cancel lets either participant withdraw while the exchange is pending.
func (e *Exchange) Cancel(party Party) (*Transition, error) {
	if e.track(party) == nil {
		return nil, ErrNotParticipant
	}
	if e.Status != StatusPending {
		return nil, ErrCannotCancel
	}

	now := time.Now()
	e.cancel(fmt.Sprintf("canceled by %s", party), now)

	return newTransition(
		e, party, TransitionCancel, string(StatusPending), string(StatusCanceled), now,
	), nil
}

// IsExpired returns whether the exchange is still pending past its deadline.
func (e *Exchange) IsExpired(now time.Time) bool {
	return e.Status == StatusPending && e.ExpiresAt > 0 && now.Unix() >= e.ExpiresAt
}

// Expire cancels a stale pending exchange. It returns a nil transition if the
// exchange is not expired.
func (e *Exchange) Expire(now time.Time) *Transition {
	if !e.IsExpired(now) {
		return nil
	}

	e.cancel("expired", now)

	return newTransition(
		e, PartyUnspecified, TransitionExpire,
		string(StatusPending), string(StatusCanceled), now,
	)
}

// Abort cancels a pending exchange on behalf of the system, for example when
// its creation could not be completed. It returns a nil transition if the
// exchange is no longer pending.
func (e *Exchange) Abort(reason string, now time.Time) *Transition {
	if e.Status != StatusPending {
		return nil
	}

	e.cancel(reason, now)

	return newTransition(
		e, PartyUnspecified, TransitionCancel,
		string(StatusPending), string(StatusCanceled), now,
	)
}

// Matches tells whether the exchange was created from an equivalent
// proposal.
func (e *Exchange) Matches(p Proposal) bool {
	return e.RequesterId == p.RequesterId &&
		e.ReceiverId == p.ReceiverId &&
		e.RequestOffer == p.RequesterOffer &&
		e.ReceiveOffer == p.ReceiverOffer &&
		e.ShippingMethod == p.ShippingMethod &&
		e.Note == p.Note
}

// CanRate returns whether the given user may rate the counterparty, and the
// counterparty id.
func (e *Exchange) CanRate(userId string) (bool, string) {
	party, err := e.PartyOf(userId)
	if err != nil {
		return false, ""
	}
	if e.Status != StatusCompleted || e.track(party).Confirm != Confirmed {
		return false, ""
	}
	return true, e.participant(party.Other())
}

func (e *Exchange) cancel(reason string, now time.Time) {
	e.Canceled = true
	e.CancelReason = reason
	e.CanceledAt = now.Unix()
	e.refreshStatus(now)
}

func (e *Exchange) refreshStatus(now time.Time) {
	e.UpdatedAt = now.Unix()
	if e.Canceled {
		e.Status = StatusCanceled
		return
	}
	e.Status = DeriveStatus(e.RequesterTrack, e.ReceiverTrack)
	if e.Status == StatusCompleted && e.CompletedAt == 0 {
		e.CompletedAt = now.Unix()
	}
}

func (e *Exchange) track(party Party) *Track {
	switch party {
	case PartyRequester:
		return &e.RequesterTrack
	case PartyReceiver:
		return &e.ReceiverTrack
	default:
		return nil
	}
}

func (e *Exchange) participant(party Party) string {
	switch party {
	case PartyRequester:
		return e.RequesterId
	case PartyReceiver:
		return e.ReceiverId
	default:
		return ""
	}
}

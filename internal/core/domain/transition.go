package domain

import "time"

// TransitionKind ...
type TransitionKind string

const (
	TransitionCreate   TransitionKind = "create"
	TransitionShipping TransitionKind = "shipping"
	TransitionConfirm  TransitionKind = "confirm"
	TransitionCancel   TransitionKind = "cancel"
	TransitionExpire   TransitionKind = "expire"
)

// Transition is one immutable entry of the per-exchange history.
type Transition struct {
	Id          string
	ExchangeId  string
	ActorId     string
	Party       string
	Kind        TransitionKind
	From        string
	To          string
	StatusAfter ExchangeStatus
	At          int64
}

func newTransition(
	e *Exchange, party Party, kind TransitionKind, from, to string, at time.Time,
) *Transition {
	actorId := ""
	if party != PartyUnspecified {
		actorId = e.participant(party)
	}
	return &Transition{
		Id:          newSortableID(at),
		ExchangeId:  e.Id,
		ActorId:     actorId,
		Party:       party.String(),
		Kind:        kind,
		From:        from,
		To:          to,
		StatusAfter: e.Status,
		At:          at.Unix(),
	}
}

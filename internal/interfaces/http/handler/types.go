package httphandler

import (
	"github.com/barterbay/barterd/internal/core/domain"
)

type offer struct {
	ProductId string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Amount    uint64 `json:"amount"`
}

func newOffer(o domain.Offer) offer {
	return offer{o.ProductId, o.Size, o.Color, o.Amount}
}

func (o offer) toDomain() domain.Offer {
	return domain.Offer{
		ProductId: o.ProductId,
		Size:      o.Size,
		Color:     o.Color,
		Amount:    o.Amount,
	}
}

type track struct {
	ShippingStatus domain.ShippingStatus `json:"shippingStatus"`
	ConfirmStatus  domain.ConfirmStatus  `json:"confirmStatus"`
	ShippedAt      int64                 `json:"shippedAt,omitempty"`
	DeliveredAt    int64                 `json:"deliveredAt,omitempty"`
	DecidedAt      int64                 `json:"decidedAt,omitempty"`
}

func newTrack(t domain.Track) track {
	return track{t.Shipping, t.Confirm, t.ShippedAt, t.DeliveredAt, t.DecidedAt}
}

// ExchangeInfo is the REST representation of an exchange.
type ExchangeInfo struct {
	Id             string                `json:"id"`
	Version        uint64                `json:"version"`
	RequesterId    string                `json:"requesterId"`
	ReceiverId     string                `json:"receiverId"`
	RequesterOffer offer                 `json:"requesterOffer"`
	ReceiverOffer  offer                 `json:"receiverOffer"`
	RequesterTrack track                 `json:"requesterTrack"`
	ReceiverTrack  track                 `json:"receiverTrack"`
	Status         domain.ExchangeStatus `json:"status"`
	CancelReason   string                `json:"cancelReason,omitempty"`
	ShippingMethod string                `json:"shippingMethod,omitempty"`
	Note           string                `json:"note,omitempty"`
	CreatedAt      int64                 `json:"createdAt"`
	UpdatedAt      int64                 `json:"updatedAt"`
	CompletedAt    int64                 `json:"completedAt,omitempty"`
	CanceledAt     int64                 `json:"canceledAt,omitempty"`
	ExpiresAt      int64                 `json:"expiresAt,omitempty"`
}

func newExchangeInfo(e *domain.Exchange) ExchangeInfo {
	return ExchangeInfo{
		Id:             e.Id,
		Version:        e.Version,
		RequesterId:    e.RequesterId,
		ReceiverId:     e.ReceiverId,
		RequesterOffer: newOffer(e.RequestOffer),
		ReceiverOffer:  newOffer(e.ReceiveOffer),
		RequesterTrack: newTrack(e.RequesterTrack),
		ReceiverTrack:  newTrack(e.ReceiverTrack),
		Status:         e.Status,
		CancelReason:   e.CancelReason,
		ShippingMethod: e.ShippingMethod,
		Note:           e.Note,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		CompletedAt:    e.CompletedAt,
		CanceledAt:     e.CanceledAt,
		ExpiresAt:      e.ExpiresAt,
	}
}

func newExchangeInfoList(list []domain.Exchange) []ExchangeInfo {
	infos := make([]ExchangeInfo, 0, len(list))
	for i := range list {
		infos = append(infos, newExchangeInfo(&list[i]))
	}
	return infos
}

// TransitionInfo ...
type TransitionInfo struct {
	Id          string                `json:"id"`
	ActorId     string                `json:"actorId,omitempty"`
	Party       string                `json:"party,omitempty"`
	Kind        domain.TransitionKind `json:"kind"`
	From        string                `json:"from,omitempty"`
	To          string                `json:"to"`
	StatusAfter domain.ExchangeStatus `json:"statusAfter"`
	At          int64                 `json:"at"`
}

func newTransitionInfoList(list []domain.Transition) []TransitionInfo {
	infos := make([]TransitionInfo, 0, len(list))
	for _, t := range list {
		infos = append(infos, TransitionInfo{
			Id:          t.Id,
			ActorId:     t.ActorId,
			Party:       t.Party,
			Kind:        t.Kind,
			From:        t.From,
			To:          t.To,
			StatusAfter: t.StatusAfter,
			At:          t.At,
		})
	}
	return infos
}

// ProposeRequest is the body of POST /exchanges, the requester is the
// authenticated user.
type ProposeRequest struct {
	ReceiverId     string `json:"receiverId"`
	RequesterOffer offer  `json:"requesterOffer"`
	ReceiverOffer  offer  `json:"receiverOffer"`
	ShippingMethod string `json:"shippingMethod"`
	Note           string `json:"note"`
}

func (r ProposeRequest) toDomain(requesterId string) domain.Proposal {
	return domain.Proposal{
		RequesterId:    requesterId,
		ReceiverId:     r.ReceiverId,
		RequesterOffer: r.RequesterOffer.toDomain(),
		ReceiverOffer:  r.ReceiverOffer.toDomain(),
		ShippingMethod: r.ShippingMethod,
		Note:           r.Note,
	}
}

// AddWebhookRequest is the body of POST /webhooks.
type AddWebhookRequest struct {
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

package application

import (
	"context"
	"fmt"
	"time"

	"github.com/barterbay/barterd/internal/core/application/exchange"
	"github.com/barterbay/barterd/internal/core/application/pubsub"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
)

type ExchangeService interface {
	Propose(
		ctx context.Context, proposal domain.Proposal, idempotencyKey string,
	) (*domain.Exchange, bool, error)
	AdvanceShipping(
		ctx context.Context, exchangeId, userId string,
		party domain.Party, target domain.ShippingStatus,
	) (*domain.Exchange, error)
	AdvanceConfirm(
		ctx context.Context, exchangeId, userId string,
		decision domain.ConfirmStatus,
	) (*domain.Exchange, error)
	Cancel(ctx context.Context, exchangeId, userId string) (*domain.Exchange, error)
	Expire(ctx context.Context, exchangeId string, now time.Time) (bool, error)
	GetExchange(
		ctx context.Context, exchangeId, userId string, isManager bool,
	) (*domain.Exchange, error)
	ListTransitions(
		ctx context.Context, exchangeId, userId string, isManager bool,
	) ([]domain.Transition, error)
	WaitPendingEvents()
}

func NewExchangeService(
	repoManager ports.RepoManager,
	inventory ports.InventoryProvider,
	pubsubSvc PubSubService,
	idempotency ports.IdempotencyStore,
	opts exchange.Options,
) (ExchangeService, error) {
	var p *pubsub.Service
	if pubsubSvc != nil {
		svc, ok := pubsubSvc.(*pubsub.Service)
		if !ok {
			return nil, fmt.Errorf("unsupported pubsub service type %T", pubsubSvc)
		}
		p = svc
	}
	svc, err := exchange.NewService(repoManager, inventory, p, idempotency, opts)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

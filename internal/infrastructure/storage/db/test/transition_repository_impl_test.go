package db_test

import (
	"context"
	"testing"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestTransitionRepositoryImplementations(t *testing.T) {
	managers := createRepoManagers(t)

	for i := range managers {
		manager := managers[i]

		t.Run(manager.Name, func(t *testing.T) {
			t.Run("append_and_list_transitions", func(t *testing.T) {
				testAppendAndListTransitions(t, manager)
			})
		})
	}
}

func testAppendAndListTransitions(t *testing.T, manager repoManager) {
	ctx := context.Background()
	exchangeRepo := manager.Manager.ExchangeRepository()
	repo := manager.Manager.TransitionRepository()

	exchange, created, err := domain.NewExchange(domain.Proposal{
		RequesterId:    randomUserId(),
		ReceiverId:     randomUserId(),
		RequesterOffer: domain.Offer{ProductId: "p1", Amount: 1},
		ReceiverOffer:  domain.Offer{ProductId: "p2", Amount: 1},
	}, 0)
	require.NoError(t, err)
	require.NoError(t, exchangeRepo.AddExchange(ctx, exchange))

	shipped, err := exchange.AdvanceShipping(domain.PartyRequester, domain.ShippingShipped)
	require.NoError(t, err)
	delivered, err := exchange.AdvanceShipping(domain.PartyRequester, domain.ShippingDelivered)
	require.NoError(t, err)

	require.NoError(t, repo.AppendTransitions(ctx, *created))
	require.NoError(t, repo.AppendTransitions(ctx, *shipped, *delivered))

	list, err := repo.ListTransitions(ctx, exchange.Id)
	require.NoError(t, err)
	require.Equal(t, []domain.Transition{*created, *shipped, *delivered}, list)

	require.Equal(t, domain.TransitionCreate, list[0].Kind)
	require.Equal(t, exchange.RequesterId, list[1].ActorId)
	require.Equal(t, string(domain.ShippingDelivered), list[2].To)
	require.Equal(t, domain.StatusInProgress, list[2].StatusAfter)

	list, err = repo.ListTransitions(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, list)
}

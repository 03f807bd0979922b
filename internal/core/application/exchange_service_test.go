package application_test

import (
	"context"
	"testing"

	"github.com/barterbay/barterd/internal/core/application/pubsub"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

func TestExchangeLifecycle(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()

	exchange := env.propose(t, 2)
	require.Equal(t, domain.StatusPending, exchange.Status)
	require.NotZero(t, exchange.ExpiresAt)

	exchange = env.deliverBoth(t, exchange.Id)
	require.Equal(t, domain.StatusInProgress, exchange.Status)

	exchange, err := svc.AdvanceConfirm(ctx, exchange.Id, env.requesterId, domain.Confirmed)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, exchange.Status)
	require.Zero(t, exchange.CompletedAt)

	exchange, err = svc.AdvanceConfirm(ctx, exchange.Id, env.receiverId, domain.Confirmed)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, exchange.Status)
	require.NotZero(t, exchange.CompletedAt)
	completedAt := exchange.CompletedAt

	_, err = svc.AdvanceConfirm(ctx, exchange.Id, env.receiverId, domain.Rejected)
	require.ErrorIs(t, err, domain.ErrAlreadyDecided)

	stored, err := svc.GetExchange(ctx, exchange.Id, env.requesterId, false)
	require.NoError(t, err)
	require.Equal(t, completedAt, stored.CompletedAt)

	history, err := svc.ListTransitions(ctx, exchange.Id, env.receiverId, false)
	require.NoError(t, err)
	require.Len(t, history, 7)
	require.Equal(t, domain.TransitionCreate, history[0].Kind)
	require.Equal(t, domain.StatusCompleted, history[6].StatusAfter)

	holds, err := env.cfg.RepoManager().ReservationRepository().
		GetReservationsForExchange(ctx, exchange.Id)
	require.NoError(t, err)
	require.Len(t, holds, 2)
	for _, h := range holds {
		require.Equal(t, domain.ReservationConsumed, h.Status)
	}

	rating := env.cfg.RatingService()
	eligibility, err := rating.CanRate(ctx, exchange.Id, env.requesterId)
	require.NoError(t, err)
	require.True(t, eligibility.Eligible)
	require.Equal(t, env.receiverId, eligibility.RatedUserId)

	eligibility, err = rating.CanRate(ctx, exchange.Id, randstr.Hex(8))
	require.NoError(t, err)
	require.False(t, eligibility.Eligible)

	_, err = rating.CanRate(ctx, randstr.Hex(16), env.requesterId)
	require.ErrorIs(t, err, domain.ErrNotFound)

	svc.WaitPendingEvents()
	env.pubsub.AssertCalled(t, "Publish", pubsub.TopicExchangeProposed, mock.Anything)
	env.pubsub.AssertCalled(t, "Publish", pubsub.TopicExchangeShippingUpdated, mock.Anything)
	env.pubsub.AssertCalled(t, "Publish", pubsub.TopicExchangeCompleted, mock.Anything)
	env.pubsub.AssertNotCalled(t, "Publish", pubsub.TopicExchangeRejected, mock.Anything)
}

func TestRejectedExchange(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()

	exchange := env.propose(t, 1)
	exchange = env.deliverBoth(t, exchange.Id)

	exchange, err := svc.AdvanceConfirm(ctx, exchange.Id, env.receiverId, domain.Rejected)
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, exchange.Status)
	require.Zero(t, exchange.CompletedAt)

	_, err = svc.AdvanceConfirm(ctx, exchange.Id, env.requesterId, domain.Confirmed)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	eligibility, err := env.cfg.RatingService().CanRate(ctx, exchange.Id, env.requesterId)
	require.NoError(t, err)
	require.False(t, eligibility.Eligible)

	reserved, err := env.cfg.RepoManager().ReservationRepository().
		ReservedAmount(ctx, env.requesterPd, size, color)
	require.NoError(t, err)
	require.Zero(t, reserved)

	svc.WaitPendingEvents()
	env.pubsub.AssertCalled(t, "Publish", pubsub.TopicExchangeRejected, mock.Anything)
}

func TestProposeValidation(t *testing.T) {
	env := newTestEnv(t, false)
	svc := env.cfg.ExchangeService()
	ctx := context.Background()

	tests := []struct {
		name        string
		proposal    func() domain.Proposal
		expectedErr error
	}{
		{
			name: "self trade",
			proposal: func() domain.Proposal {
				p := env.proposal(1)
				p.ReceiverId = p.RequesterId
				return p
			},
			expectedErr: domain.ErrSelfTrade,
		},
		{
			name: "unknown product",
			proposal: func() domain.Proposal {
				p := env.proposal(1)
				p.ReceiverOffer.ProductId = randstr.Hex(8)
				return p
			},
			expectedErr: domain.ErrProductNotEligible,
		},
		{
			name: "product of someone else",
			proposal: func() domain.Proposal {
				p := env.proposal(1)
				p.RequesterOffer.ProductId = env.receiverPd
				return p
			},
			expectedErr: domain.ErrProductNotEligible,
		},
		{
			name: "exceeding amount",
			proposal: func() domain.Proposal {
				return env.proposal(stock + 1)
			},
			expectedErr: domain.ErrInsufficientInventory,
		},
		{
			name: "unknown variant",
			proposal: func() domain.Proposal {
				p := env.proposal(1)
				p.ReceiverOffer.Color = "blue"
				return p
			},
			expectedErr: domain.ErrInsufficientInventory,
		},
		{
			name: "zero amount",
			proposal: func() domain.Proposal {
				return env.proposal(0)
			},
			expectedErr: domain.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			exchange, _, err := svc.Propose(ctx, tt.proposal(), "")
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, exchange)
		})
	}

	_, total, err := env.cfg.QueryService().ListForUser(
		ctx, domain.ExchangeFilter{UserId: env.requesterId}, domain.NewPage(1, 10),
	)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestInventoryHolds(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()

	first := env.propose(t, 2)

	_, _, err := svc.Propose(ctx, env.proposal(2), "")
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)

	env.propose(t, 1)

	_, err = svc.Cancel(ctx, first.Id, env.receiverId)
	require.NoError(t, err)

	env.propose(t, 2)

	reserved, err := env.cfg.RepoManager().ReservationRepository().
		ReservedAmount(ctx, env.requesterPd, size, color)
	require.NoError(t, err)
	require.Equal(t, uint64(stock), reserved)
}

func TestIdempotentPropose(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()
	key := randstr.Hex(16)

	exchange, replayed, err := svc.Propose(ctx, env.proposal(1), key)
	require.NoError(t, err)
	require.False(t, replayed)

	again, replayed, err := svc.Propose(ctx, env.proposal(1), key)
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, exchange.Id, again.Id)

	_, _, err = svc.Propose(ctx, env.proposal(2), key)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, total, err := env.cfg.QueryService().ListForUser(
		ctx, domain.ExchangeFilter{UserId: env.requesterId}, domain.NewPage(1, 10),
	)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	other, replayed, err := svc.Propose(ctx, env.proposal(1), randstr.Hex(16))
	require.NoError(t, err)
	require.False(t, replayed)
	require.NotEqual(t, exchange.Id, other.Id)
}

func TestForbiddenActions(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()
	stranger := randstr.Hex(8)

	exchange := env.propose(t, 1)

	tests := []struct {
		name        string
		action      func() error
		expectedErr error
	}{
		{
			name: "stranger ships",
			action: func() error {
				_, err := svc.AdvanceShipping(
					ctx, exchange.Id, stranger, domain.PartyUnspecified, domain.ShippingShipped,
				)
				return err
			},
			expectedErr: domain.ErrNotParticipant,
		},
		{
			name: "requester ships for receiver",
			action: func() error {
				_, err := svc.AdvanceShipping(
					ctx, exchange.Id, env.requesterId, domain.PartyReceiver, domain.ShippingShipped,
				)
				return err
			},
			expectedErr: domain.ErrForbiddenTransition,
		},
		{
			name: "skip shipped",
			action: func() error {
				_, err := svc.AdvanceShipping(
					ctx, exchange.Id, env.requesterId, domain.PartyRequester, domain.ShippingDelivered,
				)
				return err
			},
			expectedErr: domain.ErrInvalidTransition,
		},
		{
			name: "confirm before delivery",
			action: func() error {
				_, err := svc.AdvanceConfirm(ctx, exchange.Id, env.receiverId, domain.Confirmed)
				return err
			},
			expectedErr: domain.ErrShippingNotComplete,
		},
		{
			name: "stranger cancels",
			action: func() error {
				_, err := svc.Cancel(ctx, exchange.Id, stranger)
				return err
			},
			expectedErr: domain.ErrNotParticipant,
		},
		{
			name: "stranger reads",
			action: func() error {
				_, err := svc.GetExchange(ctx, exchange.Id, stranger, false)
				return err
			},
			expectedErr: domain.ErrNotParticipant,
		},
		{
			name: "unknown exchange",
			action: func() error {
				_, err := svc.Cancel(ctx, randstr.Hex(16), env.requesterId)
				return err
			},
			expectedErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		require.ErrorIs(t, tt.action(), tt.expectedErr, tt.name)
	}

	stored, err := svc.GetExchange(ctx, exchange.Id, stranger, true)
	require.NoError(t, err)
	require.Equal(t, exchange.Version, stored.Version)
	require.Equal(t, domain.StatusPending, stored.Status)

	_, err = svc.AdvanceShipping(
		ctx, exchange.Id, env.receiverId, domain.PartyUnspecified, domain.ShippingShipped,
	)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, exchange.Id, env.requesterId)
	require.ErrorIs(t, err, domain.ErrCannotCancel)
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()

	exchange := env.propose(t, 1)

	exchange, err := svc.Cancel(ctx, exchange.Id, env.requesterId)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, exchange.Status)
	require.True(t, exchange.Canceled)

	_, err = svc.AdvanceShipping(
		ctx, exchange.Id, env.receiverId, domain.PartyUnspecified, domain.ShippingShipped,
	)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Cancel(ctx, exchange.Id, env.receiverId)
	require.ErrorIs(t, err, domain.ErrCannotCancel)

	svc.WaitPendingEvents()
	env.pubsub.AssertCalled(t, "Publish", pubsub.TopicExchangeCanceled, mock.Anything)
}

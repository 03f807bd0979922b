package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/application/pubsub"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExpirySweep(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	svc := env.cfg.ExchangeService()
	sweeper := env.cfg.ExpiryService()

	stale := env.propose(t, 1)
	started := env.propose(t, 1)
	_, err := svc.AdvanceShipping(
		ctx, started.Id, env.requesterId, domain.PartyUnspecified, domain.ShippingShipped,
	)
	require.NoError(t, err)

	count, err := sweeper.Sweep(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, count)

	later := time.Now().Add(2 * time.Hour)
	count, err = sweeper.Sweep(ctx, later)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	expired, err := svc.GetExchange(ctx, stale.Id, env.requesterId, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, expired.Status)
	require.Equal(t, "expired", expired.CancelReason)

	inProgress, err := svc.GetExchange(ctx, started.Id, env.requesterId, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, inProgress.Status)

	count, err = sweeper.Sweep(ctx, later)
	require.NoError(t, err)
	require.Zero(t, count)

	history, err := svc.ListTransitions(ctx, stale.Id, env.receiverId, false)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, domain.TransitionExpire, history[1].Kind)
	require.Empty(t, history[1].ActorId)

	svc.WaitPendingEvents()
	env.pubsub.AssertCalled(t, "Publish", pubsub.TopicExchangeExpired, mock.Anything)
}

func TestExpiryServiceStart(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.cfg.ExchangeService().Expire(context.Background(), "missing", time.Now())
	require.ErrorIs(t, err, domain.ErrNotFound)

	sweeper := env.cfg.ExpiryService()
	require.NotNil(t, sweeper)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	cancel()

	_, err = application.NewExpiryService(env.cfg.ExchangeService(), 0)
	require.Error(t, err)
}

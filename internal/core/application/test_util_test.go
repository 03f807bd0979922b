package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/internal/infrastructure/idempotency"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thanhpk/randstr"
)

const (
	size  = "M"
	color = "red"
	stock = 3
)

type testEnv struct {
	cfg         *application.Config
	inventory   *mockInventory
	pubsub      *mockPubSub
	requesterId string
	receiverId  string
	requesterPd string
	receiverPd  string
}

func newTestEnv(t *testing.T, reserve bool) *testEnv {
	t.Helper()

	env := &testEnv{
		inventory:   &mockInventory{},
		pubsub:      &mockPubSub{},
		requesterId: randstr.Hex(8),
		receiverId:  randstr.Hex(8),
		requesterPd: randstr.Hex(8),
		receiverPd:  randstr.Hex(8),
	}
	env.inventory.On("GetProduct", mock.Anything, env.requesterPd).
		Return(activeProduct(env.requesterPd, env.requesterId), nil)
	env.inventory.On("GetProduct", mock.Anything, env.receiverPd).
		Return(activeProduct(env.receiverPd, env.receiverId), nil)
	env.inventory.On("GetProduct", mock.Anything, mock.Anything).
		Return(nil, nil)
	env.pubsub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	keys, err := idempotency.NewStore(t.TempDir())
	require.NoError(t, err)

	env.cfg = &application.Config{
		DBType:              application.DBInmemory,
		Inventory:           env.inventory,
		PubSub:              env.pubsub,
		IdempotencyStore:    keys,
		ReserveInventory:    reserve,
		ExchangeTTL:         time.Hour,
		ExpirySweepInterval: time.Minute,
	}
	require.NoError(t, env.cfg.Validate())

	t.Cleanup(func() {
		env.cfg.ExchangeService().WaitPendingEvents()
		env.cfg.RepoManager().Close()
		keys.Close()
	})
	return env
}

func (env *testEnv) proposal(amount uint64) domain.Proposal {
	return domain.Proposal{
		RequesterId: env.requesterId,
		ReceiverId:  env.receiverId,
		RequesterOffer: domain.Offer{
			ProductId: env.requesterPd, Size: size, Color: color, Amount: amount,
		},
		ReceiverOffer: domain.Offer{
			ProductId: env.receiverPd, Size: size, Color: color, Amount: 1,
		},
		ShippingMethod: "courier",
	}
}

func (env *testEnv) propose(t *testing.T, amount uint64) *domain.Exchange {
	t.Helper()

	exchange, replayed, err := env.cfg.ExchangeService().Propose(
		context.Background(), env.proposal(amount), "",
	)
	require.NoError(t, err)
	require.False(t, replayed)
	return exchange
}

// deliverBoth ships and delivers the goods of both participants.
func (env *testEnv) deliverBoth(t *testing.T, exchangeId string) *domain.Exchange {
	t.Helper()

	ctx := context.Background()
	svc := env.cfg.ExchangeService()
	var (
		exchange *domain.Exchange
		err      error
	)
	for _, userId := range []string{env.requesterId, env.receiverId} {
		for _, status := range []domain.ShippingStatus{
			domain.ShippingShipped, domain.ShippingDelivered,
		} {
			exchange, err = svc.AdvanceShipping(
				ctx, exchangeId, userId, domain.PartyUnspecified, status,
			)
			require.NoError(t, err)
		}
	}
	return exchange
}

func activeProduct(id, ownerId string) *ports.Product {
	return &ports.Product{
		Id:      id,
		OwnerId: ownerId,
		Status:  ports.ProductStatusActive,
		Variants: []ports.ProductVariant{
			{Size: size, Color: color, Amount: stock},
			{Size: "L", Color: color, Amount: 1},
		},
	}
}

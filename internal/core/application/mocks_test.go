package application_test

import (
	"context"

	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// **** Inventory ****

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) GetProduct(
	ctx context.Context, productId string,
) (*ports.Product, error) {
	args := m.Called(ctx, productId)

	var res *ports.Product
	if a := args.Get(0); a != nil {
		res = a.(*ports.Product)
	}
	return res, args.Error(1)
}

// **** PubSub ****

type mockPubSub struct {
	mock.Mock
}

func (m *mockPubSub) Subscribe(topic, endpoint, secret string) (string, error) {
	args := m.Called(topic, endpoint, secret)
	return args.String(0), args.Error(1)
}

func (m *mockPubSub) Unsubscribe(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *mockPubSub) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	args := m.Called(topic)

	var res []ports.Subscription
	if a := args.Get(0); a != nil {
		res = a.([]ports.Subscription)
	}
	return res
}

func (m *mockPubSub) Publish(topic string, message string) error {
	args := m.Called(topic, message)
	return args.Error(0)
}

func (m *mockPubSub) Close() error {
	args := m.Called()
	return args.Error(0)
}

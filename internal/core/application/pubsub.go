package application

import (
	"context"

	"github.com/barterbay/barterd/internal/core/application/pubsub"
	"github.com/barterbay/barterd/internal/core/ports"
)

type Webhook = pubsub.Webhook
type WebhookInfo = pubsub.WebhookInfo

// PubSubService manages the webhooks notified on exchange transitions.
type PubSubService interface {
	AddWebhook(ctx context.Context, hook Webhook) (string, error)
	RemoveWebhook(ctx context.Context, hookID string) error
	ListWebhooks(ctx context.Context, event string) ([]WebhookInfo, error)
}

func NewPubSubService(pubsubSvc ports.PubSub) PubSubService {
	return pubsub.NewService(pubsubSvc)
}

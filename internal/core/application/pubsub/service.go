package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
)

const (
	TopicExchangeProposed        = "exchange.proposed"
	TopicExchangeShippingUpdated = "exchange.shipping_updated"
	TopicExchangeConfirmUpdated  = "exchange.confirm_updated"
	TopicExchangeCompleted       = "exchange.completed"
	TopicExchangeRejected        = "exchange.rejected"
	TopicExchangeCanceled        = "exchange.canceled"
	TopicExchangeExpired         = "exchange.expired"
)

// Topics lists every topic a webhook can subscribe to.
var Topics = []string{
	TopicExchangeProposed,
	TopicExchangeShippingUpdated,
	TopicExchangeConfirmUpdated,
	TopicExchangeCompleted,
	TopicExchangeRejected,
	TopicExchangeCanceled,
	TopicExchangeExpired,
	ports.AnyTopic,
}

// TopicsForTransition returns the topics to publish after the given
// transition: the one describing the transition itself plus, if the
// exchange reached a terminal status, the terminal one.
func TopicsForTransition(t domain.Transition) []string {
	var topic string
	switch t.Kind {
	case domain.TransitionCreate:
		topic = TopicExchangeProposed
	case domain.TransitionShipping:
		topic = TopicExchangeShippingUpdated
	case domain.TransitionConfirm:
		topic = TopicExchangeConfirmUpdated
	case domain.TransitionCancel:
		return []string{TopicExchangeCanceled}
	case domain.TransitionExpire:
		return []string{TopicExchangeExpired}
	default:
		return nil
	}

	topics := []string{topic}
	switch t.StatusAfter {
	case domain.StatusCompleted:
		topics = append(topics, TopicExchangeCompleted)
	case domain.StatusRejected:
		topics = append(topics, TopicExchangeRejected)
	}
	return topics
}

// Webhook ...
type Webhook struct {
	Event    string
	Endpoint string
	Secret   string
}

// WebhookInfo ...
type WebhookInfo struct {
	Id        string `json:"id"`
	Event     string `json:"event"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"isSecured"`
}

// ExchangeEvent is the JSON payload delivered to webhooks.
type ExchangeEvent struct {
	Event       string                `json:"event"`
	ExchangeId  string                `json:"exchangeId"`
	RequesterId string                `json:"requesterId"`
	ReceiverId  string                `json:"receiverId"`
	ActorId     string                `json:"actorId,omitempty"`
	Notify      []string              `json:"notify"`
	Status      domain.ExchangeStatus `json:"status"`
	Transition  domain.TransitionKind `json:"transition"`
	From        string                `json:"from,omitempty"`
	To          string                `json:"to,omitempty"`
	Timestamp   int64                 `json:"timestamp"`
}

type Service struct {
	pubsub ports.PubSub
}

func NewService(pubsub ports.PubSub) *Service {
	return &Service{pubsub}
}

func (s *Service) PubSub() ports.PubSub {
	return s.pubsub
}

func (s *Service) AddWebhook(_ context.Context, webhook Webhook) (string, error) {
	if !isValidTopic(webhook.Event) {
		return "", fmt.Errorf(
			"%w: unknown webhook event %q", domain.ErrInvalidArgument, webhook.Event,
		)
	}
	return s.pubsub.Subscribe(webhook.Event, webhook.Endpoint, webhook.Secret)
}

func (s *Service) RemoveWebhook(_ context.Context, id string) error {
	return s.pubsub.Unsubscribe(id)
}

func (s *Service) ListWebhooks(
	_ context.Context, event string,
) ([]WebhookInfo, error) {
	if event != ports.UnspecifiedTopic && !isValidTopic(event) {
		return nil, fmt.Errorf(
			"%w: unknown webhook event %q", domain.ErrInvalidArgument, event,
		)
	}

	subs := s.pubsub.ListSubscriptionsForTopic(event)
	webhooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		webhooks = append(webhooks, WebhookInfo{
			Id:        sub.Id(),
			Event:     sub.Topic(),
			Endpoint:  sub.NotifyAt(),
			IsSecured: sub.IsSecured(),
		})
	}
	return webhooks, nil
}

// PublishTransitionEvents publishes one event per topic of the transition.
// The notified users are the participants other than the actor.
func (s *Service) PublishTransitionEvents(
	e domain.Exchange, t domain.Transition,
) error {
	for _, topic := range TopicsForTransition(t) {
		payload := ExchangeEvent{
			Event:       topic,
			ExchangeId:  e.Id,
			RequesterId: e.RequesterId,
			ReceiverId:  e.ReceiverId,
			ActorId:     t.ActorId,
			Notify:      notifyList(e, t.ActorId),
			Status:      e.Status,
			Transition:  t.Kind,
			From:        t.From,
			To:          t.To,
			Timestamp:   time.Now().Unix(),
		}
		message, _ := json.Marshal(payload)
		if err := s.pubsub.Publish(topic, string(message)); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	return nil
}

func notifyList(e domain.Exchange, actorId string) []string {
	if actorId == "" {
		return []string{e.RequesterId, e.ReceiverId}
	}
	return []string{e.Counterparty(actorId)}
}

func isValidTopic(topic string) bool {
	for _, t := range Topics {
		if t == topic {
			return true
		}
	}
	return false
}

package pubsub

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/google/uuid"
)

// Subscription is a webhook endpoint notified for a single topic, or for all
// of them when the topic is ports.AnyTopic.
type Subscription struct {
	ID       string `json:"id"`
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret,omitempty"`
}

type subscriptions []Subscription

func (s subscriptions) toPortable() []ports.Subscription {
	out := make([]ports.Subscription, 0, len(s))
	for i := range s {
		out = append(out, &s[i])
	}
	return out
}

// NewSubscription validates the endpoint, only absolute http(s) URLs with a
// host are accepted.
func NewSubscription(event, endpoint, secret string) (*Subscription, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return nil, fmt.Errorf("%w: missing event", domain.ErrInvalidArgument)
	}

	u, err := url.ParseRequestURI(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf(
			"%w: webhook endpoint must be an absolute http URL", domain.ErrInvalidArgument,
		)
	}

	return &Subscription{
		ID:       uuid.New().String(),
		Event:    event,
		Endpoint: u.String(),
		Secret:   secret,
	}, nil
}

func decodeSubscription(buf []byte) (*Subscription, error) {
	sub := &Subscription{}
	if err := json.Unmarshal(buf, sub); err != nil {
		return nil, fmt.Errorf("decoding subscription: %w", err)
	}
	return sub, nil
}

// Matches tells whether the subscription must be notified for the topic.
func (s *Subscription) Matches(topic string) bool {
	return s.Event == topic || s.Event == ports.AnyTopic
}

func (s *Subscription) Topic() string    { return s.Event }
func (s *Subscription) Id() string       { return s.ID }
func (s *Subscription) NotifyAt() string { return s.Endpoint }
func (s *Subscription) IsSecured() bool  { return s.Secret != "" }

func (s *Subscription) encode() ([]byte, error) {
	return json.Marshal(s)
}

package pubsub

import (
	"fmt"
	"net/http"
	"time"

	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/pkg/circuitbreaker"
	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

const (
	requestTimeout = 15 * time.Second
	tokenTTL       = 5 * time.Minute
)

type service struct {
	store      *store
	httpClient *client
	cb         *gobreaker.CircuitBreaker
}

// NewService returns a webhook pubsub whose subscriptions are persisted in a
// bolt file under datadir.
func NewService(datadir string) (ports.PubSub, error) {
	if datadir == "" {
		return nil, fmt.Errorf("missing datadir")
	}
	st, err := newStore(datadir)
	if err != nil {
		return nil, err
	}

	return &service{
		store:      st,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks"),
	}, nil
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}
	if err := ws.store.add(sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (ws *service) Unsubscribe(id string) error {
	sub, err := ws.store.get(id)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: webhook %s", domain.ErrNotFound, id)
	}
	return ws.store.remove(id)
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	return ws.listSubscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	subs := ws.listSubscriptionsForTopic(topic)

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.doRequest(sub, message) })
	}
	return eg.Wait()
}

func (ws *service) Close() error {
	return ws.store.close()
}

// listSubscriptionsForTopic returns the subscriptions for the topic plus
// those for any topic. The unspecified topic returns all of them.
func (ws *service) listSubscriptionsForTopic(topic string) subscriptions {
	all, err := ws.store.list()
	if err != nil {
		log.WithError(err).Warn("failed to list webhook subscriptions")
		return nil
	}
	if topic == ports.UnspecifiedTopic {
		return all
	}

	subs := make(subscriptions, 0, len(all))
	for _, sub := range all {
		if sub.Matches(topic) {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (ws *service) doRequest(sub Subscription, payload string) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if sub.IsSecured() {
			now := time.Now()
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
				Subject:   sub.ID,
				IssuedAt:  now.Unix(),
				ExpiresAt: now.Add(tokenTTL).Unix(),
			})
			tokenString, err := token.SignedString([]byte(sub.Secret))
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := ws.httpClient.post(sub.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("webhook %s responded %d: %s", sub.ID, status, resp)
		}
		return nil, nil
	})

	return err
}

package application

import "errors"

var (
	// ErrWebhooksDisabled is returned by the webhook endpoints when the daemon
	// runs without a pubsub service.
	ErrWebhooksDisabled = errors.New("webhooks are not enabled")
)

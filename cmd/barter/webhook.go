package main

import (
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var addwebhook = cli.Command{
	Name:  "addwebhook",
	Usage: "add a webhook notified on exchange events",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "event",
			Usage:    "the event to be notified of, like exchange.completed, or * for all",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "endpoint",
			Usage:    "the url where to receive the events",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "secret",
			Usage: "the secret used to sign the bearer token sent with every event",
		},
	},
	Action: addWebhookAction,
}

var listwebhooks = cli.Command{
	Name:  "listwebhooks",
	Usage: "list all webhooks registered for some event",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "event",
			Usage: "the event to filter hooks by",
		},
	},
	Action: listWebhooksAction,
}

var removewebhook = cli.Command{
	Name:  "removewebhook",
	Usage: "remove a webhook",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "the id of the webhook to remove",
			Required: true,
		},
	},
	Action: removeWebhookAction,
}

func addWebhookAction(ctx *cli.Context) error {
	body := map[string]string{
		"event":    ctx.String("event"),
		"endpoint": ctx.String("endpoint"),
		"secret":   ctx.String("secret"),
	}
	return callDaemon(http.MethodPost, "/webhooks", nil, body, nil)
}

func listWebhooksAction(ctx *cli.Context) error {
	query := url.Values{}
	setIfNotEmpty(query, "event", ctx.String("event"))

	return callDaemon(http.MethodGet, "/webhooks", query, nil, nil)
}

func removeWebhookAction(ctx *cli.Context) error {
	path := "/webhooks/" + url.PathEscape(ctx.String("id"))
	return callDaemon(http.MethodDelete, path, nil, nil, nil)
}

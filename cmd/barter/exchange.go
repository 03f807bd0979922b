package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"
)

var (
	idFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "the id of the exchange",
		Required: true,
	}
	pageFlag = &cli.IntFlag{
		Name:  "page",
		Usage: "the page number, starting from 1",
		Value: 1,
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "the page size, max 100",
		Value: 10,
	}
)

var propose = cli.Command{
	Name:  "propose",
	Usage: "propose an exchange of one of your products with one of another user",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "receiver", Usage: "the id of the other user", Required: true},
		&cli.StringFlag{Name: "product", Usage: "the id of the offered product", Required: true},
		&cli.StringFlag{Name: "size", Usage: "the size of the offered product"},
		&cli.StringFlag{Name: "color", Usage: "the color of the offered product"},
		&cli.Uint64Flag{Name: "amount", Usage: "the offered amount", Value: 1},
		&cli.StringFlag{Name: "receiver_product", Usage: "the id of the requested product", Required: true},
		&cli.StringFlag{Name: "receiver_size", Usage: "the size of the requested product"},
		&cli.StringFlag{Name: "receiver_color", Usage: "the color of the requested product"},
		&cli.Uint64Flag{Name: "receiver_amount", Usage: "the requested amount", Value: 1},
		&cli.StringFlag{Name: "shipping_method", Usage: "how the goods are shipped"},
		&cli.StringFlag{Name: "note", Usage: "a note for the receiver"},
		&cli.StringFlag{Name: "idempotency_key", Usage: "makes retries of this proposal safe"},
	},
	Action: proposeAction,
}

var list = cli.Command{
	Name:  "list",
	Usage: "list your exchanges",
	Flags: []cli.Flag{
		pageFlag,
		limitFlag,
		&cli.StringFlag{Name: "role", Usage: "requester, receiver or all"},
		&cli.StringFlag{Name: "counterparty", Usage: "only exchanges with this user"},
	},
	Action: listAction,
}

var manage = cli.Command{
	Name:  "manage",
	Usage: "list all exchanges (requires the exchange:manage permission)",
	Flags: []cli.Flag{
		pageFlag,
		limitFlag,
		&cli.StringFlag{Name: "sort_by", Usage: "created_at, updated_at, completed_at or status"},
		&cli.StringFlag{Name: "sort_order", Usage: "asc or desc"},
		&cli.StringFlag{Name: "order_by", Usage: "order in the form '<field> [desc]', overrides sort flags"},
	},
	Action: manageAction,
}

var show = cli.Command{
	Name:   "show",
	Usage:  "show the details of an exchange",
	Flags:  []cli.Flag{idFlag},
	Action: showAction,
}

var ship = cli.Command{
	Name:  "ship",
	Usage: "advance the shipping status of your side of an exchange",
	Flags: []cli.Flag{
		idFlag,
		&cli.StringFlag{Name: "status", Usage: "shipped or delivered", Required: true},
		&cli.StringFlag{Name: "party", Usage: "the side you act on, requester or receiver"},
	},
	Action: shipAction,
}

var confirm = cli.Command{
	Name:  "confirm",
	Usage: "confirm or reject the exchange once your goods are delivered",
	Flags: []cli.Flag{
		idFlag,
		&cli.StringFlag{Name: "decision", Usage: "confirmed or rejected", Required: true},
	},
	Action: confirmAction,
}

var cancel = cli.Command{
	Name:   "cancel",
	Usage:  "cancel a pending exchange",
	Flags:  []cli.Flag{idFlag},
	Action: cancelAction,
}

var canrate = cli.Command{
	Name:   "canrate",
	Usage:  "tell whether you can rate the counterparty of an exchange",
	Flags:  []cli.Flag{idFlag},
	Action: canrateAction,
}

var history = cli.Command{
	Name:   "history",
	Usage:  "list the transitions of an exchange",
	Flags:  []cli.Flag{idFlag},
	Action: historyAction,
}

func proposeAction(ctx *cli.Context) error {
	body := map[string]interface{}{
		"receiverId": ctx.String("receiver"),
		"requesterOffer": map[string]interface{}{
			"productId": ctx.String("product"),
			"size":      ctx.String("size"),
			"color":     ctx.String("color"),
			"amount":    ctx.Uint64("amount"),
		},
		"receiverOffer": map[string]interface{}{
			"productId": ctx.String("receiver_product"),
			"size":      ctx.String("receiver_size"),
			"color":     ctx.String("receiver_color"),
			"amount":    ctx.Uint64("receiver_amount"),
		},
		"shippingMethod": ctx.String("shipping_method"),
		"note":           ctx.String("note"),
	}

	var header map[string]string
	if key := ctx.String("idempotency_key"); key != "" {
		header = map[string]string{"Idempotency-Key": key}
	}

	return callDaemon(http.MethodPost, "/exchanges", nil, body, header)
}

func listAction(ctx *cli.Context) error {
	query := pageQuery(ctx)
	setIfNotEmpty(query, "filterRole", ctx.String("role"))
	setIfNotEmpty(query, "filterUserId", ctx.String("counterparty"))

	return callDaemon(http.MethodGet, "/exchanges", query, nil, nil)
}

func manageAction(ctx *cli.Context) error {
	query := pageQuery(ctx)
	setIfNotEmpty(query, "sortBy", ctx.String("sort_by"))
	setIfNotEmpty(query, "sortOrder", ctx.String("sort_order"))
	setIfNotEmpty(query, "orderBy", ctx.String("order_by"))

	return callDaemon(http.MethodGet, "/exchanges/manage", query, nil, nil)
}

func showAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, exchangePath(ctx, ""), nil, nil, nil)
}

func shipAction(ctx *cli.Context) error {
	query := url.Values{"status": {ctx.String("status")}}
	setIfNotEmpty(query, "party", ctx.String("party"))

	return callDaemon(http.MethodPatch, exchangePath(ctx, "shipping"), query, nil, nil)
}

func confirmAction(ctx *cli.Context) error {
	query := url.Values{"confirmStatus": {ctx.String("decision")}}

	return callDaemon(http.MethodPatch, exchangePath(ctx, "confirm"), query, nil, nil)
}

func cancelAction(ctx *cli.Context) error {
	return callDaemon(http.MethodPost, exchangePath(ctx, "cancel"), nil, nil, nil)
}

func canrateAction(ctx *cli.Context) error {
	return callDaemon(
		http.MethodGet, exchangePath(ctx, "rating-eligibility"), nil, nil, nil,
	)
}

func historyAction(ctx *cli.Context) error {
	return callDaemon(http.MethodGet, exchangePath(ctx, "transitions"), nil, nil, nil)
}

func exchangePath(ctx *cli.Context, action string) string {
	path := fmt.Sprintf("/exchanges/%s", url.PathEscape(ctx.String("id")))
	if action != "" {
		path += "/" + action
	}
	return path
}

func pageQuery(ctx *cli.Context) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(ctx.Int("page"))},
		"limit": {strconv.Itoa(ctx.Int("limit"))},
	}
}

func setIfNotEmpty(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

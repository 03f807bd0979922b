package httphandler

import (
	"fmt"

	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/gofiber/fiber/v2"
)

type webhookHandler struct {
	webhookSvc application.PubSubService
}

// NewWebhookHandler returns the handler of the /webhooks routes. A nil
// service makes every route fail with ErrWebhooksDisabled.
func NewWebhookHandler(webhookSvc application.PubSubService) *webhookHandler {
	return &webhookHandler{webhookSvc}
}

func (h *webhookHandler) AddWebhook(c *fiber.Ctx) error {
	if h.webhookSvc == nil {
		return application.ErrWebhooksDisabled
	}

	var req AddWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: malformed body", domain.ErrInvalidArgument)
	}

	hookID, err := h.webhookSvc.AddWebhook(c.UserContext(), application.Webhook{
		Event:    req.Event,
		Endpoint: req.Endpoint,
		Secret:   req.Secret,
	})
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusCreated, fiber.Map{"id": hookID}, "webhook added")
}

func (h *webhookHandler) RemoveWebhook(c *fiber.Ctx) error {
	if h.webhookSvc == nil {
		return application.ErrWebhooksDisabled
	}

	if err := h.webhookSvc.RemoveWebhook(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, nil, "webhook removed")
}

func (h *webhookHandler) ListWebhooks(c *fiber.Ctx) error {
	if h.webhookSvc == nil {
		return application.ErrWebhooksDisabled
	}

	hooks, err := h.webhookSvc.ListWebhooks(c.UserContext(), c.Query("event"))
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, hooks, "")
}

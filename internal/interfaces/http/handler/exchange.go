package httphandler

import (
	"fmt"

	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/barterbay/barterd/internal/interfaces/http/middleware"
	"github.com/barterbay/barterd/internal/interfaces/http/permissions"
	"github.com/gofiber/fiber/v2"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type exchangeHandler struct {
	exchangeSvc application.ExchangeService
	querySvc    application.QueryService
	ratingSvc   application.RatingService
}

// NewExchangeHandler returns the handler of the /exchanges routes.
func NewExchangeHandler(
	exchangeSvc application.ExchangeService,
	querySvc application.QueryService,
	ratingSvc application.RatingService,
) *exchangeHandler {
	return &exchangeHandler{exchangeSvc, querySvc, ratingSvc}
}

func (h *exchangeHandler) Propose(c *fiber.Ctx) error {
	var req ProposeRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: malformed body", domain.ErrInvalidArgument)
	}

	userId := middleware.IdentityFrom(c).UserId
	exchange, replayed, err := h.exchangeSvc.Propose(
		c.UserContext(), req.toDomain(userId), c.Get(IdempotencyKeyHeader),
	)
	if err != nil {
		return err
	}

	message := "exchange proposed"
	if replayed {
		message = "exchange already proposed"
	}
	return sendData(
		c, fiber.StatusCreated, fiber.Map{"id": exchange.Id}, message,
	)
}

func (h *exchangeHandler) ListOwn(c *fiber.Ctx) error {
	role, err := domain.ParseRole(c.Query("filterRole"))
	if err != nil {
		return err
	}
	page := parsePage(c)
	filter := domain.ExchangeFilter{
		UserId:         middleware.IdentityFrom(c).UserId,
		Role:           role,
		CounterpartyId: c.Query("filterUserId"),
	}

	exchanges, total, err := h.querySvc.ListForUser(c.UserContext(), filter, page)
	if err != nil {
		return err
	}
	return sendPage(c, newExchangeInfoList(exchanges), page, total)
}

func (h *exchangeHandler) ListAll(c *fiber.Ctx) error {
	sort, err := application.ParseSort(
		c.Query("sortBy"), c.Query("sortOrder"), c.Query("orderBy"),
	)
	if err != nil {
		return err
	}
	page := parsePage(c)

	exchanges, total, err := h.querySvc.ListAll(c.UserContext(), sort, page)
	if err != nil {
		return err
	}
	return sendPage(c, newExchangeInfoList(exchanges), page, total)
}

func (h *exchangeHandler) Get(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	exchange, err := h.exchangeSvc.GetExchange(
		c.UserContext(), c.Params("id"), identity.UserId,
		identity.Has(permissions.ManageExchanges),
	)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, newExchangeInfo(exchange), "")
}

func (h *exchangeHandler) AdvanceShipping(c *fiber.Ctx) error {
	target, err := domain.ParseShippingStatus(c.Query("status"))
	if err != nil {
		return err
	}
	party, err := domain.ParseParty(c.Query("party"))
	if err != nil {
		return err
	}

	exchange, err := h.exchangeSvc.AdvanceShipping(
		c.UserContext(), c.Params("id"), middleware.IdentityFrom(c).UserId,
		party, target,
	)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, newExchangeInfo(exchange), "shipping updated")
}

func (h *exchangeHandler) AdvanceConfirm(c *fiber.Ctx) error {
	decision, err := domain.ParseConfirmStatus(c.Query("confirmStatus"))
	if err != nil {
		return err
	}

	exchange, err := h.exchangeSvc.AdvanceConfirm(
		c.UserContext(), c.Params("id"), middleware.IdentityFrom(c).UserId, decision,
	)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, newExchangeInfo(exchange), "confirmation updated")
}

func (h *exchangeHandler) Cancel(c *fiber.Ctx) error {
	exchange, err := h.exchangeSvc.Cancel(
		c.UserContext(), c.Params("id"), middleware.IdentityFrom(c).UserId,
	)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, newExchangeInfo(exchange), "exchange canceled")
}

func (h *exchangeHandler) RatingEligibility(c *fiber.Ctx) error {
	eligibility, err := h.ratingSvc.CanRate(
		c.UserContext(), c.Params("id"), middleware.IdentityFrom(c).UserId,
	)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, eligibility, "")
}

func (h *exchangeHandler) ListTransitions(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	transitions, err := h.exchangeSvc.ListTransitions(
		c.UserContext(), c.Params("id"), identity.UserId,
		identity.Has(permissions.ManageExchanges),
	)
	if err != nil {
		return err
	}
	return sendData(c, fiber.StatusOK, newTransitionInfoList(transitions), "")
}

func parsePage(c *fiber.Ctx) domain.Page {
	return domain.NewPage(c.QueryInt("page", 1), c.QueryInt("limit", domain.DefaultPageSize))
}

package httphandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/barterbay/barterd/internal/core/application"
	"github.com/barterbay/barterd/internal/core/domain"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Response is the envelope of every REST response.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

func newPagination(page domain.Page, total int) *Pagination {
	totalPages := (total + page.Size - 1) / page.Size
	return &Pagination{
		Page:       page.Number,
		Limit:      page.Size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page.Number < totalPages,
		HasPrev:    page.Number > 1,
	}
}

func sendData(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now(),
	})
}

func sendPage(
	c *fiber.Ctx, data interface{}, page domain.Page, total int,
) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success:    true,
		Data:       data,
		Pagination: newPagination(page, total),
		Timestamp:  now(),
	})
}

func sendError(
	c *fiber.Ctx, status int, code, message string, retryable bool,
) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Message: message,
		Error: &ErrorBody{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
		Timestamp: now(),
	})
}

// ErrorHandler renders the errors returned by handlers and middlewares.
// Domain errors are mapped by kind, unknown errors become a 500 whose
// message is not disclosed.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := strings.ToUpper(
			strings.ReplaceAll(http.StatusText(fiberErr.Code), " ", "_"),
		)
		return sendError(c, fiberErr.Code, code, fiberErr.Message, false)
	}

	if errors.Is(err, application.ErrWebhooksDisabled) {
		return sendError(
			c, fiber.StatusServiceUnavailable, "WEBHOOKS_DISABLED", err.Error(), false,
		)
	}

	status := StatusOf(domain.KindOf(err))
	if status == fiber.StatusInternalServerError {
		log.WithError(err).Errorf("%s %s: internal error", c.Method(), c.Path())
		return sendError(c, status, domain.CodeOf(err), "internal error", false)
	}
	return sendError(c, status, domain.CodeOf(err), err.Error(), domain.IsRetryable(err))
}

// StatusOf maps a domain error kind to its HTTP status code.
func StatusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindAuthorization:
		return fiber.StatusForbidden
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

package middleware

import (
	"time"

	"github.com/barterbay/barterd/pkg/stats"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Logger logs every request once the response is final and counts it in
// the request metrics. Errors of the chain are rendered here with the app's
// error handler so that the logged status is the one sent.
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		stats.RecordHTTPRequest(c.Method(), status)

		entry := log.WithFields(log.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if identity := IdentityFrom(c); identity != nil {
			entry = entry.WithField("user", identity.UserId)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
		return nil
	}
}

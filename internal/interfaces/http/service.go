package httpinterface

import (
	"fmt"
	"strings"
	"time"

	"github.com/barterbay/barterd/internal/core/application"
	interfaces "github.com/barterbay/barterd/internal/interfaces"
	httphandler "github.com/barterbay/barterd/internal/interfaces/http/handler"
	"github.com/barterbay/barterd/internal/interfaces/http/middleware"
	"github.com/barterbay/barterd/internal/interfaces/http/permissions"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

type ServiceOpts struct {
	Port        int
	JWTSecret   string
	CORSOrigins []string

	ExchangeSvc application.ExchangeService
	QuerySvc    application.QueryService
	RatingSvc   application.RatingService
	// PubSubSvc is optional, webhook routes answer 503 without it.
	PubSubSvc application.PubSubService
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid listening port %d", o.Port)
	}
	if len(o.JWTSecret) <= 0 {
		return fmt.Errorf("missing jwt secret")
	}
	if o.ExchangeSvc == nil {
		return fmt.Errorf("exchange app service must not be null")
	}
	if o.QuerySvc == nil {
		return fmt.Errorf("query app service must not be null")
	}
	if o.RatingSvc == nil {
		return fmt.Errorf("rating app service must not be null")
	}
	return nil
}

type service struct {
	opts ServiceOpts
	app  *fiber.App
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	app, err := NewApp(opts)
	if err != nil {
		return nil, err
	}
	return &service{opts, app}, nil
}

// NewApp returns the fiber app serving the REST interface.
func NewApp(opts ServiceOpts) (*fiber.App, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	if err := permissions.Validate(); err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               "barterd",
		Immutable:             true,
		ErrorHandler:          httphandler.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(middleware.Logger())
	app.Use(recover.New())
	if len(opts.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(opts.CORSOrigins, ","),
			AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,Authorization,Idempotency-Key",
		}))
	}

	if err := registerRoutes(app, opts); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *service) Start() error {
	address := fmt.Sprintf(":%d", s.opts.Port)

	go func() {
		if err := s.app.Listen(address); err != nil {
			log.WithError(err).Error("rest server stopped")
		}
	}()

	log.Infof("rest interface is listening on %s", address)
	return nil
}

func (s *service) Stop() {
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Warn("error while stopping rest server")
		return
	}
	log.Info("stopped rest server")
}

type route struct {
	method  string
	path    string
	handler fiber.Handler
}

func registerRoutes(app *fiber.App, opts ServiceOpts) error {
	exchangeHandler := httphandler.NewExchangeHandler(
		opts.ExchangeSvc, opts.QuerySvc, opts.RatingSvc,
	)
	webhookHandler := httphandler.NewWebhookHandler(opts.PubSubSvc)

	// manage must precede :id.
	routes := []route{
		{fiber.MethodGet, "/health", health},
		{fiber.MethodGet, "/metrics", adaptor.HTTPHandler(promhttp.Handler())},
		{fiber.MethodPost, "/exchanges", exchangeHandler.Propose},
		{fiber.MethodGet, "/exchanges", exchangeHandler.ListOwn},
		{fiber.MethodGet, "/exchanges/manage", exchangeHandler.ListAll},
		{fiber.MethodGet, "/exchanges/:id", exchangeHandler.Get},
		{fiber.MethodPatch, "/exchanges/:id/shipping", exchangeHandler.AdvanceShipping},
		{fiber.MethodPatch, "/exchanges/:id/confirm", exchangeHandler.AdvanceConfirm},
		{fiber.MethodPost, "/exchanges/:id/cancel", exchangeHandler.Cancel},
		{fiber.MethodGet, "/exchanges/:id/rating-eligibility", exchangeHandler.RatingEligibility},
		{fiber.MethodGet, "/exchanges/:id/transitions", exchangeHandler.ListTransitions},
		{fiber.MethodPost, "/webhooks", webhookHandler.AddWebhook},
		{fiber.MethodGet, "/webhooks", webhookHandler.ListWebhooks},
		{fiber.MethodDelete, "/webhooks/:id", webhookHandler.RemoveWebhook},
	}

	whitelist := permissions.Whitelist()
	permissionsByRoute := permissions.AllPermissionsByRoute()
	authenticate := middleware.Authenticate([]byte(opts.JWTSecret))

	for _, r := range routes {
		key := permissions.Route(r.method, r.path)
		if _, ok := whitelist[key]; ok {
			app.Add(r.method, r.path, r.handler)
			continue
		}

		permission, ok := permissionsByRoute[key]
		if !ok {
			return fmt.Errorf("%s: unknown permissions required for route", key)
		}
		app.Add(
			r.method, r.path,
			authenticate, middleware.RequirePermission(permission), r.handler,
		)
	}
	return nil
}

func health(c *fiber.Ctx) error {
	return c.JSON(httphandler.Response{
		Success:   true,
		Data:      fiber.Map{"status": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

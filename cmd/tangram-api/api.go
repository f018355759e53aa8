// Package main provides the Tangram API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/tangram/pkg/eventbus"
	"github.com/dukex/tangram/pkg/events"
	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/services"
	"github.com/dukex/tangram/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	engine      *filter.Engine
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	engine *filter.Engine,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		engine:      engine,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	var publisher eventbus.EventPublisher
	if a.eventBus != nil {
		publisher = a.eventBus
	}

	opts := []services.Option{services.WithEngine(a.engine)}
	if a.tracer != nil {
		opts = append(opts, services.WithTracer(a.tracer))
	}

	submissions := services.NewSubmissions(a.logger, a.persistence, publisher, opts...)
	messages := services.NewMessages(a.logger, a.persistence, publisher)

	handlers := web.NewAPIHandlers(submissions, messages, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Tangram API")
	})

	handlers.Register(app)

	return app
}

// subscribeAudit logs every submission event the bus delivers.
func (a *API) subscribeAudit(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	audit := a.logger.With("module", "audit")

	for _, eventType := range []events.EventType{
		events.SubmissionCreatedEvent,
		events.SubmissionStageChangedEvent,
		events.SubmissionSubmittedEvent,
		events.MessageSentEvent,
	} {
		err := a.eventBus.Handle(eventType, func(ctx context.Context, event any) error {
			audit.InfoContext(ctx, "Submission event", "event_type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	err := a.subscribeAudit(ctx)
	if err != nil {
		return err
	}

	app := a.App()

	go func() {
		<-ctx.Done()

		err := app.Shutdown()
		if err != nil {
			a.logger.Error("Failed to shut down API server", "error", err)
		}
	}()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}

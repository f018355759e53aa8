package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/tangram/pkg/channels/kafka"
	"github.com/dukex/tangram/pkg/cmd"
	"github.com/dukex/tangram/pkg/filter"
	"github.com/dukex/tangram/pkg/log"
	"github.com/dukex/tangram/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "tangram-api",
		Usage:                 "Serve the submissions dashboard API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL (file://<dir> or postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka broker addresses",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "filter-policy",
				Usage:   "How unknown filter operators behave (fail-open, fail-closed)",
				Value:   "fail-open",
				Sources: cli.EnvVars("FILTER_POLICY"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Tangram API")

			policy, err := filter.ParsePolicy(command.String("filter-policy"))
			if err != nil {
				return err
			}

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "tangram-api", command.Bool("otel-enabled"))
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			defer func() {
				err := shutdownTracer(context.Background())
				if err != nil {
					logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(
				command.String("event-bus"),
				kafka.ParseBrokers(command.String("kafka-brokers")),
				logger,
			)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(logger, persistence, eventBus, filter.New(filter.WithPolicy(policy)), tracer)

			logger.InfoContext(ctx, "Listening", "port", command.Int("port"), "filter_policy", policy)

			return api.Start(ctx, command.Int("port"))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package main runs the background workers that feed the submission store:
// the upstream poller and the Redis intake consumer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/tangram/pkg/channels/kafka"
	"github.com/dukex/tangram/pkg/cmd"
	"github.com/dukex/tangram/pkg/intake"
	"github.com/dukex/tangram/pkg/log"
	"github.com/dukex/tangram/pkg/poller"
	cli "github.com/urfave/cli/v3"
)

var errNothingToRun = errors.New("neither --source-url nor --redis-addr is set, nothing to run")

func main() {
	command := &cli.Command{
		Name:                  "tangram-sync",
		Usage:                 "Poll the admin API and consume the intake queue",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
				Name:    "source-url",
				Usage:   "Admin API endpoint returning the submission snapshot; empty disables polling",
				Sources: cli.EnvVars("SOURCE_URL"),
			},
			&cli.StringFlag{
				Name:    "poll-schedule",
				Usage:   "Cron schedule for polling",
				Value:   poller.DefaultSchedule,
				Sources: cli.EnvVars("POLL_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address of the intake queue; empty disables intake",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "intake-queue",
				Usage:   "Redis list holding intake payloads",
				Value:   intake.DefaultQueue,
				Sources: cli.EnvVars("INTAKE_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("sync")

	if command.String("source-url") == "" && command.String("redis-addr") == "" {
		return errNothingToRun
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		err := persistence.Close(context.Background())
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

	workers, err := newWorkers(logger, persistence, eventBus, workerConfig{
		sourceURL:    command.String("source-url"),
		pollSchedule: command.String("poll-schedule"),
		redisAddr:    command.String("redis-addr"),
		intakeQueue:  command.String("intake-queue"),
	})
	if err != nil {
		return err
	}

	err = workers.Start(ctx)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Sync workers running")

	<-ctx.Done()

	return workers.Stop(context.Background())
}

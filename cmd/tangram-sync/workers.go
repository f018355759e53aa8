package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/tangram/pkg/eventbus"
	"github.com/dukex/tangram/pkg/intake"
	"github.com/dukex/tangram/pkg/persistence"
	"github.com/dukex/tangram/pkg/poller"
	"github.com/dukex/tangram/pkg/services"
	redis "github.com/redis/go-redis/v9"
)

const stopTimeout = 10 * time.Second

type workerConfig struct {
	sourceURL    string
	pollSchedule string
	redisAddr    string
	intakeQueue  string
}

// worker is anything started with the process and stopped on shutdown.
type worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type workers struct {
	logger  *slog.Logger
	running []worker
	all     []worker
	redis   *redis.Client
}

func newWorkers(
	logger *slog.Logger,
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
	cfg workerConfig,
) (*workers, error) {
	submissions := services.NewSubmissions(logger, p, publisher)
	w := &workers{logger: logger}

	if cfg.sourceURL != "" {
		pl, err := poller.New(logger, cfg.sourceURL, submissions, poller.WithSchedule(cfg.pollSchedule))
		if err != nil {
			return nil, err
		}

		w.all = append(w.all, pl)
	}

	if cfg.redisAddr != "" {
		w.redis = redis.NewClient(&redis.Options{Addr: cfg.redisAddr})

		consumer, err := intake.NewConsumer(logger, w.redis, cfg.intakeQueue, submissions)
		if err != nil {
			return nil, err
		}

		w.all = append(w.all, consumer)
	}

	return w, nil
}

// Start starts every worker. If one fails, those already running are stopped.
func (w *workers) Start(ctx context.Context) error {
	for _, wk := range w.all {
		err := wk.Start(ctx)
		if err != nil {
			stopErr := w.Stop(context.Background())

			return errors.Join(fmt.Errorf("failed to start worker: %w", err), stopErr)
		}

		w.running = append(w.running, wk)
	}

	return nil
}

// Stop stops the running workers in reverse start order and closes Redis.
func (w *workers) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error

	for i := len(w.running) - 1; i >= 0; i-- {
		err := w.running[i].Stop(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	w.running = nil

	if w.redis != nil {
		err := w.redis.Close()
		if err != nil {
			errs = append(errs, err)
		}

		w.redis = nil
	}

	w.logger.Info("Sync workers stopped")

	return errors.Join(errs...)
}

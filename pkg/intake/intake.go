// Package intake consumes new submissions pushed onto a Redis list by the
// public quote form.
package intake

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/tangram/pkg/models"
	redis "github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"
)

const (
	DefaultQueue = "tangram:intake"

	// Source is recorded on the created event of every intake submission.
	Source = "intake"

	popTimeout   = 1 * time.Second
	retryBackoff = 1 * time.Second
)

//go:embed submission.schema.json
var schemaJSON string

var ErrInvalidPayload = errors.New("invalid intake payload")

// Creator stores a new submission.
type Creator interface {
	Create(ctx context.Context, submission *models.Submission, source string) (*models.Submission, error)
}

// Consumer pops JSON payloads from a Redis list, validates them against the
// embedded schema and creates a pending submission for each. Payloads that
// fail validation or creation are pushed onto the rejected list so they can
// be inspected later.
type Consumer struct {
	client   redis.UniversalClient
	queue    string
	rejected string
	creator  Creator
	schema   *gojsonschema.Schema
	logger   *slog.Logger

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewConsumer(logger *slog.Logger, client redis.UniversalClient, queue string, creator Creator) (*Consumer, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to load intake schema: %w", err)
	}

	return &Consumer{
		client:   client,
		queue:    queue,
		rejected: queue + ":rejected",
		creator:  creator,
		schema:   schema,
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "intake_consumer",
			"queue", queue,
		),
	}, nil
}

// RejectedQueue returns the name of the list holding rejected payloads.
func (c *Consumer) RejectedQueue() string {
	return c.rejected
}

// Start checks the Redis connection and starts consuming in the background.
func (c *Consumer) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.client.Ping(pingCtx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.logger.InfoContext(ctx, "Starting intake consumer")

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

// Stop ends the consume loop and waits for the in-flight payload to finish.
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping intake consumer")

	c.once.Do(func() { close(c.stopCh) })
	c.wg.Wait()

	return nil
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Intake consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping intake consumer")

			return
		default:
			err := c.processNext(ctx)
			if err != nil && ctx.Err() == nil {
				c.logger.ErrorContext(ctx, "Error reading intake queue", "error", err)
				time.Sleep(retryBackoff)
			}
		}
	}
}

func (c *Consumer) processNext(ctx context.Context) error {
	result, err := c.client.BLPop(ctx, popTimeout, c.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop from intake queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	c.Handle(ctx, []byte(result[1]))

	return nil
}

// Handle validates one payload and creates the submission it describes.
// It reports whether a submission was created.
func (c *Consumer) Handle(ctx context.Context, payload []byte) bool {
	submission, err := c.Decode(payload)
	if err != nil {
		c.reject(ctx, payload, err)

		return false
	}

	created, err := c.creator.Create(ctx, submission, Source)
	if err != nil {
		c.reject(ctx, payload, err)

		return false
	}

	c.logger.InfoContext(ctx, "Submission received",
		"submission_id", created.ID,
		"client", models.ClientLabel(*created))

	return true
}

// Decode validates payload against the intake schema and converts it into a
// pending submission.
func (c *Consumer) Decode(payload []byte) (*models.Submission, error) {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(descriptions, "; "))
	}

	var submission models.Submission

	err = json.Unmarshal(payload, &submission)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	submission.Stage = models.StagePending
	submission.SentToClient = ""
	submission.SentMessage = ""
	submission.SentDate = nil

	return &submission, nil
}

func (c *Consumer) reject(ctx context.Context, payload []byte, reason error) {
	c.logger.WarnContext(ctx, "Rejected intake payload", "error", reason)

	err := c.client.RPush(ctx, c.rejected, payload).Err()
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to store rejected payload", "error", err)
	}
}

// Package poller keeps the local submission store in step with the remote
// admin API by fetching its snapshot on a schedule.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dukex/tangram/pkg/models"
	"github.com/dukex/tangram/pkg/services"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule = "@every 30s"

	// Source is recorded on events raised by a poll.
	Source = "poller"

	requestTimeout = 15 * time.Second
	maxBodySize    = 10 * 1024 * 1024
)

var ErrNoSourceURL = errors.New("poller source URL is required")

// Syncer stores a fetched snapshot.
type Syncer interface {
	Sync(ctx context.Context, snapshot []models.Submission, source string) (services.SyncResult, error)
}

type Poller struct {
	url      string
	schedule string
	syncer   Syncer
	client   *http.Client
	logger   *slog.Logger

	cron    *cron.Cron
	initial sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

type Option func(*Poller)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Poller) {
		p.client = client
	}
}

// WithSchedule sets the poll schedule. Any robfig/cron standard expression
// or descriptor such as "@every 1m" is accepted.
func WithSchedule(schedule string) Option {
	return func(p *Poller) {
		if schedule != "" {
			p.schedule = schedule
		}
	}
}

func New(logger *slog.Logger, url string, syncer Syncer, opts ...Option) (*Poller, error) {
	if url == "" {
		return nil, ErrNoSourceURL
	}

	p := &Poller{
		url:      url,
		schedule: DefaultSchedule,
		syncer:   syncer,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   logger.With("module", "poller", "source_url", url),
	}

	for _, opt := range opts {
		opt(p)
	}

	_, err := cron.ParseStandard(p.schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid poll schedule '%s': %w", p.schedule, err)
	}

	return p, nil
}

// Fetch downloads and decodes the remote snapshot. Records with an unknown
// status are dropped with a warning; the rest keep their remote order.
func (p *Poller) Fetch(ctx context.Context) ([]models.Submission, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch submissions: unexpected status %d", resp.StatusCode)
	}

	var remote []remoteSubmission

	err = json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&remote)
	if err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	submissions := make([]models.Submission, 0, len(remote))

	for _, r := range remote {
		s, err := r.submission()
		if err != nil {
			p.logger.WarnContext(ctx, "Dropping remote submission", "submission_id", r.ID, "error", err)

			continue
		}

		submissions = append(submissions, s)
	}

	return submissions, nil
}

// Poll fetches the remote snapshot once and stores it.
func (p *Poller) Poll(ctx context.Context) (services.SyncResult, error) {
	submissions, err := p.Fetch(ctx)
	if err != nil {
		return services.SyncResult{}, err
	}

	result, err := p.syncer.Sync(ctx, submissions, Source)
	if err != nil {
		return result, fmt.Errorf("failed to sync submissions: %w", err)
	}

	return result, nil
}

// Start polls once right away in the background and then on the configured
// schedule. A poll still running when the next one is due is skipped.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Starting poller", "schedule", p.schedule)
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := p.cron.AddFunc(p.schedule, p.run)
	if err != nil {
		p.cancel()

		return fmt.Errorf("failed to schedule poller: %w", err)
	}

	// The first poll goes through the same job chain, so a slow upstream
	// neither blocks startup nor overlaps the first scheduled run.
	job := p.cron.Entry(id).WrappedJob

	p.initial.Add(1)

	go func() {
		defer p.initial.Done()

		job.Run()
	}()

	p.cron.Start()

	return nil
}

func (p *Poller) run() {
	result, err := p.Poll(p.ctx)
	if err != nil {
		p.logger.ErrorContext(p.ctx, "Poll failed", "error", err)

		return
	}

	p.logger.InfoContext(p.ctx, "Poll completed",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped)
}

// Stop cancels an in-flight poll and waits for it to return.
func (p *Poller) Stop(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Stopping poller")

	if p.cancel != nil {
		p.cancel()
	}

	if p.cron == nil {
		return nil
	}

	done := make(chan struct{})

	go func() {
		<-p.cron.Stop().Done()
		p.initial.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

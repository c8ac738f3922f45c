package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/pkg/events"
)

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 100
	maxPublishRetries     = 5
	initialPublishBackoff = 200 * time.Millisecond
)

// OutboxRelay drains the outbox into the broker. Delivery is at least once:
// a crash between publish and MarkPublished republishes the batch, and
// consumers dedupe on the event_id header.
type OutboxRelay struct {
	store     events.OutboxStore
	publisher EntryPublisher
	clock     port.Clock
	interval  time.Duration
	batchSize int
	logger    *slog.Logger

	initialBackoff time.Duration
}

func NewOutboxRelay(
	store events.OutboxStore,
	publisher EntryPublisher,
	clock port.Clock,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *OutboxRelay {
	if interval <= 0 {
		interval = defaultRelayInterval
	}
	if batchSize <= 0 {
		batchSize = defaultRelayBatchSize
	}
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,

		initialBackoff: initialPublishBackoff,
	}
}

// Run polls until ctx is cancelled. A failed poll is logged and retried on
// the next tick.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.logger.Info("outbox relay starting", "interval", r.interval.String(), "batch_size", r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox relay failed", "error", err)
			}
		}
	}
}

// Drain publishes batches until the outbox is empty and returns how many
// entries went out.
func (r *OutboxRelay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.RelayOnce(ctx)
		total += n
		if err != nil || n < r.batchSize {
			return total, err
		}
	}
}

// RelayOnce publishes one batch, retrying the broker write with exponential
// backoff before giving up on this round.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.initialBackoff
	b := backoff.WithContext(backoff.WithMaxRetries(exp, maxPublishRetries), ctx)
	err = backoff.RetryNotify(
		func() error { return r.publisher.PublishEntries(ctx, entries) },
		b,
		func(err error, wait time.Duration) {
			r.logger.Warn("outbox publish retry", "error", err, "wait", wait.String(), "batch", len(entries))
		},
	)
	if err != nil {
		return 0, fmt.Errorf("publish %d entries: %w", len(entries), err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if err := r.store.MarkPublished(ctx, ids, r.clock.Now()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	r.logger.Debug("outbox batch relayed", "count", len(entries))
	return len(entries), nil
}

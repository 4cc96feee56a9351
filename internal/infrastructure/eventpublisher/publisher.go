package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// Publisher delivers one outbox event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Observer is notified of publish outcomes.
type Observer interface {
	EventPublished()
	EventPublishFailed()
}

// EventPublisher drains the outbox into a Publisher.
type EventPublisher struct {
	outboxRepo  usecase.OutboxRepository
	publisher   Publisher
	observer    Observer
	logger      zerolog.Logger
	batchSize   int
	interval    time.Duration
	retention   time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Observer   Observer // optional
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	Retention  time.Duration // How long published events are kept; zero keeps them forever
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        time.Now,
	}
}

// Start runs the worker until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	if err := ep.processEvents(ctx); err != nil && ctx.Err() == nil {
		ep.logger.Error().Err(err).Msg("error processing events")
	}
	if err := ep.cleanup(ctx); err != nil && ctx.Err() == nil {
		ep.logger.Warn().Err(err).Msg("error deleting published events")
	}
}

// processEvents fetches and publishes a batch of unpublished events.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			if ep.observer != nil {
				ep.observer.EventPublishFailed()
			}
			// Later events of the same user must not overtake this one.
			return nil
		}

		if ep.observer != nil {
			ep.observer.EventPublished()
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event as published")
		}
	}

	return nil
}

// cleanup deletes published events older than the retention, at most once an hour.
func (ep *EventPublisher) cleanup(ctx context.Context) error {
	if ep.retention <= 0 {
		return nil
	}

	now := ep.now()
	if now.Sub(ep.lastCleanup) < time.Hour {
		return nil
	}
	ep.lastCleanup = now

	return ep.outboxRepo.DeletePublished(ctx, now.Add(-ep.retention))
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("ledger event")

	return nil
}

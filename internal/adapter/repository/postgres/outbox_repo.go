package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
	"github.com/iho/fintrack/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	queries *generated.Queries
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return newOutboxRepository(pool)
}

func newOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Create writes event inside tx so it commits together with the change it announces.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	pgxTx, ok := tx.(*Tx)
	if !ok {
		return fmt.Errorf("outbox: unsupported transaction type %T", tx)
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("outbox: encode payload: %w", err)
	}

	return r.queries.WithTx(pgxTx.PgxTx()).CreateOutboxEvent(ctx, generated.CreateOutboxEventParams{
		ID:            event.ID,
		UserID:        event.UserID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	})
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	events := make([]*domain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, rowToOutboxEvent(row))
	}

	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before))
}

func rowToOutboxEvent(row generated.OutboxEvent) *domain.OutboxEvent {
	var payload map[string]any
	if row.Payload != nil {
		_ = json.Unmarshal(row.Payload, &payload)
	}

	var publishedAt *time.Time
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time
		publishedAt = &t
	}

	return &domain.OutboxEvent{
		ID:            row.ID,
		UserID:        row.UserID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		Payload:       payload,
		CreatedAt:     row.CreatedAt.Time,
		PublishedAt:   publishedAt,
		Published:     row.Published,
	}
}

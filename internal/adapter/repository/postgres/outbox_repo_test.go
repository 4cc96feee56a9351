package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
)

var outboxColumns = []string{"id", "user_id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newOutboxRepository(mockPool)
	created := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM outbox_events")).
		WithArgs(int32(10)).
		WillReturnRows(mockPool.NewRows(outboxColumns).
			AddRow("evt-1", "user-1", "acc-1", "account", "account.created",
				[]byte(`{"name":"Savings"}`), timeToPgTimestamptz(created), pgtype.Timestamptz{}, false))

	events, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	evt := events[0]
	if evt.UserID != "user-1" || evt.Payload["name"] != "Savings" || evt.PublishedAt != nil {
		t.Fatalf("unexpected event: %+v", evt)
	}

	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryMarkPublished(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newOutboxRepository(mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events SET published = TRUE")).
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.MarkPublished(context.Background(), "evt-1", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryRejectsForeignTransaction(t *testing.T) {
	repo := newOutboxRepository(newMockPool(t))

	if err := repo.Create(context.Background(), fakeTx{}, nil); err == nil {
		t.Fatalf("expected error for non-postgres transaction")
	}
}

type fakeTx struct{}

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

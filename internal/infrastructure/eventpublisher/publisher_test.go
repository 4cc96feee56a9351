package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: "account.created"}},
	}
	pub := &stubPublisher{}
	obs := &stubObserver{}
	ep := newTestPublisher(repo, pub)
	ep.observer = obs

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents failed: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
	if obs.published != 1 || obs.failed != 0 {
		t.Fatalf("unexpected observer counts: %+v", obs)
	}
}

func TestProcessEventsStopsBatchOnPublishError(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: "account.created"},
			{ID: "evt-2", EventType: "account.created"},
		},
	}
	pub := &stubPublisher{
		errorsByID: map[string]error{"evt-1": errors.New("fail")},
	}
	obs := &stubObserver{}
	ep := newTestPublisher(repo, pub)
	ep.observer = obs

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}

	if len(pub.published) != 0 {
		t.Fatalf("expected nothing published after a failure, got %#v", pub.published)
	}
	if len(repo.marked) != 0 {
		t.Fatalf("expected nothing marked, got %#v", repo.marked)
	}
	if obs.failed != 1 {
		t.Fatalf("expected one failure, got %+v", obs)
	}
}

func TestProcessEventsReturnsFetchError(t *testing.T) {
	repo := &stubOutboxRepo{fetchErr: errors.New("db down")}
	ep := newTestPublisher(repo, &stubPublisher{})

	if err := ep.processEvents(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestCleanupHonoursRetention(t *testing.T) {
	now := time.Date(2025, 8, 24, 12, 0, 0, 0, time.UTC)
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})
	ep.now = func() time.Time { return now }

	if err := ep.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if len(repo.deletedBefore) != 0 {
		t.Fatal("expected no cleanup without retention")
	}

	ep.retention = 24 * time.Hour
	if err := ep.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if err := ep.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if len(repo.deletedBefore) != 1 {
		t.Fatalf("expected one cleanup within the hour, got %d", len(repo.deletedBefore))
	}
	if !repo.deletedBefore[0].Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %v", repo.deletedBefore[0])
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestLogPublisherWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))

	err := p.Publish(context.Background(), &domain.OutboxEvent{
		ID:        "evt-1",
		EventType: "account.created",
		Payload:   map[string]any{"name": "Savings"},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte(`"event_id":"evt-1"`)) || !bytes.Contains(buf.Bytes(), []byte(`"name":"Savings"`)) {
		t.Fatalf("unexpected log line %s", out)
	}
}

func newTestPublisher(repo *stubOutboxRepo, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events        []*domain.OutboxEvent
	fetchErr      error
	marked        []string
	deletedBefore []time.Time
}

func (s *stubOutboxRepo) Create(context.Context, usecase.Transaction, *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if len(s.events) <= limit {
		return append([]*domain.OutboxEvent(nil), s.events...), nil
	}
	return append([]*domain.OutboxEvent(nil), s.events[:limit]...), nil
}

func (s *stubOutboxRepo) MarkPublished(_ context.Context, id string, _ time.Time) error {
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubOutboxRepo) DeletePublished(_ context.Context, before time.Time) error {
	s.deletedBefore = append(s.deletedBefore, before)
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

type stubObserver struct {
	published int
	failed    int
}

func (s *stubObserver) EventPublished()     { s.published++ }
func (s *stubObserver) EventPublishFailed() { s.failed++ }

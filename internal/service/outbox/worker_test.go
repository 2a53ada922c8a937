package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
)

func enqueue(t *testing.T, repo *memory.OutboxRepository, aggregateID, eventType string) domain.OutboxMessage {
	t.Helper()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "invoice",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       []byte(`{"invoice_number":"` + aggregateID + `"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestWorker_ProcessOnce_MarksSentInOrder(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "FAC-000001", "invoice.issued")
	enqueue(t, repo, "FAC-000001", "invoice.paid")
	publisher := &stubPublisher{}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))

	if sent := worker.ProcessOnce(context.Background()); sent != 2 {
		t.Fatalf("expected 2 sent, got %d", sent)
	}
	if pending := repo.AllPending(); len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}
	got := publisher.eventTypes()
	if len(got) != 2 || got[0] != "invoice.issued" || got[1] != "invoice.paid" {
		t.Fatalf("unexpected publish order %v", got)
	}
}

func TestWorker_ProcessOnce_FailedGoesToDLQ(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	msg := enqueue(t, repo, "FAC-000002", "invoice.voided")
	publisher := &stubPublisher{err: errors.New("broker down")}
	dlq := &stubPublisher{}

	worker := NewWorker(repo, publisher,
		WithDLQPublisher(dlq),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	if sent := worker.ProcessOnce(context.Background()); sent != 0 {
		t.Fatalf("expected nothing sent, got %d", sent)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if pending := repo.AllPending(); len(pending) != 0 {
		t.Fatalf("failed message must leave pending state")
	}
	if repo.Attempts(msg.ID) != 1 {
		t.Fatalf("expected message to be marked once")
	}

	dead := dlq.published()
	if len(dead) != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", len(dead))
	}
	var envelope deadLetter
	if err := json.Unmarshal(dead[0].Payload, &envelope); err != nil {
		t.Fatalf("dlq payload: %v", err)
	}
	if envelope.OutboxID != msg.ID || envelope.AggregateID != "FAC-000002" || envelope.PublishError == "" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if string(envelope.Payload) != `{"invoice_number":"FAC-000002"}` {
		t.Fatalf("original payload lost: %s", envelope.Payload)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "FAC-000003", "invoice.issued")
	publisher := &stubPublisher{sequence: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil}}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0), WithMaxAttempts(3))

	if sent := worker.ProcessOnce(context.Background()); sent != 1 {
		t.Fatalf("expected 1 sent, got %d", sent)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
}

func TestWorker_ProcessOnce_CanceledLeavesPending(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	enqueue(t, repo, "FAC-000004", "invoice.issued")

	ctx, cancel := context.WithCancel(context.Background())
	publisher := &stubPublisher{err: errors.New("broker down"), onPublish: cancel}

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(time.Second), WithMaxAttempts(5))
	worker.ProcessOnce(ctx)

	if pending := repo.AllPending(); len(pending) != 1 {
		t.Fatalf("message must stay pending after cancellation, got %d", len(pending))
	}
}

func TestWorker_Backoff(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil,
		WithRetryBaseDelay(100*time.Millisecond),
		WithMaxRetryDelay(time.Second),
	)

	cases := map[int]time.Duration{
		1: 100 * time.Millisecond,
		2: 200 * time.Millisecond,
		3: 400 * time.Millisecond,
		4: 800 * time.Millisecond,
		5: time.Second,
		9: time.Second,
	}
	for attempt, want := range cases {
		if got := worker.backoff(attempt); got != want {
			t.Fatalf("backoff(%d) = %s, want %s", attempt, got, want)
		}
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(memory.NewOutboxRepository(), &stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

type stubPublisher struct {
	mu        sync.Mutex
	err       error
	sequence  []error
	onPublish func()
	messages  []domain.OutboxMessage
	count     int
}

func (s *stubPublisher) Publish(msg domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if s.onPublish != nil {
		s.onPublish()
	}
	if len(s.sequence) > 0 {
		err := s.sequence[0]
		s.sequence = s.sequence[1:]
		if err == nil {
			s.messages = append(s.messages, msg)
		}
		return err
	}
	if s.err == nil {
		s.messages = append(s.messages, msg)
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *stubPublisher) published() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutboxMessage(nil), s.messages...)
}

func (s *stubPublisher) eventTypes() []string {
	var out []string
	for _, msg := range s.published() {
		out = append(out, msg.EventType)
	}
	return out
}

var _ domain.OutboxPublisher = (*stubPublisher)(nil)

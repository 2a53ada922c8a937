package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

func TestOutboxRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "invoice",
		AggregateID:   "FAC-000001",
		EventType:     "invoice.issued",
		Payload:       []byte(`{"number":"FAC-000001"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Enqueue(domain.OutboxMessage{
		ID:            "fixed-id",
		AggregateType: "invoice",
		AggregateID:   "FAC-000001",
		EventType:     "invoice.paid",
		Payload:       []byte(`{}`),
	})
	if err != nil || second.ID != "fixed-id" {
		t.Fatalf("enqueue with id: %+v, %v", second, err)
	}

	pending, err := repo.PullPending(0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("expected both messages in enqueue order, got %+v", pending)
	}

	stats, err := repo.Stats()
	if err != nil || stats.PendingCount != 2 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats %+v, %v", stats, err)
	}

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := repo.MarkFailed(second.ID); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := repo.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish for missing id, got %v", err)
	}

	stats, _ = repo.Stats()
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty backlog, got %d", stats.PendingCount)
	}
}

func TestTimelineRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewTimelineRepository(store)
	issued := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	events := []domain.TimelineEvent{
		{InvoiceNumber: "FAC-000001", Type: domain.TimelineInvoiceIssued, Occurred: issued},
		{InvoiceNumber: "FAC-000001", Type: domain.TimelineInvoiceVoided, Reason: "duplicate", Occurred: issued.Add(time.Minute)},
		{InvoiceNumber: "FAC-000002", Type: domain.TimelineInvoiceIssued},
	}
	for _, e := range events {
		if err := repo.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	list, err := repo.List("FAC-000001")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[1].Reason != "duplicate" || list[1].Type != domain.TimelineInvoiceVoided {
		t.Fatalf("unexpected timeline: %+v", list)
	}

	empty, err := repo.List("FAC-404")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty timeline, got %+v, %v", empty, err)
	}
}

func TestIdempotencyRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)
	ttl := time.Now().UTC().Add(time.Hour)

	if _, err := repo.CreateProcessing("key-1", "hash-1", ttl); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateProcessing("key-1", "hash-1", ttl); !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if _, err := repo.CreateProcessing("key-1", "hash-2", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}

	if err := repo.MarkDone("key-1", []byte(`{"invoice":{}}`), 0); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	record, err := repo.Get("key-1")
	if err != nil || record.Status != domain.IdempotencyStatusDone || string(record.ResponseBody) != `{"invoice":{}}` {
		t.Fatalf("unexpected record %+v, %v", record, err)
	}

	if _, err := repo.CreateProcessing("key-2", "hash", ttl); err != nil {
		t.Fatalf("create key-2: %v", err)
	}
	if err := repo.MarkFailed("key-2", []byte("stock exceeded"), 9); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if _, err := repo.CreateProcessing("key-2", "other-hash", ttl); err != nil {
		t.Fatalf("failed key must be reusable: %v", err)
	}

	if _, err := repo.CreateProcessing("old", "hash", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	deleted, err := repo.DeleteExpired(time.Now().UTC(), 10)
	if err != nil || deleted != 1 {
		t.Fatalf("expected 1 expired key deleted, got %d, %v", deleted, err)
	}
	if _, err := repo.Get("old"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.MarkDone("missing", nil, 0); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected not found on mark, got %v", err)
	}
}

package domain

import "time"

// InventoryService описывает складские операции под выставленный счёт.
type InventoryService interface {
	// Reserve списывает остаток под строки счёта. Либо все строки, либо ни одной.
	Reserve(invoiceNumber string, lines []InvoiceLine) error
	// Release возвращает остаток при аннулировании счёта.
	Release(invoiceNumber string, lines []InvoiceLine) error
}

// NumberGenerator выдаёт кандидатов в номера счетов формата FAC-NNNNNN.
// Уникальность проверяет эмитент по журналу.
type NumberGenerator interface {
	Next() (string, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит историю счетов.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(invoiceNumber string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, statusCode int) error
	MarkFailed(key string, responseBody []byte, statusCode int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

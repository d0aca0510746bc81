package domain

import (
	"context"
	"time"
)

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// Типы агрегатов в outbox.
const (
	AggregateQuad        = "quad"
	AggregateReservation = "reservation"
)

// EventType — тип доменного события.
type EventType string

const (
	EventQuadCreated        EventType = "quad.created"
	EventQuadUpdated        EventType = "quad.updated"
	EventQuadDeleted        EventType = "quad.deleted"
	EventReservationCreated EventType = "reservation.created"
	EventReservationUpdated EventType = "reservation.updated"
	EventReservationDeleted EventType = "reservation.deleted"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// Package messaging содержит общий формат событий для брокеров.
package messaging

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// Заголовки, которые брокеры прикладывают к каждому событию.
const (
	HeaderOutboxID      = "x-outbox-id"
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
)

// Envelope — внешний вид события, одинаковый для Kafka и RabbitMQ.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PublishedAt   time.Time       `json:"published_at"`
}

// Encode сериализует outbox-сообщение в Envelope.
func Encode(event domain.OutboxMessage, now time.Time) ([]byte, error) {
	payload := json.RawMessage(event.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	data, err := json.Marshal(Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		OccurredAt:    event.CreatedAt.UTC(),
		PublishedAt:   now.UTC(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "encode event %s", event.ID)
	}
	return data, nil
}

// Headers возвращает заголовки события.
func Headers(event domain.OutboxMessage) map[string]string {
	return map[string]string{
		HeaderOutboxID:      event.ID,
		HeaderEventType:     event.EventType,
		HeaderAggregateType: event.AggregateType,
	}
}

// Key — ключ партиционирования: события одного агрегата идут по порядку.
func Key(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

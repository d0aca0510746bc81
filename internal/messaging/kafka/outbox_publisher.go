package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/messaging"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// NewDLQPublisher публикует события, исчерпавшие попытки, в DLQ topic.
func NewDLQPublisher(producer *Producer) *OutboxTopicPublisher {
	return NewOutboxPublisher(producer, TopicDeadLetters)
}

// Topic возвращает topic назначения.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}

	value, err := messaging.Encode(event, p.now())
	if err != nil {
		return err
	}

	return p.producer.Send(ctx, Message{
		Topic:   p.topic,
		Key:     messaging.Key(event),
		Value:   value,
		Headers: messaging.Headers(event),
	})
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)

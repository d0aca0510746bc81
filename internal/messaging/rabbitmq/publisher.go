// Package rabbitmq публикует события outbox в очередь RabbitMQ.
package rabbitmq

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/messaging"
)

// Очереди по умолчанию.
const (
	QueueEvents      = "quadrental.events"
	QueueDeadLetters = "quadrental.events.dlq"
)

// channel — часть *amqp.Channel, которой пользуется Publisher.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher отправляет события в durable-очередь через default exchange.
type Publisher struct {
	ch     channel
	conn   io.Closer
	queue  string
	logger *log.Entry
	now    func() time.Time
}

// Dial подключается к брокеру и объявляет очередь.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open rabbitmq channel")
	}

	p, err := newPublisher(ch, conn, queue)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch channel, conn io.Closer, queue string) (*Publisher, error) {
	if queue == "" {
		queue = QueueEvents
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, errors.Wrapf(err, "declare queue %s", queue)
	}
	return &Publisher{
		ch:     ch,
		conn:   conn,
		queue:  queue,
		logger: log.WithFields(log.Fields{"component": "rabbitmq-publisher", "queue": queue}),
		now:    time.Now,
	}, nil
}

// WithQueue возвращает publisher в другую очередь на том же канале.
// Закрывать его не нужно: каналом и соединением владеет исходный Publisher.
func (p *Publisher) WithQueue(queue string) (*Publisher, error) {
	derived, err := newPublisher(p.ch, nil, queue)
	if err != nil {
		return nil, err
	}
	derived.ch = nopCloseChannel{p.ch}
	return derived, nil
}

// Queue возвращает имя очереди назначения.
func (p *Publisher) Queue() string {
	return p.queue
}

// Publish отправляет событие как persistent JSON-сообщение.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.ch == nil {
		return errors.New("rabbitmq publisher is not initialized")
	}

	now := p.now().UTC()
	body, err := messaging.Encode(event, now)
	if err != nil {
		return err
	}

	headers := amqp.Table{}
	for k, v := range messaging.Headers(event) {
		headers[k] = v
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.EventType,
		Timestamp:    now,
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		p.logger.WithError(err).WithField("outbox_id", event.ID).Error("failed to publish to rabbitmq")
		return errors.Wrapf(err, "publish %s to %s", event.ID, p.queue)
	}

	p.logger.WithFields(log.Fields{
		"outbox_id":  event.ID,
		"event_type": event.EventType,
	}).Debug("message published to rabbitmq")
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	if p == nil || p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.CombineErrors(err, p.conn.Close())
	}
	return err
}

type nopCloseChannel struct {
	channel
}

func (nopCloseChannel) Close() error { return nil }

var _ domain.OutboxPublisher = (*Publisher)(nil)

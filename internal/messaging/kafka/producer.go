package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// Message — сообщение для отправки в Kafka.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Producer представляет Kafka producer для публикации событий
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewConfig возвращает настройки идемпотентного producer.
func NewConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	if clientID != "" {
		config.ClientID = clientID
	}
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // обязательно для идемпотентности
	return config
}

// NewProducer создает новый Kafka producer
func NewProducer(brokers []string, clientID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	producer, err := sarama.NewSyncProducer(brokers, NewConfig(clientID))
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}

	return NewProducerFromSync(producer), nil
}

// NewProducerFromSync оборачивает готовый SyncProducer, например mocks.SyncProducer.
func NewProducerFromSync(producer sarama.SyncProducer) *Producer {
	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}
}

// Send синхронно отправляет сообщение. Отменённый контекст не даёт начать отправку.
func (p *Producer) Send(ctx context.Context, msg Message) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "send kafka message")
	}

	headers := make([]sarama.RecordHeader, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     msg.Topic,
		Key:       sarama.StringEncoder(msg.Key),
		Value:     sarama.ByteEncoder(msg.Value),
		Headers:   headers,
		Timestamp: time.Now(),
	})
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": msg.Topic,
			"key":   msg.Key,
		}).Error("failed to send message to kafka")
		return errors.Wrapf(err, "send message to %s", msg.Topic)
	}

	p.logger.WithFields(log.Fields{
		"topic":     msg.Topic,
		"key":       msg.Key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return errors.Wrap(err, "close kafka producer")
	}
	return nil
}

// Package outbox доставляет доменные события аренды из transactional outbox в брокер.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/metrics"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 200 * time.Millisecond
)

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDLQPublisher задаёт publisher для событий, исчерпавших попытки.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) {
		w.dlqPublisher = publisher
	}
}

// WithMetrics подключает метрики публикации и backlog.
func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) Option {
	return func(w *Worker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
	}
}

// WithRetryBaseDelay задаёт базовую задержку exponential backoff; 0 отключает ожидание.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		if delay >= 0 {
			w.retryBaseDelay = delay
		}
	}
}

// Worker публикует pending-сообщения из outbox в брокер.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	dlqPublisher   domain.OutboxPublisher
	metrics        *metrics.OutboxMetrics
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

// Result — итог одного цикла опроса.
type Result struct {
	Sent   int
	Failed int
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		logger:         log.WithField("component", "outbox-worker"),
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run запускает периодический polling outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один polling-цикл: публикует батч и помечает каждое сообщение sent или failed.
func (w *Worker) ProcessOnce(ctx context.Context) Result {
	var res Result
	if ctx.Err() != nil {
		return res
	}

	w.refreshBacklogMetrics(ctx)

	events, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return res
	}

	for _, event := range events {
		if ctx.Err() != nil {
			break
		}

		entry := w.logger.WithFields(log.Fields{
			"outbox_id":    event.ID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID,
		})

		if err := w.publishWithRetry(ctx, event); err != nil {
			if ctx.Err() != nil {
				// Сообщение остаётся pending и будет отправлено после рестарта.
				break
			}
			entry.WithError(err).Error("outbox publish failed after retries")
			w.metrics.RecordPublish("failed")
			res.Failed++

			if dlqErr := w.publishToDLQ(ctx, event, err); dlqErr != nil {
				entry.WithError(dlqErr).Warn("failed to publish to DLQ")
				w.metrics.RecordPublish("dlq_failed")
			}
			if markErr := w.repo.MarkFailed(ctx, event.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox as failed")
			}
			continue
		}

		res.Sent++
		if err := w.repo.MarkSent(ctx, event.ID); err != nil {
			entry.WithError(err).Warn("failed to mark outbox as sent")
		}
	}

	if len(events) > 0 {
		w.refreshBacklogMetrics(ctx)
	}
	return res
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(ctx, event)
		if err == nil {
			w.metrics.RecordPublish("sent")
			return nil
		}
		lastErr = err
		w.metrics.RecordPublish("retry_error")

		if attempt >= w.maxAttempts {
			break
		}

		delay := w.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return errors.Mark(errors.Wrapf(lastErr, "publish failed after %d attempts", w.maxAttempts), domain.ErrOutboxPublish)
}

func (w *Worker) refreshBacklogMetrics(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	w.metrics.SetBacklog(stats, time.Now())
}

func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}

	const maxDelay = 30 * time.Second
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}

// deadLetter — обёртка события, отправляемая в DLQ вместе с причиной отказа.
type deadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	PublishError  string          `json:"publish_error"`
	FailedAt      time.Time       `json:"failed_at"`
}

func (w *Worker) publishToDLQ(ctx context.Context, event domain.OutboxMessage, publishErr error) error {
	if w.dlqPublisher == nil {
		return nil
	}

	letter := deadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		PublishError:  publishErr.Error(),
		FailedAt:      time.Now().UTC(),
	}
	if json.Valid(event.Payload) {
		letter.Payload = json.RawMessage(event.Payload)
	}

	payload, err := json.Marshal(letter)
	if err != nil {
		return errors.Wrap(err, "marshal dlq payload")
	}

	dlqEvent := event
	dlqEvent.Payload = payload
	if err := w.dlqPublisher.Publish(ctx, dlqEvent); err != nil {
		return errors.Wrap(err, "publish to dlq")
	}
	return nil
}

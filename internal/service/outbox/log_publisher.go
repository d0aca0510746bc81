package outbox

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// LogPublisher пишет события в лог вместо брокера. Используется, когда брокер не настроен.
type LogPublisher struct {
	logger *log.Entry
}

func NewLogPublisher(logger *log.Entry) *LogPublisher {
	if logger == nil {
		logger = log.WithField("component", "outbox-log")
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.WithFields(log.Fields{
		"event_id":       event.ID,
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
	}).Info("outbox event")
	return nil
}

var _ domain.OutboxPublisher = (*LogPublisher)(nil)

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	seq        int64
	status     string
	attemptCnt int
	updatedAt  time.Time
}

type outboxRepository struct {
	sess session
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его с присвоенным идентификатором.
func (r *outboxRepository) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}

	err := r.sess.write(ctx, func(st *state) error {
		st.outboxSeq++
		st.outbox[msg.ID] = outboxRecord{
			msg:       msg,
			seq:       st.outboxSeq,
			status:    outboxStatusPending,
			updatedAt: now,
		}
		return nil
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// PullPending возвращает до limit сообщений `pending` в порядке постановки в очередь.
func (r *outboxRepository) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var pending []outboxRecord
	err := r.sess.read(ctx, func(st *state) {
		for _, rec := range st.outbox {
			if rec.status == outboxStatusPending {
				pending = append(pending, rec)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	if len(pending) > limit {
		pending = pending[:limit]
	}

	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result, nil
}

func (r *outboxRepository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	var stats domain.OutboxStats
	err := r.sess.read(ctx, func(st *state) {
		for _, rec := range st.outbox {
			if rec.status != outboxStatusPending {
				continue
			}
			stats.PendingCount++
			if stats.OldestPendingAt.IsZero() || rec.msg.CreatedAt.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = rec.msg.CreatedAt
			}
		}
	})
	return stats, err
}

// MarkSent обновляет статус события после успешной публикации.
func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	return r.markStatus(ctx, id, outboxStatusSent)
}

// MarkFailed фиксирует окончательную ошибку публикации.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string) error {
	return r.markStatus(ctx, id, outboxStatusFailed)
}

func (r *outboxRepository) markStatus(ctx context.Context, id, status string) error {
	return r.sess.write(ctx, func(st *state) error {
		rec, ok := st.outbox[id]
		if !ok {
			return domain.ErrOutboxPublish
		}
		rec.status = status
		rec.attemptCnt++
		rec.updatedAt = time.Now().UTC()
		st.outbox[id] = rec
		return nil
	})
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)

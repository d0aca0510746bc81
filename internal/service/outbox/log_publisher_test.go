package outbox

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

func TestLogPublisher_Publish(t *testing.T) {
	logger, hook := test.NewNullLogger()
	publisher := NewLogPublisher(logger.WithField("component", "outbox-log"))

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "evt-1",
		AggregateType: "quad",
		AggregateID:   "7",
		EventType:     string(domain.EventQuadCreated),
	})
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "outbox event", entry.Message)
	assert.Equal(t, "7", entry.Data["aggregate_id"])
}

func TestLogPublisher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLogPublisher(nil).Publish(ctx, domain.OutboxMessage{ID: "evt-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

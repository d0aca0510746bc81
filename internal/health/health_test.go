package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/memory"
)

func ok(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("test-healthy", NewSimpleChecker("test", ok))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "v1.0.0", response.Version)
	assert.Len(t, response.Checks, 1)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("test-unhealthy", NewSimpleChecker("test", func(context.Context) error {
		return errors.New("service unavailable")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, StatusUnhealthy, response.Status)
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewStorageChecker(memory.NewStore()))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())
	assert.Equal(t, []string{"storage"}, handler.Names())
}

func TestReadinessHandler_NotReady(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("test", NewSimpleChecker("test", func(context.Context) error {
		return errors.New("not ready")
	}))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not ready", w.Body.String())
}

func TestSimpleChecker(t *testing.T) {
	checker := NewSimpleChecker("test", func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	check := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.GreaterOrEqual(t, check.DurationMs, int64(10))
}

func TestSimpleChecker_Error(t *testing.T) {
	checker := NewSimpleChecker("test", func(context.Context) error {
		return errors.New("test error")
	})

	check := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "test error", check.Message)
}

func TestOutboxChecker(t *testing.T) {
	store := memory.NewStore()
	repo := store.Repositories().Outbox
	ctx := context.Background()

	checker := NewOutboxChecker(repo, time.Minute)
	assert.Equal(t, StatusHealthy, checker.Check(ctx).Status)

	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := repo.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: domain.AggregateQuad,
		AggregateID:   "1",
		EventType:     string(domain.EventQuadCreated),
		Payload:       []byte(`{}`),
		CreatedAt:     created,
	})
	require.NoError(t, err)

	checker.now = func() time.Time { return created.Add(30 * time.Second) }
	assert.Equal(t, StatusHealthy, checker.Check(ctx).Status)

	checker.now = func() time.Time { return created.Add(5 * time.Minute) }
	check := checker.Check(ctx)
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Contains(t, check.Message, "1 pending")

	handler := NewHandler("dev")
	handler.RegisterChecker("outbox", checker)
	assert.Equal(t, StatusDegraded, handler.Report(ctx).Status)
}

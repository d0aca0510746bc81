package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/quadrental/internal/health"
	"github.com/vladislavdragonenkov/quadrental/internal/service/query"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/memory"
	"github.com/vladislavdragonenkov/quadrental/internal/version"
)

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")

	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	srv := startMetricsServer(ctx, addr, logger, healthHandler)
	require.NotNil(t, srv)

	base := "http://" + addr
	waitForServer(t, base+"/livez")

	for _, path := range []string{"/metrics", "/healthz", "/livez", "/readyz"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, body, path)
		if path == "/livez" {
			assert.Equal(t, "ok", string(body))
		}
	}
}

func TestStartMetricsServer_ShutdownOnCancel(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")

	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	startMetricsServer(ctx, addr, logger, healthcheck.NewHandler(version.GetVersion()))

	url := "http://" + addr + "/livez"
	waitForServer(t, url)

	cancel()

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return true
		}
		_ = resp.Body.Close()
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestShutdownHTTP(t *testing.T) {
	logger := log.WithField("test", "http-shutdown-func")

	shutdownHTTP(nil, time.Second, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	go func() { _ = srv.Serve(lis) }()

	shutdownHTTP(srv, 0, logger)

	_, err = http.Get("http://" + lis.Addr().String())
	assert.Error(t, err)
}

func TestNewHTTPHandler_ServesAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svc := rental.NewService(store)
	h := newHTTPHandler(DefaultConfig(), log.WithField("test", "router"), svc,
		query.NewFacade(store.Repositories(), svc.Pool()), healthcheck.NewHandler("test"))

	body := `{"type":"SINGLE_SEAT","plate":"AAA-001","daily_rate":80}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quads", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AAA-001")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

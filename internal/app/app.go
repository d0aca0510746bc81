package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/quadrental/internal/handler"
	healthcheck "github.com/vladislavdragonenkov/quadrental/internal/health"
	"github.com/vladislavdragonenkov/quadrental/internal/metrics"
	"github.com/vladislavdragonenkov/quadrental/internal/service/outbox"
	"github.com/vladislavdragonenkov/quadrental/internal/service/query"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
	"github.com/vladislavdragonenkov/quadrental/internal/version"
	"github.com/vladislavdragonenkov/quadrental/internal/workerpool"
)

const grpcServiceName = "quadrental.v1.RentalService"

// Run поднимает HTTP API, gRPC health, метрики и outbox worker и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageDriverMemory
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close dependencies")
		}
	}()

	rentalMetrics := metrics.NewRentalMetrics()
	pool := workerpool.New(
		workerpool.WithWorkers(cfg.PoolWorkers),
		workerpool.WithTimeout(cfg.PoolTimeout),
		workerpool.WithLogger(logger.WithField("component", "workerpool")),
		workerpool.WithInFlightGauge(rentalMetrics.PoolInFlight()),
	)
	svc := rental.NewService(deps.store,
		rental.WithPool(pool),
		rental.WithMetrics(rentalMetrics),
		rental.WithLogger(logger.WithField("component", "rental")),
	)
	facade := query.NewFacade(deps.store.Repositories(), pool)

	outboxRepo := deps.store.Repositories().Outbox
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxChecker(outboxRepo, cfg.OutboxMaxAge))

	grpcServer, grpcHealth := newGRPCServer(logger)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return errors.Wrapf(err, "listen grpc %s", cfg.GRPCAddr)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return errors.Wrapf(err, "listen http %s", cfg.HTTPAddr)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	httpSrv := &http.Server{
		Handler:           newHTTPHandler(cfg, logger, svc, facade, healthHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := startOutboxWorker(workerCtx, cfg, deps, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("HTTP API слушает %s", httpLis.Addr())
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	shutdown := func() {
		grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		grpcHealth.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownHTTP(httpSrv, cfg.ShutdownTimeout, logger)
		stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
		shutdownOutboxWorker(stopWorker, workerDone, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		drainPool(pool, cfg.ShutdownTimeout, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// newGRPCServer регистрирует health, reflection и метрики; бизнес-API доступно по HTTP.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	return grpcServer, healthServer
}

func newHTTPHandler(cfg Config, logger *log.Entry, commands *rental.Service, queries *query.Facade, healthHandler *healthcheck.Handler) http.Handler {
	engine := gin.New()
	handler.NewRouter(engine, handler.Config{
		AllowOrigins:   cfg.CORSAllowOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger.WithField("component", "http"), handler.NewHandlers(commands, queries), healthHandler)
	return engine
}

func startOutboxWorker(ctx context.Context, cfg Config, deps *runtimeDependencies, logger *log.Entry) <-chan struct{} {
	opts := []outbox.Option{
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithMetrics(metrics.NewOutboxMetrics()),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	}
	if deps.dlqPublisher != nil {
		opts = append(opts, outbox.WithDLQPublisher(deps.dlqPublisher))
	}
	worker := outbox.NewWorker(deps.store.Repositories().Outbox, deps.publisher, opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()
	return done
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, defaultShutdownTimeout, logger)
	}()

	return srv
}

const defaultShutdownTimeout = 5 * time.Second

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

// stopGRPC ждёт завершения вызовов не дольше timeout, затем останавливает сервер принудительно.
func stopGRPC(srv *grpc.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}

// drainPool ждёт операций, брошенных по таймауту, чтобы не закрыть хранилище под ними.
func drainPool(pool *workerpool.Pool, timeout time.Duration, logger *log.Entry) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := pool.Drain(ctx); err != nil {
		logger.WithError(err).Warn("worker pool did not drain in time")
	}
}

func shutdownOutboxWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(defaultShutdownTimeout):
		logger.Warn("outbox worker did not stop in time")
	}
}

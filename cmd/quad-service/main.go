package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/app"
	"github.com/vladislavdragonenkov/quadrental/internal/version"
)

// run читает конфигурацию из окружения и держит сервис до отмены ctx.
func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	app.ConfigureLogger(cfg)

	log.WithFields(log.Fields{
		"version":        version.GetVersion(),
		"http_addr":      cfg.HTTPAddr,
		"grpc_addr":      cfg.GRPCAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"events_broker":  cfg.EventsBroker,
	}).Info("запускаем QuadRental")

	if err := app.Run(ctx, cfg); err != nil && !isStopSignal(err) {
		return err
	}
	return nil
}

// isStopSignal отличает штатную остановку по отмене или дедлайну контекста от сбоя.
func isStopSignal(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("QuadRental остановлен")
}

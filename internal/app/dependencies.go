package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/health"
	"github.com/vladislavdragonenkov/quadrental/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/quadrental/internal/messaging/rabbitmq"
	"github.com/vladislavdragonenkov/quadrental/internal/service/outbox"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/memory"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/postgres"
	"github.com/vladislavdragonenkov/quadrental/internal/version"
)

const storageOpenTimeout = 10 * time.Second

// runtimeDependencies — хранилище и публикаторы событий, выбранные конфигурацией.
type runtimeDependencies struct {
	store          domain.Store
	storageChecker health.Checker
	publisher      domain.OutboxPublisher
	dlqPublisher   domain.OutboxPublisher
	closers        []func() error
}

// Close освобождает ресурсы в обратном порядке создания.
func (d *runtimeDependencies) Close() error {
	if d == nil {
		return nil
	}
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		err = errors.CombineErrors(err, d.closers[i]())
	}
	d.closers = nil
	return err
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{}

	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.store = store
	deps.storageChecker = health.NewStorageChecker(store)
	deps.closers = append(deps.closers, store.Close)

	if err := deps.initPublishers(cfg, logger); err != nil {
		_ = deps.Close()
		return nil, err
	}
	return deps, nil
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (domain.Store, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage")
		return memory.NewStore(), nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires QUAD_POSTGRES_DSN")
		}

		openCtx, cancel := context.WithTimeout(ctx, storageOpenTimeout)
		defer cancel()

		store, err := postgres.Open(openCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(openCtx); err != nil {
				_ = store.Close()
				return nil, errors.Wrap(err, "apply migrations")
			}
		}
		logger.WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("using postgres storage")
		return store, nil
	default:
		return nil, errors.Newf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func (d *runtimeDependencies) initPublishers(cfg Config, logger *log.Entry) error {
	switch cfg.EventsBroker {
	case "", EventsBrokerNone:
		d.publisher = outbox.NewLogPublisher(logger.WithField("component", "outbox-log"))
		return nil
	case EventsBrokerKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, version.ClientID())
		if err != nil {
			return errors.Wrap(err, "create kafka producer")
		}
		d.closers = append(d.closers, producer.Close)
		d.publisher = kafka.NewOutboxPublisher(producer, kafka.TopicEvents)
		d.dlqPublisher = kafka.NewDLQPublisher(producer)
		logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		return nil
	case EventsBrokerRabbitMQ:
		publisher, err := rabbitmq.Dial(cfg.RabbitMQURL, rabbitmq.QueueEvents)
		if err != nil {
			return errors.Wrap(err, "dial rabbitmq")
		}
		d.closers = append(d.closers, publisher.Close)
		dlq, err := publisher.WithQueue(rabbitmq.QueueDeadLetters)
		if err != nil {
			return errors.Wrap(err, "declare rabbitmq dead letter queue")
		}
		d.publisher = publisher
		d.dlqPublisher = dlq
		logger.WithField("queue", publisher.Queue()).Info("rabbitmq publisher initialized")
		return nil
	default:
		return errors.Newf("unsupported events broker %q", cfg.EventsBroker)
	}
}

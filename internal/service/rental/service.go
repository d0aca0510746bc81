// Package rental реализует операции аренды: парк, брони и связи между ними.
// Все обращения к хранилищу идут через ограниченный пул воркеров с таймаутом,
// а изменения вместе с outbox-событием фиксируются одной транзакцией.
package rental

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/metrics"
	"github.com/vladislavdragonenkov/quadrental/internal/workerpool"
)

// Service — точка входа для слоя представления (HTTP, CLI).
type Service struct {
	store   domain.Store
	pool    *workerpool.Pool
	metrics *metrics.RentalMetrics
	logger  *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithPool задаёт пул воркеров; по умолчанию workerpool.New().
func WithPool(pool *workerpool.Pool) Option {
	return func(s *Service) {
		if pool != nil {
			s.pool = pool
		}
	}
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.RentalMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService создаёт сервис поверх явно переданного хранилища.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.WithField("component", "rental-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = workerpool.New(workerpool.WithLogger(s.logger))
	}
	return s
}

// Pool возвращает пул, через который сервис обращается к хранилищу.
func (s *Service) Pool() *workerpool.Pool {
	return s.pool
}

// ReservationDraft — данные брони, введённые пользователем.
type ReservationDraft struct {
	CustomerName string
	Phone        int64
	PickupTime   time.Time
	ReturnTime   time.Time
	// Selections: quadID -> число шлемов (domain.HelmetCountUnset, если не указано).
	Selections map[int64]int
}

func (d ReservationDraft) quoteRequest() domain.QuoteRequest {
	return domain.QuoteRequest{
		CustomerName: d.CustomerName,
		PickupTime:   d.PickupTime,
		ReturnTime:   d.ReturnTime,
		Selections:   d.Selections,
	}
}

// ReservationResult — сохранённая бронь, её связи и расчёт цены.
type ReservationResult struct {
	Reservation domain.Reservation
	Links       []domain.Link
	Quote       domain.Quote
}

// exec выполняет операцию на пуле и записывает метрики результата.
func (s *Service) exec(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	started := time.Now()
	err := s.pool.Do(ctx, op, fn)
	s.observe(op, started, err)
	return err
}

func (s *Service) observe(op string, started time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStorageTimeout):
		result = metrics.ResultTimeout
	default:
		result = metrics.ResultError
	}
	s.metrics.RecordOperation(op, result, time.Since(started))

	if reason := domain.ValidationReason(err); reason != "" {
		s.metrics.RecordValidationFailure(reason)
		return
	}
	if err != nil && !domain.IsNotFound(err) && !errors.Is(err, domain.ErrCascadeConflict) {
		s.logger.WithError(err).WithField("operation", op).Warn("rental operation failed")
	}
}

// rejectInvalid учитывает ошибку валидации, обнаруженную до обращения к хранилищу.
func (s *Service) rejectInvalid(op string, err error) error {
	s.metrics.RecordOperation(op, metrics.ResultError, 0)
	s.metrics.RecordValidationFailure(domain.ValidationReason(err))
	return err
}

func notFound(kind string, id int64) error {
	return errors.Wrapf(domain.ErrNotFound, "%s %d", kind, id)
}

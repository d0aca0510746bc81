// Package workerpool выполняет операции хранилища на ограниченном пуле горутин
// с таймаутом ожидания со стороны вызывающего.
package workerpool

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

const (
	// DefaultWorkers — число одновременно выполняемых операций.
	DefaultWorkers = 4
	// DefaultTimeout — сколько вызывающий ждёт результата операции.
	DefaultTimeout = 15 * time.Second
)

// Pool ограничивает параллелизм операций и время ожидания их результата.
type Pool struct {
	sem      *semaphore.Weighted
	workers  int64
	timeout  time.Duration
	logger   *log.Entry
	inFlight prometheus.Gauge
}

// Option настраивает пул.
type Option func(*Pool)

// WithWorkers задаёт размер пула.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = int64(n)
		}
	}
}

// WithTimeout задаёт таймаут ожидания результата.
func WithTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInFlightGauge подключает gauge с числом выполняемых операций.
func WithInFlightGauge(g prometheus.Gauge) Option {
	return func(p *Pool) {
		p.inFlight = g
	}
}

// New создаёт пул; без опций — 4 воркера и таймаут 15 секунд.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers: DefaultWorkers,
		timeout: DefaultTimeout,
		logger:  log.New().WithField("component", "worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(p.workers)
	return p
}

// Workers возвращает размер пула.
func (p *Pool) Workers() int {
	return int(p.workers)
}

// Timeout возвращает таймаут ожидания.
func (p *Pool) Timeout() time.Duration {
	return p.timeout
}

// Do выполняет fn на воркере пула и ждёт результат не дольше таймаута.
// Ожидание свободного воркера входит в таймаут. После таймаута или отмены ctx
// вызывающий получает ErrStorageTimeout, а начатая операция доводится до конца.
func (p *Pool) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		p.logger.WithField("operation", op).Warn("no free worker before timeout")
		return errors.Mark(errors.Wrapf(err, "%s: waiting for worker", op), domain.ErrStorageTimeout)
	}

	workCtx := context.WithoutCancel(ctx)
	done := make(chan error, 1)

	if p.inFlight != nil {
		p.inFlight.Inc()
	}
	go func() {
		defer func() {
			if p.inFlight != nil {
				p.inFlight.Dec()
			}
			p.sem.Release(1)
		}()
		done <- p.run(workCtx, op, fn)
	}()

	select {
	case err := <-done:
		return err
	case <-waitCtx.Done():
		p.logger.WithFields(log.Fields{
			"operation": op,
			"timeout":   p.timeout,
		}).Warn("operation did not finish in time, result abandoned")
		return errors.Mark(errors.Wrapf(waitCtx.Err(), "%s", op), domain.ErrStorageTimeout)
	}
}

// Drain ждёт, пока освободятся все воркеры, и не даёт начать новые операции на это время.
func (p *Pool) Drain(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, p.workers); err != nil {
		return errors.Wrap(err, "drain worker pool")
	}
	p.sem.Release(p.workers)
	return nil
}

func (p *Pool) run(ctx context.Context, op string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("operation", op).WithField("panic", r).Error("operation panicked")
			err = errors.Mark(errors.Newf("%s: panic: %v", op, r), domain.ErrStorageFailure)
		}
	}()
	return fn(ctx)
}

// Call — вариант Do для операций, возвращающих значение.
// При ошибке возвращается нулевое значение T.
func Call[T any](ctx context.Context, p *Pool, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

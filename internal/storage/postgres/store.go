package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute

	opTimeout = 5 * time.Second
)

var errNotInitialized = errors.New("postgres store is not initialized")

// querier покрывает *sql.DB и *sql.Tx, чтобы репозитории работали в обоих режимах.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store оборачивает SQL-подключение к PostgreSQL и реализует domain.Store.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres connection")
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Repositories возвращает репозитории, работающие вне транзакции.
func (s *Store) Repositories() domain.Repositories {
	return repositoriesFor(s.db)
}

func repositoriesFor(q querier) domain.Repositories {
	return domain.Repositories{
		Quads:        &quadRepository{q: q},
		Reservations: &reservationRepository{q: q},
		Links:        &linkRepository{q: q},
		Outbox:       &outboxRepository{q: q},
	}
}

// WithinTx выполняет fn в одной транзакции. Ошибка или паника fn откатывает все изменения.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	if s == nil || s.db == nil {
		return errNotInitialized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "begin tx")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback()
		if r := recover(); r != nil {
			panic(r)
		}
	}()

	if err := fn(ctx, repositoriesFor(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "commit tx")
	}
	committed = true
	return nil
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ domain.Store = (*Store)(nil)

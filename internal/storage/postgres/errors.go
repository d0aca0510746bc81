package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// classify переводит ошибки драйвера в доменные категории.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Mark(errors.Wrap(err, op), domain.ErrConflict)
		case pgForeignKeyViolation:
			return errors.Mark(errors.Wrap(err, op), domain.ErrParentMissing)
		case pgCheckViolation:
			return errors.Mark(errors.Wrap(err, op), domain.ErrValidation)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Mark(errors.Wrap(err, op), domain.ErrStorageTimeout)
	}

	return errors.Mark(errors.Wrap(err, op), domain.ErrStorageFailure)
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err, op)
	}
	return affected, nil
}

func withOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// bumpSequence сдвигает последовательность за явно заданный ID, чтобы ID не переиспользовались.
func bumpSequence(ctx context.Context, q querier, table string, id int64) error {
	_, err := q.ExecContext(ctx, `
		SELECT setval(pg_get_serial_sequence($1, 'id'), GREATEST($2::bigint, nextval(pg_get_serial_sequence($1, 'id'))))
	`, table, id)
	return classify(err, "bump "+table+" sequence")
}
